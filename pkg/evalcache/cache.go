// Package evalcache memoizes RAG-triad metric results by a content
// fingerprint over (query, answer, contexts, ground_truth, model,
// temperature), so re-running an evaluation over an unchanged dataset
// skips redundant LLM calls (spec.md §4.5, grounded on
// original_source/Utility/rag_eval_standalone.py's EvalCache class).
package evalcache

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/nextgen10/evalctl/pkg/evalmodel"
)

// Cache is a fingerprint-keyed, optionally-persisted store of
// evalmodel.MetricBundle results.
type Cache struct {
	mu       sync.Mutex
	enabled  bool
	filePath string
	entries  map[string]evalmodel.MetricBundle
	hits     int
	misses   int
}

// persistedFile is the on-disk snapshot shape.
type persistedFile struct {
	Entries map[string]evalmodel.MetricBundle `json:"entries"`
}

// New constructs a Cache. When enabled is false, Get always misses and
// Put is a no-op, letting callers skip the cache entirely without
// branching at every call site.
func New(enabled bool, filePath string) *Cache {
	c := &Cache{enabled: enabled, filePath: filePath, entries: map[string]evalmodel.MetricBundle{}}
	if enabled && filePath != "" {
		c.load()
	}
	return c
}

func (c *Cache) load() {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("evalcache: failed to read cache file, starting fresh", "path", c.filePath, "error", err)
		}
		return
	}
	var pf persistedFile
	if err := json.Unmarshal(data, &pf); err != nil {
		slog.Warn("evalcache: cache file corrupt, starting fresh", "path", c.filePath, "error", err)
		return
	}
	// A snapshot with no "entries" key (e.g. "{}") decodes with a nil map,
	// which isn't corruption — guard against it so a later Put doesn't
	// panic writing into a nil map.
	if pf.Entries != nil {
		c.entries = pf.Entries
	}
}

// Fingerprint computes the cache key for one evaluation row.
func Fingerprint(query, answer string, contexts []string, groundTruth, model string, temperature float64) string {
	parts := []string{
		query, answer, strings.Join(contexts, "||"), groundTruth, model,
		strconv.FormatFloat(temperature, 'g', -1, 64),
	}
	h := xxhash.Sum64String(strings.Join(parts, "|"))
	return strconv.FormatUint(h, 16)
}

// Get looks up a previously-computed bundle by fingerprint.
func (c *Cache) Get(fingerprint string) (evalmodel.MetricBundle, bool) {
	if !c.enabled {
		return evalmodel.MetricBundle{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[fingerprint]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return b, ok
}

// Put stores a computed bundle under fingerprint. No-op when disabled.
func (c *Cache) Put(fingerprint string, bundle evalmodel.MetricBundle) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = bundle
}

// Stats reports cumulative hit/miss counters since construction.
type Stats struct {
	Hits   int
	Misses int
	Size   int
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Size: len(c.entries)}
}

// Save persists the cache to its configured file path. No-op when
// disabled or no path was configured. Write failures are logged, not
// returned, since a failed cache save must never fail an evaluation run.
func (c *Cache) Save() {
	if !c.enabled || c.filePath == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(persistedFile{Entries: c.entries}, "", "  ")
	if err != nil {
		slog.Warn("evalcache: failed to marshal cache", "error", err)
		return
	}
	if err := os.WriteFile(c.filePath, data, 0o644); err != nil {
		slog.Warn("evalcache: failed to write cache file", "path", c.filePath, "error", err)
	}
}
