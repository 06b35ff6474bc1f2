// Package promptregistry stores the LLM prompt templates used by the
// metric workers (spec.md §4.2). Entries are identified by a short key
// matching [A-Za-z0-9_-]+, carry a system message, a user-message
// template with {placeholder} substitutions, and the model/temperature/
// max-tokens to invoke with. A built-in set ships embedded in the
// binary; operators may override or add entries via YAML files dropped
// into the configured prompts directory.
package promptregistry

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.yaml
var builtinFS embed.FS

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Entry is one named prompt template.
type Entry struct {
	Key                 string  `yaml:"-"`
	SystemMessage       string  `yaml:"system_message"`
	UserMessageTemplate string  `yaml:"user_message_template"`
	Model               string  `yaml:"model"`
	Temperature         float64 `yaml:"temperature"`
	MaxTokens           int     `yaml:"max_tokens"`
}

// Registry is a concurrency-safe in-memory store of Entry values, keyed
// by Entry.Key.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// Load builds a Registry from the embedded built-ins, then overlays any
// *.yaml files found in dir (if dir is non-empty and exists). Files in
// dir take precedence over built-ins with the same key.
func Load(dir string) (*Registry, error) {
	r := &Registry{entries: map[string]Entry{}}

	if err := r.loadFS(builtinFS, "prompts"); err != nil {
		return nil, fmt.Errorf("promptregistry: loading built-ins: %w", err)
	}

	if dir == "" {
		return r, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return r, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("promptregistry: globbing %s: %w", dir, err)
	}
	for _, path := range matches {
		key := strings.TrimSuffix(filepath.Base(path), ".yaml")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("promptregistry: reading %s: %w", path, err)
		}
		if err := r.put(key, data); err != nil {
			return nil, fmt.Errorf("promptregistry: %s: %w", path, err)
		}
	}
	return r, nil
}

func (r *Registry) loadFS(fsys embed.FS, root string) error {
	entries, err := fsys.ReadDir(root)
	if err != nil {
		return err
	}
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".yaml") {
			continue
		}
		key := strings.TrimSuffix(de.Name(), ".yaml")
		data, err := fsys.ReadFile(filepath.Join(root, de.Name()))
		if err != nil {
			return err
		}
		if err := r.put(key, data); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) put(key string, data []byte) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	var e Entry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return fmt.Errorf("unmarshal prompt %q: %w", key, err)
	}
	e.Key = key
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = e
	return nil
}

// Get returns the entry for key, if any.
func (r *Registry) Get(key string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	return e, ok
}

// List returns all entries in no particular order.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

// Update inserts or replaces an entry at runtime. key must match the
// registry's naming convention.
func (r *Registry) Update(key string, e Entry) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	e.Key = key
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = e
	slog.Info("promptregistry: prompt updated", "key", key)
	return nil
}

// Render substitutes {name} placeholders in tmpl with values from vars.
// Unmatched placeholders are left as-is.
func Render(tmpl string, vars map[string]string) string {
	out := tmpl
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}
