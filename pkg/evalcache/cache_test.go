package evalcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextgen10/evalctl/pkg/evalmodel"
)

func TestGetPut_RoundTrips(t *testing.T) {
	c := New(true, "")
	fp := Fingerprint("q", "a", []string{"ctx1", "ctx2"}, "gt", "model", 0.2)

	_, ok := c.Get(fp)
	assert.False(t, ok)

	c.Put(fp, evalmodel.MetricBundle{RQS: 0.8})
	got, ok := c.Get(fp)
	require.True(t, ok)
	assert.Equal(t, 0.8, got.RQS)
}

func TestDisabledCache_AlwaysMisses(t *testing.T) {
	c := New(false, "")
	fp := Fingerprint("q", "a", nil, "gt", "model", 0.0)
	c.Put(fp, evalmodel.MetricBundle{RQS: 1.0})
	_, ok := c.Get(fp)
	assert.False(t, ok)
}

func TestFingerprint_StableAndOrderSensitive(t *testing.T) {
	a := Fingerprint("q", "a", []string{"x", "y"}, "gt", "m", 0.1)
	b := Fingerprint("q", "a", []string{"x", "y"}, "gt", "m", 0.1)
	c := Fingerprint("q", "a", []string{"y", "x"}, "gt", "m", 0.1)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSaveAndReload_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	c1 := New(true, path)
	fp := Fingerprint("q", "a", nil, "gt", "m", 0.0)
	c1.Put(fp, evalmodel.MetricBundle{RQS: 0.5})
	c1.Save()

	c2 := New(true, path)
	got, ok := c2.Get(fp)
	require.True(t, ok)
	assert.Equal(t, 0.5, got.RQS)
}

func TestLoad_CorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	c := New(true, path)
	assert.Equal(t, 0, c.Stats().Size)
}

func TestStats_CountsHitsAndMisses(t *testing.T) {
	c := New(true, "")
	fp := Fingerprint("q", "a", nil, "gt", "m", 0.0)
	c.Get(fp)
	c.Put(fp, evalmodel.MetricBundle{})
	c.Get(fp)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, stats.Misses)
	assert.Equal(t, 1, stats.Size)
}
