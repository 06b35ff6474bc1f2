package promptregistry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ReturnsBuiltins(t *testing.T) {
	r, err := Load(t.TempDir())
	require.NoError(t, err)

	_, ok := r.Get("toxicity")
	assert.True(t, ok)
	_, ok = r.Get("ragtriad")
	assert.True(t, ok)
}

func TestLoad_OverlayDirWinsOverBuiltin(t *testing.T) {
	dir := t.TempDir()
	yamlContent := "system_message: overridden\nuser_message_template: \"{text}\"\nmodel: test-model\ntemperature: 0.1\nmax_tokens: 10\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "toxicity.yaml"), []byte(yamlContent), 0o644))

	r, err := Load(dir)
	require.NoError(t, err)

	entry, ok := r.Get("toxicity")
	require.True(t, ok)
	assert.Equal(t, "overridden", entry.SystemMessage)
	assert.Equal(t, "test-model", entry.Model)
}

func TestUpdate_RejectsInvalidKey(t *testing.T) {
	r, err := Load(t.TempDir())
	require.NoError(t, err)

	err = r.Update("bad key!", Entry{})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestRender_SubstitutesPlaceholders(t *testing.T) {
	got := Render("compare {text_a} with {text_b}", map[string]string{"text_a": "foo", "text_b": "bar"})
	assert.Equal(t, "compare foo with bar", got)
}

func TestRender_LeavesUnmatchedPlaceholdersAsIs(t *testing.T) {
	got := Render("hello {name}", map[string]string{})
	assert.Equal(t, "hello {name}", got)
}
