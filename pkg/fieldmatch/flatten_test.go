package fieldmatch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten_NestedObjectsAndArrays(t *testing.T) {
	input := map[string]any{
		"name": "Alice",
		"address": map[string]any{
			"city": "Springfield",
			"zip":  "00000",
		},
		"tags": []any{"a", "b"},
	}

	got := Flatten(input)
	want := map[string]any{
		"name":           "Alice",
		"address_city":   "Springfield",
		"address_zip":    "00000",
		"tags#1":         "a",
		"tags#2":         "b",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatten_EmptyContainersKeepTheirKey(t *testing.T) {
	input := map[string]any{
		"empty_obj": map[string]any{},
		"empty_arr": []any{},
	}
	got := Flatten(input)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "empty_obj")
	assert.Contains(t, got, "empty_arr")
}

func TestFlattenStrategies(t *testing.T) {
	nested := map[string]any{
		"a": "fuzzy",
		"b": map[string]any{
			"c": "IGNORE",
		},
	}
	got, err := FlattenStrategies(nested)
	require.NoError(t, err)
	assert.Equal(t, "FUZZY", got["a"])
	assert.Equal(t, "IGNORE", got["b_c"])
}

func TestFlattenStrategies_RejectsUnknownLiteral(t *testing.T) {
	_, err := FlattenStrategies(map[string]any{"a": "bogus"})
	assert.Error(t, err)
}
