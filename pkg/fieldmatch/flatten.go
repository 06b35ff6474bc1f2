// Package fieldmatch implements the flattened key-path convention and the
// field-match strategy resolver shared by the JSON evaluator and the
// orchestrator's single-test path.
package fieldmatch

import (
	"fmt"
	"strconv"
	"strings"
)

// Flatten walks a nested JSON-decoded value (maps, slices, scalars) and
// returns a map from leaf key path to leaf value. Objects descend with
// `_`, arrays descend with `#<1-indexed>`, matching the convention used
// for both data flattening and field-strategy-map flattening.
func Flatten(value any) map[string]any {
	out := map[string]any{}
	flattenInto(out, "", value)
	return out
}

func flattenInto(out map[string]any, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 0 {
			out[prefix] = v
			return
		}
		for k, child := range v {
			flattenInto(out, joinKey(prefix, k), child)
		}
	case []any:
		if len(v) == 0 {
			out[prefix] = v
			return
		}
		for i, child := range v {
			flattenInto(out, joinIndex(prefix, i+1), child)
		}
	default:
		out[prefix] = v
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "_" + key
}

func joinIndex(prefix string, idx1 int) string {
	return prefix + "#" + strconv.Itoa(idx1)
}

// FlattenStrategies flattens a nested field-strategy configuration (maps
// of maps, maps of strategy literals) into the same leaf-key-path
// convention. Values must already be (or resolve to) one of
// {EXACT,FUZZY,SEMANTIC,IGNORE}; anything else fails the whole call with
// an error describing the offending path.
func FlattenStrategies(nested map[string]any) (map[string]string, error) {
	out := map[string]string{}
	var walk func(prefix string, v any) error
	walk = func(prefix string, v any) error {
		switch val := v.(type) {
		case string:
			if !isValidStrategy(val) {
				return fmt.Errorf("field_strategies: %q is not one of EXACT,FUZZY,SEMANTIC,IGNORE at %q", val, prefix)
			}
			out[prefix] = strings.ToUpper(val)
			return nil
		case map[string]any:
			for k, child := range val {
				if err := walk(joinKey(prefix, k), child); err != nil {
					return err
				}
			}
			return nil
		default:
			return fmt.Errorf("field_strategies: unsupported value at %q", prefix)
		}
	}
	for k, v := range nested {
		if err := walk(k, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func isValidStrategy(s string) bool {
	switch strings.ToUpper(s) {
	case "EXACT", "FUZZY", "SEMANTIC", "IGNORE":
		return true
	default:
		return false
	}
}
