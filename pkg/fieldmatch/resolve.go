package fieldmatch

import (
	"strings"

	"github.com/nextgen10/evalctl/pkg/evalmodel"
)

// Resolve picks the match strategy for a flattened key path given its
// ground-truth value and an explicit strategy map (already flattened).
// An explicit entry always wins; otherwise the strategy is inferred from
// the value's type per spec.md §4.4:
//
//	bool, number, date-like, email-like -> EXACT
//	array, object                        -> EXACT (structural)
//	text                                  -> SEMANTIC
//	default                               -> EXACT
func Resolve(keyPath string, gtValue any, strategies evalmodel.FieldStrategyMap) evalmodel.Strategy {
	if s, ok := strategies[keyPath]; ok {
		switch s {
		case evalmodel.StrategyExact, evalmodel.StrategyFuzzy, evalmodel.StrategySemantic, evalmodel.StrategyIgnore:
			return s
		}
	}
	return inferStrategy(gtValue)
}

func inferStrategy(v any) evalmodel.Strategy {
	switch val := v.(type) {
	case bool:
		return evalmodel.StrategyExact
	case float64, int, int64:
		return evalmodel.StrategyExact
	case map[string]any, []any:
		return evalmodel.StrategyExact
	case string:
		if looksLikeDate(val) || looksLikeEmail(val) {
			return evalmodel.StrategyExact
		}
		if val == "" {
			return evalmodel.StrategyExact
		}
		return evalmodel.StrategySemantic
	default:
		return evalmodel.StrategyExact
	}
}

func looksLikeEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1 && strings.Contains(s[at+1:], ".")
}

// looksLikeDate recognizes the common ISO-ish shapes (YYYY-MM-DD,
// YYYY/MM/DD) without pulling in a full date-parsing dependency — the
// resolver only needs a type hint, not a valid calendar date.
func looksLikeDate(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 8 || len(s) > 10 {
		return false
	}
	digits, seps := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-' || r == '/':
			seps++
		default:
			return false
		}
	}
	return digits >= 6 && seps == 2
}

// IsNull reports whether a flattened leaf value counts as "null" per
// spec.md §4.6 phase 0: absent, literal null, or whitespace-only string.
func IsNull(v any, present bool) bool {
	if !present || v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
