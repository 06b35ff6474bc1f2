// Package metrics implements the individual scoring workers the
// orchestrator and the tabular evaluator compose: exact/fuzzy/semantic
// matching, safety, consistency, and the RAG-triad batch worker
// (spec.md §4.3).
package metrics

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/nextgen10/evalctl/pkg/evalmodel"
)

var (
	dateDigits   = regexp.MustCompile(`[^0-9]`)
	nonNumeric   = regexp.MustCompile(`[^\d.\-eE]`)
	emailAtParen = regexp.MustCompile(`\s*(\(at\)|\[at\])\s*`)
)

// numberTolerance is the relative tolerance used for number comparisons,
// matching the original evaluator's `math.isclose(rel_tol=0.01)`.
const numberTolerance = 0.01

// ExactMatch compares expected and actual under type-aware
// normalization: numbers compare by parsed value, emails
// case-insensitively, dates by digit sequence only (so "2024-01-05" and
// "2024/01/05" match), everything else by trimmed, collapsed-whitespace,
// case-insensitive string comparison. Returns 1.0 on match, 0.0
// otherwise.
func ExactMatch(expected, actual string, t evalmodel.ExpectedType) float64 {
	switch t {
	case evalmodel.ExpectedNumber:
		ef, eerr := strconv.ParseFloat(nonNumeric.ReplaceAllString(expected, ""), 64)
		af, aerr := strconv.ParseFloat(nonNumeric.ReplaceAllString(actual, ""), 64)
		if eerr != nil || aerr != nil {
			return normalizedEqual(expected, actual)
		}
		if math.Abs(ef-af) <= numberTolerance*math.Max(math.Abs(ef), math.Abs(af)) {
			return 1.0
		}
		return 0.0
	case evalmodel.ExpectedEmail:
		if normalizeEmail(expected) == normalizeEmail(actual) {
			return 1.0
		}
		return 0.0
	case evalmodel.ExpectedDate:
		ed := dateDigits.ReplaceAllString(expected, "")
		ad := dateDigits.ReplaceAllString(actual, "")
		if ed == ad && ed != "" {
			return 1.0
		}
		return 0.0
	default:
		return normalizedEqual(expected, actual)
	}
}

// normalizeEmail lowercases and trims s, then folds the common spoken/
// obfuscated forms back into a plain address: " at "/"(at)"/"[at]" -> "@",
// " dot " -> "." (spec.md §4.3; mirrors the original evaluator's
// normalize_email).
func normalizeEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = emailAtParen.ReplaceAllString(s, "@")
	s = strings.ReplaceAll(s, " at ", "@")
	s = strings.ReplaceAll(s, " dot ", ".")
	return s
}

func normalizedEqual(a, b string) float64 {
	if normalizeText(a) == normalizeText(b) {
		return 1.0
	}
	return 0.0
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
