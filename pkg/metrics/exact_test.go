package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nextgen10/evalctl/pkg/evalmodel"
)

func TestExactMatch_Number(t *testing.T) {
	assert.Equal(t, 1.0, ExactMatch("3.0", "3", evalmodel.ExpectedNumber))
	assert.Equal(t, 0.0, ExactMatch("3", "4", evalmodel.ExpectedNumber))
}

func TestExactMatch_NumberStripsNonNumericCharacters(t *testing.T) {
	assert.Equal(t, 1.0, ExactMatch("$1,000.00", "1000.00", evalmodel.ExpectedNumber))
}

func TestExactMatch_NumberWithinOnePercentRelativeTolerance(t *testing.T) {
	assert.Equal(t, 1.0, ExactMatch("100", "101", evalmodel.ExpectedNumber))
	assert.Equal(t, 0.0, ExactMatch("100", "102", evalmodel.ExpectedNumber))
}

func TestExactMatch_Email(t *testing.T) {
	assert.Equal(t, 1.0, ExactMatch("Foo@Example.com", "foo@example.com", evalmodel.ExpectedEmail))
}

func TestExactMatch_EmailNormalizesAtAndDotSpellOuts(t *testing.T) {
	assert.Equal(t, 1.0, ExactMatch("john at example dot com", "john@example.com", evalmodel.ExpectedEmail))
	assert.Equal(t, 1.0, ExactMatch("JOHN (at) EXAMPLE.COM", "john@example.com", evalmodel.ExpectedEmail))
}

func TestExactMatch_Date(t *testing.T) {
	assert.Equal(t, 1.0, ExactMatch("2024-01-05", "2024/01/05", evalmodel.ExpectedDate))
	assert.Equal(t, 0.0, ExactMatch("2024-01-05", "2024-01-06", evalmodel.ExpectedDate))
}

func TestExactMatch_TextNormalizesWhitespaceAndCase(t *testing.T) {
	assert.Equal(t, 1.0, ExactMatch("  Hello   World  ", "hello world", evalmodel.ExpectedText))
	assert.Equal(t, 0.0, ExactMatch("hello", "goodbye", evalmodel.ExpectedText))
}

func TestExactMatch_NumberFallsBackToTextWhenUnparsable(t *testing.T) {
	assert.Equal(t, 1.0, ExactMatch("five", "five", evalmodel.ExpectedNumber))
}
