package orchestrator

import (
	"errors"
	"time"
)

// ErrValidation covers bad shapes, oversized batches, and other
// caller-visible input problems (spec.md §7 ValidationError).
var ErrValidation = errors.New("orchestrator: validation failed")

// nowFunc is overridden in tests for deterministic timestamps.
var nowFunc = time.Now
