package config

import (
	"fmt"
	"log/slog"
)

// Validator runs the post-merge validation pass described in spec.md §3's
// invariants and §9's open questions.
type Validator struct {
	cfg *Config
}

// NewValidator constructs a Validator for cfg.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll runs every check, returning the first failure wrapped with
// context. Non-fatal observations (the zero-weight renormalization
// surprise) are logged rather than rejected.
func (v *Validator) ValidateAll() error {
	if err := v.validateWeights(); err != nil {
		return err
	}
	if err := v.validateThresholds(); err != nil {
		return err
	}
	if err := v.validateConcurrency(); err != nil {
		return err
	}
	v.warnOnPartialZeroWeights()
	return nil
}

func (v *Validator) validateWeights() error {
	w := v.cfg.Weights
	for name, val := range map[string]float64{
		"w_accuracy": w.Accuracy, "w_completeness": w.Completeness,
		"w_hallucination": w.Hallucination, "w_safety": w.Safety,
	} {
		if val < 0 {
			return NewValidationError("weights", "", name, fmt.Errorf("%w: must be non-negative, got %v", ErrInvalidValue, val))
		}
	}
	return nil
}

func (v *Validator) validateThresholds() error {
	t := v.cfg.Thresholds
	for name, val := range map[string]float64{
		"accuracy": t.Accuracy, "consistency": t.Consistency, "hallucination": t.Hallucination,
		"rqs": t.RQS, "semantic": t.Semantic, "fuzzy": t.Fuzzy,
	} {
		if val < 0 || val > 1 {
			return NewValidationError("thresholds", "", name, fmt.Errorf("%w: must be within [0,1], got %v", ErrInvalidValue, val))
		}
	}
	return nil
}

func (v *Validator) validateConcurrency() error {
	c := v.cfg.Concurrency
	if c.MaxConcurrentBots < 1 {
		return NewValidationError("concurrency", "", "max_concurrent_bots", fmt.Errorf("%w: must be at least 1", ErrInvalidValue))
	}
	if c.MaxBatchSize < 1 || c.MaxBatchSize > 500 {
		return NewValidationError("concurrency", "", "max_batch_size", fmt.Errorf("%w: must be within [1,500]", ErrInvalidValue))
	}
	return nil
}

// warnOnPartialZeroWeights implements the spec.md §9 open-question
// decision: warn (don't fail) when one or more, but not all, RQS weights
// are zero, since
// the remaining weights renormalize to still sum to 1 and silently
// redistribute that metric's share — a behavior operators setting a
// weight to zero may not expect.
func (v *Validator) warnOnPartialZeroWeights() {
	w := v.cfg.Weights
	vals := map[string]float64{
		"w_accuracy": w.Accuracy, "w_completeness": w.Completeness,
		"w_hallucination": w.Hallucination, "w_safety": w.Safety,
	}
	zero, nonZero := 0, 0
	for _, val := range vals {
		if val == 0 {
			zero++
		} else {
			nonZero++
		}
	}
	if zero > 0 && nonZero > 0 {
		slog.Warn("one or more RQS weights are zero; remaining weights will be renormalized to sum to 1, "+
			"redistributing the zeroed metric's share rather than simply dropping its contribution",
			"weights", vals)
	}
}
