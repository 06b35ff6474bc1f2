package config

// NormalizeWeights implements spec.md §3's invariant: weights renormalize
// to sum to 1 when their sum is non-negative and non-zero; when all
// weights are (effectively) zero, they fall back to equal shares. Mirrors
// `original_source/Utility/rag_eval_standalone.py: _normalize_weights`.
func NormalizeWeights(weights map[string]float64) map[string]float64 {
	const epsilon = 1e-6

	total := 0.0
	for _, w := range weights {
		total += w
	}

	out := make(map[string]float64, len(weights))
	if total < epsilon {
		share := 0.0
		if len(weights) > 0 {
			share = 1.0 / float64(len(weights))
		}
		for k := range weights {
			out[k] = share
		}
		return out
	}

	for k, w := range weights {
		out[k] = w / total
	}
	return out
}

// NormalizeStructWeights renormalizes the RQS blend weights (spec.md §4.6,
// §4.8) so they sum to 1, falling back to equal shares when all four are
// zero.
func NormalizeStructWeights(w Weights) Weights {
	norm := NormalizeWeights(map[string]float64{
		"accuracy": w.Accuracy, "completeness": w.Completeness,
		"hallucination": w.Hallucination, "safety": w.Safety,
	})
	return Weights{
		Accuracy:      norm["accuracy"],
		Completeness:  norm["completeness"],
		Hallucination: norm["hallucination"],
		Safety:        norm["safety"],
	}
}

// NormalizeCompositeWeights renormalizes the tabular path's alpha/beta/gamma
// blend (spec.md §4.7) so they sum to 1, falling back to equal shares when
// all three are zero. alpha/beta/gamma are the only operator-tunable terms
// of CalculateRQS's 5-term sum; the two retrieval terms it adds on top
// (context_precision, context_recall) are fixed weights outside this
// blend, so the renormalized total for the full RQS formula is by design
// not 1 (e.g. defaults 0.4+0.3+0.3 plus 0.075+0.075 = 1.15 before clamp).
func NormalizeCompositeWeights(w CompositeWeights) CompositeWeights {
	norm := NormalizeWeights(map[string]float64{
		"alpha": w.Alpha, "beta": w.Beta, "gamma": w.Gamma,
	})
	return CompositeWeights{Alpha: norm["alpha"], Beta: norm["beta"], Gamma: norm["gamma"]}
}
