package feature

import (
	"news-trade-lab/internal/dataset"
	"news-trade-lab/internal/domain"
)

// deriveSignal sets the signal column from the threshold rule: 1 where the
// source exceeds Threshold, and with Symmetric set, -1 where it falls below
// -Threshold. NaN source cells compare false and stay 0: a degenerate
// feature is an absent feature, not a zero. Any previous signal column was
// already dropped by Apply, so signals are recomputed, never blended.
func deriveSignal(out *dataset.Table, spec *SignalSpec) error {
	values, ok := out.Column(spec.Column)
	if !ok {
		return specErrf(spec, "signal column %s missing after feature application", spec.Column)
	}

	signal := make([]float64, len(values))
	for i, v := range values {
		switch {
		case v > spec.Threshold:
			signal[i] = 1
		case spec.Symmetric && v < -spec.Threshold:
			signal[i] = -1
		}
	}
	return out.SetColumn(domain.ColSignal, signal)
}
