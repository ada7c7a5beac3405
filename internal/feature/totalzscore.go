package feature

import (
	"math"
	"strings"

	"news-trade-lab/internal/dataset"
	"news-trade-lab/internal/domain"
)

// applyTotalZScore adds the composite anomaly column. When the range holds
// at least one news_signal=1 second, every eligible flow column gets a
// whole-column z-score; the absolute values are summed row-wise into
// total_z_score. Quiet ranges get a zero column so the schema is stable.
//
// Eligible: every column in candidates except the price, the index-like
// signal columns, and lookahead (future_diff) label columns. Volume-style
// columns are zero most seconds, so their mean and deviation are taken over
// positive observations only.
func (p *Pipeline) applyTotalZScore(out *dataset.Table, candidates []string) error {
	total := make([]float64, out.Len())

	news, ok := out.Column(domain.ColNewsSignal)
	if !ok || sum(news) == 0 {
		return out.SetColumn(domain.ColTotalZScore, total)
	}

	for _, col := range candidates {
		if !eligibleForTotalZScore(col) {
			continue
		}
		values, ok := out.Column(col)
		if !ok {
			continue
		}

		mean, std := positiveStats(values)
		if math.IsNaN(std) || std == 0 {
			continue
		}
		for i, v := range values {
			if math.IsNaN(v) {
				continue
			}
			total[i] += math.Abs((v - mean) / std)
		}
	}

	return out.SetColumn(domain.ColTotalZScore, total)
}

func eligibleForTotalZScore(col string) bool {
	switch col {
	case domain.ColAvgPrice, domain.ColNewsSignal, domain.ColSignal, domain.ColTotalZScore:
		return false
	}
	return !strings.Contains(col, "_future_diff_")
}

// positiveStats returns mean and sample standard deviation over the
// strictly positive observations of values. NaN std when fewer than two
// such observations exist.
func positiveStats(values []float64) (float64, float64) {
	count := 0
	total := 0.0
	for _, v := range values {
		if !math.IsNaN(v) && v > 0 {
			total += v
			count++
		}
	}
	if count < 2 {
		return 0, math.NaN()
	}
	mean := total / float64(count)

	sumSq := 0.0
	for _, v := range values {
		if !math.IsNaN(v) && v > 0 {
			d := v - mean
			sumSq += d * d
		}
	}
	return mean, math.Sqrt(sumSq / float64(count-1))
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		if !math.IsNaN(v) {
			total += v
		}
	}
	return total
}
