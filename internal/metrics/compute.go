package metrics

import (
	"math"
	"sort"

	"news-trade-lab/internal/domain"
)

// ScoreStats describes the distribution of trade scores for one
// (symbol, strategy) slice of a run.
type ScoreStats struct {
	Symbol     string
	StrategyID string

	TotalTrades    int
	PositiveTrades int
	NegativeTrades int
	WinRate        float64

	ScoreMean   float64
	ScoreMedian float64
	ScoreP10    float64
	ScoreP25    float64
	ScoreP75    float64
	ScoreP90    float64
	ScoreMin    float64
	ScoreMax    float64
	ScoreStddev float64

	// Order-dependent, computed over trades sorted by entry time.
	MaxDrawdown          float64
	MaxConsecutiveLosses int
}

// computeFromTrades calculates all statistics from a slice of trades.
// Trades are sorted by EntryTime ASC, TradeID ASC before computing
// order-dependent metrics (MaxDrawdown, MaxConsecutiveLosses).
func computeFromTrades(trades []*domain.TradeRecord) *ScoreStats {
	n := len(trades)
	if n == 0 {
		return &ScoreStats{}
	}

	sortedTrades := make([]*domain.TradeRecord, n)
	copy(sortedTrades, trades)
	sort.Slice(sortedTrades, func(i, j int) bool {
		if sortedTrades[i].EntryTime != sortedTrades[j].EntryTime {
			return sortedTrades[i].EntryTime < sortedTrades[j].EntryTime
		}
		return sortedTrades[i].TradeID < sortedTrades[j].TradeID
	})

	positive := 0
	scores := make([]float64, n)
	for i, t := range sortedTrades {
		scores[i] = t.TradeScore
		if t.TradeScore > 0 {
			positive++
		}
	}

	sortedScores := make([]float64, n)
	copy(sortedScores, scores)
	sort.Float64s(sortedScores)

	mean := computeMean(scores)

	return &ScoreStats{
		TotalTrades:    n,
		PositiveTrades: positive,
		NegativeTrades: n - positive,
		WinRate:        float64(positive) / float64(n),

		ScoreMean:   mean,
		ScoreMedian: computePercentile(sortedScores, 0.50),
		ScoreP10:    computePercentile(sortedScores, 0.10),
		ScoreP25:    computePercentile(sortedScores, 0.25),
		ScoreP75:    computePercentile(sortedScores, 0.75),
		ScoreP90:    computePercentile(sortedScores, 0.90),
		ScoreMin:    sortedScores[0],
		ScoreMax:    sortedScores[n-1],
		ScoreStddev: computeStddev(scores, mean),

		MaxDrawdown:          computeMaxDrawdown(scores),
		MaxConsecutiveLosses: computeMaxConsecutiveLosses(scores),
	}
}

// computeMean calculates arithmetic mean of scores.
func computeMean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(scores []float64, mean float64) float64 {
	n := len(scores)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, s := range scores {
		diff := s - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC. p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeMaxDrawdown calculates worst peak-to-trough on cumulative scores.
// Scores must be in chronological order.
func computeMaxDrawdown(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}

	cumulative := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, s := range scores {
		cumulative += s
		if cumulative > peak {
			peak = cumulative
		}
		drawdown := peak - cumulative
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// computeMaxConsecutiveLosses finds the longest streak of score <= 0.
// Scores must be in chronological order.
func computeMaxConsecutiveLosses(scores []float64) int {
	maxStreak := 0
	currentStreak := 0

	for _, s := range scores {
		if s <= 0 {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}
