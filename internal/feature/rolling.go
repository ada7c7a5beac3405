package feature

import "math"

// rollingMean computes the trailing mean over at most window samples ending
// at each row. Partial windows at the head are averaged over what exists,
// matching a time-based rolling window over a fixed-cadence index.
func rollingMean(values []float64, window int) []float64 {
	n := len(values)
	out := make([]float64, n)
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		count := i + 1
		if count > window {
			count = window
		}
		out[i] = sum / float64(count)
	}
	return out
}

// rollingStd computes the trailing sample standard deviation (n-1
// denominator) over at most window samples. Rows with fewer than two
// samples in window, and windows with zero variance, yield NaN so the
// degeneracy stays visible downstream.
func rollingStd(values []float64, window int) []float64 {
	n := len(values)
	out := make([]float64, n)
	sum, sumSq := 0.0, 0.0
	for i := 0; i < n; i++ {
		sum += values[i]
		sumSq += values[i] * values[i]
		if i >= window {
			sum -= values[i-window]
			sumSq -= values[i-window] * values[i-window]
		}
		count := i + 1
		if count > window {
			count = window
		}
		if count < 2 {
			out[i] = math.NaN()
			continue
		}
		mean := sum / float64(count)
		variance := (sumSq - float64(count)*mean*mean) / float64(count-1)
		if variance <= 0 {
			// Guard against small negative values from float cancellation;
			// true zero variance is a degenerate window either way.
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Sqrt(variance)
	}
	return out
}

// shiftForward moves every value one row later, inserting NaN at row 0.
// Applying it to rolling statistics makes row t depend only on rows
// strictly before t.
func shiftForward(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	out[0] = math.NaN()
	copy(out[1:], values[:len(values)-1])
	return out
}

// EMA computes a span-based exponentially weighted moving average
// (alpha = 2/(span+1), recursive form). The first span-1 rows are NaN: the
// average is not considered warmed up until a full span of samples passed.
func EMA(values []float64, span int) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 || span <= 0 {
		return out
	}

	alpha := 2.0 / (float64(span) + 1.0)
	ema := 0.0
	for i, v := range values {
		if i == 0 {
			ema = v
		} else {
			ema = alpha*v + (1-alpha)*ema
		}
		if i < span-1 {
			out[i] = math.NaN()
		} else {
			out[i] = ema
		}
	}
	return out
}
