package feature

import "fmt"

// columnCache memoizes rolling statistics within a single pipeline run.
// Several features regularly request the same trailing mean or deviation of
// the same column; the cache makes that reuse explicit and keeps it scoped
// to the Pipeline that owns it.
type columnCache struct {
	entries map[string][]float64
}

func newColumnCache() *columnCache {
	return &columnCache{entries: make(map[string][]float64)}
}

func (c *columnCache) rollingMean(col string, window int, values []float64) []float64 {
	key := fmt.Sprintf("mean|%s|%d", col, window)
	if cached, ok := c.entries[key]; ok {
		return cached
	}
	out := rollingMean(values, window)
	c.entries[key] = out
	return out
}

func (c *columnCache) rollingStd(col string, window int, values []float64) []float64 {
	key := fmt.Sprintf("std|%s|%d", col, window)
	if cached, ok := c.entries[key]; ok {
		return cached
	}
	out := rollingStd(values, window)
	c.entries[key] = out
	return out
}
