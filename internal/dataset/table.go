// Package dataset provides the column-oriented table that the reducer,
// feature pipeline and backtester exchange. A table is a strictly increasing
// second-aligned timestamp index plus named float64 columns of equal length.
package dataset

import (
	"fmt"
	"math"

	"news-trade-lab/internal/domain"
)

// Table holds a timestamp index and named columns. Missing cells are NaN;
// they are preserved through storage round trips and must never be silently
// coerced to zero by consumers.
type Table struct {
	timestamps []int64
	columns    map[string][]float64
	order      []string
}

// New creates an empty table over the given millisecond timestamps.
func New(timestamps []int64) *Table {
	ts := make([]int64, len(timestamps))
	copy(ts, timestamps)
	return &Table{
		timestamps: ts,
		columns:    make(map[string][]float64),
	}
}

// FromBars builds a table from reduced bars, one column per bar field.
func FromBars(bars []domain.ReducedBar) *Table {
	ts := make([]int64, len(bars))
	for i, b := range bars {
		ts[i] = b.Timestamp
	}
	t := New(ts)

	cols := map[string]func(domain.ReducedBar) float64{
		domain.ColAvgPrice:        func(b domain.ReducedBar) float64 { return b.AvgPrice },
		domain.ColSumAssetBought:  func(b domain.ReducedBar) float64 { return b.SumAssetBought },
		domain.ColNumTradesBought: func(b domain.ReducedBar) float64 { return b.NumTradesBought },
		domain.ColSumAssetSold:    func(b domain.ReducedBar) float64 { return b.SumAssetSold },
		domain.ColNumTradesSold:   func(b domain.ReducedBar) float64 { return b.NumTradesSold },
	}
	for _, name := range []string{
		domain.ColAvgPrice,
		domain.ColSumAssetBought,
		domain.ColNumTradesBought,
		domain.ColSumAssetSold,
		domain.ColNumTradesSold,
	} {
		get := cols[name]
		values := make([]float64, len(bars))
		for i, b := range bars {
			values[i] = get(b)
		}
		t.columns[name] = values
		t.order = append(t.order, name)
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.timestamps)
}

// Timestamps returns the index. Callers must not mutate it.
func (t *Table) Timestamps() []int64 {
	return t.timestamps
}

// Columns returns column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// HasColumn reports whether a column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Column returns the values for name. Callers must not mutate the slice.
func (t *Table) Column(name string) ([]float64, bool) {
	c, ok := t.columns[name]
	return c, ok
}

// SetColumn adds or replaces a column. The value slice length must match the
// index length.
func (t *Table) SetColumn(name string, values []float64) error {
	if len(values) != len(t.timestamps) {
		return fmt.Errorf("column %s: length %d does not match index length %d",
			name, len(values), len(t.timestamps))
	}
	if _, exists := t.columns[name]; !exists {
		t.order = append(t.order, name)
	}
	t.columns[name] = values
	return nil
}

// DropColumn removes a column if present.
func (t *Table) DropColumn(name string) {
	if _, ok := t.columns[name]; !ok {
		return
	}
	delete(t.columns, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Select returns a new table restricted to the named columns, in the given
// order, sharing the index.
func (t *Table) Select(names []string) (*Table, error) {
	out := New(t.timestamps)
	for _, name := range names {
		c, ok := t.columns[name]
		if !ok {
			return nil, fmt.Errorf("column %s not present", name)
		}
		if err := out.SetColumn(name, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Slice returns a new table holding rows [from, to) with copied columns.
func (t *Table) Slice(from, to int) *Table {
	if from < 0 {
		from = 0
	}
	if to > len(t.timestamps) {
		to = len(t.timestamps)
	}
	if from > to {
		from = to
	}
	out := New(t.timestamps[from:to])
	for _, name := range t.order {
		values := make([]float64, to-from)
		copy(values, t.columns[name][from:to])
		out.columns[name] = values
		out.order = append(out.order, name)
	}
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	return t.Slice(0, len(t.timestamps))
}

// At returns the cell (column, row). NaN when the column is missing.
func (t *Table) At(name string, row int) float64 {
	c, ok := t.columns[name]
	if !ok || row < 0 || row >= len(c) {
		return math.NaN()
	}
	return c[row]
}

// IndexOf returns the row of the first timestamp >= ts, or Len() when every
// timestamp is earlier. The index is strictly increasing so a binary search
// applies.
func (t *Table) IndexOf(ts int64) int {
	lo, hi := 0, len(t.timestamps)
	for lo < hi {
		mid := (lo + hi) / 2
		if t.timestamps[mid] < ts {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// IsMissing reports whether a cell value is the missing-data marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Round rounds v to the given number of decimal places. NaN and Inf pass
// through unchanged.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	pow := math.Pow10(places)
	return math.Round(v*pow) / pow
}
