package feature

import (
	"context"
	"fmt"
	"math"

	"news-trade-lab/internal/dataset"
	"news-trade-lab/internal/domain"
)

// NewsProvider supplies headline events for the news_signal feature.
type NewsProvider interface {
	// EventsBetween returns events in [start, end] (ms, inclusive) that
	// relate to symbol.
	EventsBetween(ctx context.Context, start, end int64, symbol string) ([]domain.NewsEvent, error)
}

// Pipeline applies feature specs to reduced tables. A Pipeline is scoped to
// one symbol and one run; its column cache never outlives it.
type Pipeline struct {
	symbol string
	news   NewsProvider
	cache  *columnCache
}

// New creates a pipeline for symbol. news may be nil when the spec contains
// no news_signal feature.
func New(symbol string, news NewsProvider) *Pipeline {
	return &Pipeline{
		symbol: symbol,
		news:   news,
		cache:  newColumnCache(),
	}
}

// applyFuncs dispatches each feature kind to its implementation. The map is
// the single registry of supported kinds; Validate rejects anything absent.
var applyFuncs = map[Kind]func(*Pipeline, context.Context, *dataset.Table, Feature) error{
	KindZScore:        (*Pipeline).applyZScore,
	KindMovingAverage: (*Pipeline).applyMovingAverage,
	KindFutureDiff:    (*Pipeline).applyFutureDiff,
	KindRatio:         (*Pipeline).applyRatio,
	KindNewsSignal:    (*Pipeline).applyNewsSignal,
}

// Apply computes every column the spec names and returns the projected
// feature table. The input table is not modified. Columns already present
// on the input are reused as-is, so feeding a previously cached table back
// through Apply only computes what is missing. Applying the same spec to
// the same input twice yields identical output.
func (p *Pipeline) Apply(ctx context.Context, table *dataset.Table, spec *Spec) (*dataset.Table, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	out := table.Clone()
	// A stale signal column must never blend into a new derivation.
	out.DropColumn(domain.ColSignal)

	for _, c := range spec.Columns {
		if !out.HasColumn(c) {
			return nil, specErrf(spec.Columns, "input table is missing projection column %s", c)
		}
	}

	projection := append([]string{}, spec.Columns...)

	for _, f := range spec.Features {
		missing := false
		for _, name := range f.OutputColumns() {
			projection = append(projection, name)
			if !out.HasColumn(name) {
				missing = true
			}
		}
		if !missing {
			continue
		}
		if err := applyFuncs[f.Type](p, ctx, out, f); err != nil {
			return nil, fmt.Errorf("apply %s: %w", f.Type, err)
		}
	}

	if hasNewsFeature(spec) {
		if err := p.applyTotalZScore(out, projection); err != nil {
			return nil, err
		}
		projection = append(projection, domain.ColTotalZScore)
	}

	if spec.Signal != nil {
		if err := deriveSignal(out, spec.Signal); err != nil {
			return nil, err
		}
		projection = append(projection, domain.ColSignal)
	}

	return out.Select(projection)
}

func hasNewsFeature(spec *Spec) bool {
	for _, f := range spec.Features {
		if f.Type == KindNewsSignal {
			return true
		}
	}
	return false
}

// applyZScore adds <col>_zscore: (value - mean) / std over a trailing
// window, both statistics shifted one row back so row t only sees rows
// strictly before t. Degenerate windows surface as NaN, never 0.
func (p *Pipeline) applyZScore(_ context.Context, out *dataset.Table, f Feature) error {
	window := f.Window
	if window == 0 {
		window = DefaultZScoreWindow
	}

	for _, col := range f.Columns {
		values, ok := out.Column(col)
		if !ok {
			return fmt.Errorf("column %s not present", col)
		}

		filled := fillMissing(values, 0)
		mean := shiftForward(p.cache.rollingMean(col, window, filled))
		std := shiftForward(p.cache.rollingStd(col, window, filled))

		z := make([]float64, len(values))
		for i := range values {
			z[i] = dataset.Round((values[i]-mean[i])/std[i], 2)
		}
		if err := out.SetColumn(col+"_zscore", z); err != nil {
			return err
		}
	}
	return nil
}

// applyMovingAverage adds <col>_moving_average_MA_<p>: simple rolling mean
// over exactly p samples. Missing values count as true zeros for this
// feature: an empty second genuinely had no volume. Rows before a full
// window are NaN.
func (p *Pipeline) applyMovingAverage(_ context.Context, out *dataset.Table, f Feature) error {
	for _, period := range f.Periods {
		for _, col := range f.Columns {
			values, ok := out.Column(col)
			if !ok {
				return fmt.Errorf("column %s not present", col)
			}

			filled := fillMissing(values, 0)
			mean := rollingMean(filled, period)
			ma := make([]float64, len(values))
			for i := range mean {
				if i < period-1 {
					ma[i] = math.NaN()
					continue
				}
				ma[i] = dataset.Round(mean[i], 2)
			}

			name := fmt.Sprintf("%s_moving_average_MA_%d", col, period)
			if err := out.SetColumn(name, ma); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyFutureDiff adds <col>_future_diff_<p> = -pct_change(-p): what the
// column will do p samples from now. The last p rows have no future and are
// NaN. Lookahead by construction; Validate keeps these columns out of any
// causal signal.
func (p *Pipeline) applyFutureDiff(_ context.Context, out *dataset.Table, f Feature) error {
	for _, period := range f.Periods {
		for _, col := range f.Columns {
			values, ok := out.Column(col)
			if !ok {
				return fmt.Errorf("column %s not present", col)
			}

			n := len(values)
			diff := make([]float64, n)
			for i := range values {
				if i+period >= n || values[i+period] == 0 {
					diff[i] = math.NaN()
					continue
				}
				diff[i] = dataset.Round(-((values[i] - values[i+period]) / values[i+period]), 4)
			}

			name := fmt.Sprintf("%s_future_diff_%d", col, period)
			if err := out.SetColumn(name, diff); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyRatio adds ColumnName = Columns[0] / Columns[1] elementwise.
// Division by zero is NaN, not zero: a vanished denominator is a degenerate
// measurement, and signal comparisons against NaN evaluate false.
func (p *Pipeline) applyRatio(_ context.Context, out *dataset.Table, f Feature) error {
	num, ok := out.Column(f.Columns[0])
	if !ok {
		return fmt.Errorf("column %s not present", f.Columns[0])
	}
	den, ok := out.Column(f.Columns[1])
	if !ok {
		return fmt.Errorf("column %s not present", f.Columns[1])
	}

	ratio := make([]float64, len(num))
	for i := range num {
		if den[i] == 0 {
			ratio[i] = math.NaN()
			continue
		}
		ratio[i] = num[i] / den[i]
	}
	return out.SetColumn(f.ColumnName, ratio)
}

// applyNewsSignal adds news_signal: 1 at seconds containing at least one
// event matching the pipeline's symbol, 0 elsewhere.
func (p *Pipeline) applyNewsSignal(ctx context.Context, out *dataset.Table, _ Feature) error {
	if p.news == nil {
		return fmt.Errorf("news_signal requested but no news provider configured")
	}

	ts := out.Timestamps()
	signal := make([]float64, len(ts))
	if len(ts) == 0 {
		return out.SetColumn(domain.ColNewsSignal, signal)
	}

	events, err := p.news.EventsBetween(ctx, ts[0], ts[len(ts)-1], p.symbol)
	if err != nil {
		return fmt.Errorf("fetch news events: %w", err)
	}

	for _, ev := range events {
		second := (ev.Time / 1000) * 1000
		idx := out.IndexOf(second)
		if idx < len(ts) && ts[idx] == second {
			signal[idx] = 1
		}
	}
	return out.SetColumn(domain.ColNewsSignal, signal)
}

// fillMissing replaces NaN with fill in a copy of values.
func fillMissing(values []float64, fill float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = fill
		} else {
			out[i] = v
		}
	}
	return out
}
