// Package feature computes derived signal columns over reduced bar tables
// from a declarative, ordered feature specification.
package feature

import (
	"fmt"
	"strings"

	"news-trade-lab/internal/domain"
	"news-trade-lab/internal/idhash"
)

// Kind identifies a feature variant. The set is closed: specs naming any
// other kind are rejected during validation, before any row is touched.
type Kind string

// Supported feature kinds.
const (
	KindZScore        Kind = "zscore"
	KindMovingAverage Kind = "moving_average"
	KindFutureDiff    Kind = "future_diff"
	KindRatio         Kind = "ratio"
	KindNewsSignal    Kind = "news_signal"
)

// DefaultZScoreWindow is one hour of seconds, the trailing window the
// z-score statistics are computed over when the spec does not override it.
const DefaultZScoreWindow = 3600

// Feature is one entry of the ordered feature list. Which fields are
// required depends on Type; Validate enforces the shape per kind.
type Feature struct {
	Type Kind `yaml:"type" json:"type"`

	// Columns the feature reads. zscore/moving_average/future_diff accept
	// any number; ratio requires exactly two (numerator, denominator).
	Columns []string `yaml:"columns,omitempty" json:"columns,omitempty"`

	// Window overrides the zscore trailing window, in samples.
	Window int `yaml:"window,omitempty" json:"window,omitempty"`

	// Periods for moving_average and future_diff; one output column is
	// produced per (column, period) pair.
	Periods []int `yaml:"periods,omitempty" json:"periods,omitempty"`

	// ColumnName names the ratio output column.
	ColumnName string `yaml:"column_name,omitempty" json:"column_name,omitempty"`
}

// SignalSpec derives the final signal column after all features ran.
// signal=1 where Column > Threshold; with Symmetric set, signal=-1 where
// Column < -Threshold. Everything else is 0.
type SignalSpec struct {
	Column    string  `yaml:"column" json:"column"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Symmetric bool    `yaml:"symmetric,omitempty" json:"symmetric,omitempty"`
}

// Spec is the feature-configuration document, the primary API of the
// dataset pipeline. Features run strictly in order: later entries may read
// columns produced by earlier ones.
type Spec struct {
	// Columns is the final projection of base table columns; every derived
	// column and the signal are appended to it.
	Columns  []string   `yaml:"columns" json:"columns"`
	Features []Feature  `yaml:"features" json:"features"`
	Signal   *SignalSpec `yaml:"signal,omitempty" json:"signal,omitempty"`
}

// SpecError reports a rejected spec together with the offending fragment.
type SpecError struct {
	Fragment string
	Reason   string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("invalid feature spec: %s (%s)", e.Reason, e.Fragment)
}

func specErrf(fragment any, format string, args ...any) *SpecError {
	return &SpecError{
		Fragment: fmt.Sprintf("%+v", fragment),
		Reason:   fmt.Sprintf(format, args...),
	}
}

// baseColumns are the reduced-table columns every spec may read without an
// earlier feature producing them.
var baseColumns = []string{
	domain.ColAvgPrice,
	domain.ColSumAssetBought,
	domain.ColNumTradesBought,
	domain.ColSumAssetSold,
	domain.ColNumTradesSold,
}

// OutputColumns returns the column names this feature produces, in order.
// Naming is deterministic so cached tables can be checked for completeness
// without recomputing anything.
func (f Feature) OutputColumns() []string {
	switch f.Type {
	case KindZScore:
		out := make([]string, 0, len(f.Columns))
		for _, c := range f.Columns {
			out = append(out, c+"_zscore")
		}
		return out
	case KindMovingAverage:
		out := make([]string, 0, len(f.Columns)*len(f.Periods))
		for _, p := range f.Periods {
			for _, c := range f.Columns {
				out = append(out, fmt.Sprintf("%s_moving_average_MA_%d", c, p))
			}
		}
		return out
	case KindFutureDiff:
		out := make([]string, 0, len(f.Columns)*len(f.Periods))
		for _, p := range f.Periods {
			for _, c := range f.Columns {
				out = append(out, fmt.Sprintf("%s_future_diff_%d", c, p))
			}
		}
		return out
	case KindRatio:
		return []string{f.ColumnName}
	case KindNewsSignal:
		return []string{domain.ColNewsSignal}
	}
	return nil
}

// Validate checks the whole document eagerly: unknown feature kinds, shape
// violations, references to columns no earlier step produces, and acausal
// signal definitions are all configuration errors raised before any row
// processing begins.
func (s *Spec) Validate() error {
	available := make(map[string]bool, len(baseColumns))
	for _, c := range baseColumns {
		available[c] = true
	}
	for _, c := range s.Columns {
		if !available[c] {
			return specErrf(s.Columns, "projection column %s is not a reduced table column", c)
		}
	}

	// future_diff outputs look ahead by construction; they are label
	// columns and must never drive a causally evaluated signal.
	lookahead := make(map[string]bool)

	for i, f := range s.Features {
		if err := f.validateShape(); err != nil {
			return err
		}
		for _, c := range f.readColumns() {
			if !available[c] {
				return specErrf(f, "feature %d (%s) reads column %s, which no earlier step produces", i, f.Type, c)
			}
			if lookahead[c] && f.Type != KindFutureDiff {
				return specErrf(f, "feature %d (%s) reads lookahead column %s", i, f.Type, c)
			}
		}
		for _, c := range f.OutputColumns() {
			if available[c] {
				return specErrf(f, "feature %d (%s) would overwrite existing column %s", i, f.Type, c)
			}
			available[c] = true
			if f.Type == KindFutureDiff {
				lookahead[c] = true
			}
		}
	}

	if s.Signal != nil {
		if s.Signal.Column == "" {
			return specErrf(s.Signal, "signal column is required")
		}
		if !available[s.Signal.Column] {
			return specErrf(s.Signal, "signal reads column %s, which no feature produces", s.Signal.Column)
		}
		if lookahead[s.Signal.Column] || strings.Contains(s.Signal.Column, "_future_diff_") {
			return specErrf(s.Signal, "signal must be causal: %s is a lookahead column", s.Signal.Column)
		}
	}

	return nil
}

func (f Feature) validateShape() error {
	switch f.Type {
	case KindZScore:
		if len(f.Columns) == 0 {
			return specErrf(f, "zscore requires at least one column")
		}
		if f.Window < 0 {
			return specErrf(f, "zscore window must be positive")
		}
	case KindMovingAverage:
		if len(f.Columns) == 0 || len(f.Periods) == 0 {
			return specErrf(f, "moving_average requires columns and periods")
		}
		for _, p := range f.Periods {
			if p <= 0 {
				return specErrf(f, "moving_average period must be positive, got %d", p)
			}
		}
	case KindFutureDiff:
		if len(f.Columns) == 0 || len(f.Periods) == 0 {
			return specErrf(f, "future_diff requires columns and periods")
		}
		for _, p := range f.Periods {
			if p <= 0 {
				return specErrf(f, "future_diff period must be positive, got %d", p)
			}
		}
	case KindRatio:
		if len(f.Columns) != 2 {
			return specErrf(f, "ratio requires exactly two columns, got %d", len(f.Columns))
		}
		if f.ColumnName == "" {
			return specErrf(f, "ratio requires column_name")
		}
	case KindNewsSignal:
		// no parameters
	default:
		return specErrf(f, "unknown feature type %q", f.Type)
	}
	return nil
}

// readColumns returns the columns the feature consumes.
func (f Feature) readColumns() []string {
	if f.Type == KindNewsSignal {
		return nil
	}
	return f.Columns
}

// ID returns the stable identity hash of the spec. Two specs that produce
// the same table have the same ID; feature order participates because it
// affects the output.
func (s *Spec) ID() (string, error) {
	return idhash.ComputeSpecID(s)
}

// OutputColumns returns every column a compiled table built from this spec
// contains, in projection order. A cached table holding all of them can be
// reused without recomputation.
func (s *Spec) OutputColumns() []string {
	out := append([]string{}, s.Columns...)
	for _, f := range s.Features {
		out = append(out, f.OutputColumns()...)
	}
	if hasNewsFeature(s) {
		out = append(out, domain.ColTotalZScore)
	}
	if s.Signal != nil {
		out = append(out, domain.ColSignal)
	}
	return out
}
