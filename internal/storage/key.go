package storage

import (
	"fmt"
	"strings"
)

// DatasetKind distinguishes the stages of dataset materialization.
type DatasetKind string

const (
	// KindReduced identifies per-second reduced bars straight out of the
	// trade reducer, before any feature application.
	KindReduced DatasetKind = "reduced"

	// KindCompiled identifies feature-compiled datasets. Compiled keys
	// carry the spec ID so different feature specs never collide.
	KindCompiled DatasetKind = "compiled"
)

// DatasetKey addresses one cached dataset: a symbol, a month of data,
// and (for compiled datasets) the feature spec that produced it.
type DatasetKey struct {
	Kind   DatasetKind
	Symbol string
	Month  string // "2021-08"
	SpecID string // empty for reduced datasets
}

// String renders the key in its canonical slash-joined form, used as the
// primary key in ClickHouse and as a cache filename stem.
func (k DatasetKey) String() string {
	parts := []string{string(k.Kind), k.Symbol, k.Month}
	if k.SpecID != "" {
		parts = append(parts, k.SpecID)
	}
	return strings.Join(parts, "/")
}

// Validate checks the key is well formed for its kind.
func (k DatasetKey) Validate() error {
	if k.Symbol == "" {
		return fmt.Errorf("%w: dataset key requires a symbol", ErrInvalidInput)
	}
	if k.Month == "" {
		return fmt.Errorf("%w: dataset key requires a month", ErrInvalidInput)
	}
	switch k.Kind {
	case KindReduced:
		if k.SpecID != "" {
			return fmt.Errorf("%w: reduced dataset key must not carry a spec ID", ErrInvalidInput)
		}
	case KindCompiled:
		if k.SpecID == "" {
			return fmt.Errorf("%w: compiled dataset key requires a spec ID", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown dataset kind %q", ErrInvalidInput, k.Kind)
	}
	return nil
}
