package storage

import (
	"errors"
	"testing"
)

func TestDatasetKey_String(t *testing.T) {
	reduced := DatasetKey{Kind: KindReduced, Symbol: "BTCUSDT", Month: "2023-08"}
	if got := reduced.String(); got != "reduced/BTCUSDT/2023-08" {
		t.Errorf("String() = %s", got)
	}

	compiled := DatasetKey{Kind: KindCompiled, Symbol: "BTCUSDT", Month: "2023-08", SpecID: "abc123"}
	if got := compiled.String(); got != "compiled/BTCUSDT/2023-08/abc123" {
		t.Errorf("String() = %s", got)
	}
}

func TestDatasetKey_Validate(t *testing.T) {
	tests := []struct {
		name    string
		key     DatasetKey
		wantErr bool
	}{
		{"valid reduced", DatasetKey{Kind: KindReduced, Symbol: "BTCUSDT", Month: "2023-08"}, false},
		{"valid compiled", DatasetKey{Kind: KindCompiled, Symbol: "BTCUSDT", Month: "2023-08", SpecID: "abc"}, false},
		{"missing symbol", DatasetKey{Kind: KindReduced, Month: "2023-08"}, true},
		{"missing month", DatasetKey{Kind: KindReduced, Symbol: "BTCUSDT"}, true},
		{"compiled without spec id", DatasetKey{Kind: KindCompiled, Symbol: "BTCUSDT", Month: "2023-08"}, true},
		{"reduced with spec id", DatasetKey{Kind: KindReduced, Symbol: "BTCUSDT", Month: "2023-08", SpecID: "abc"}, true},
		{"unknown kind", DatasetKey{Kind: "features", Symbol: "BTCUSDT", Month: "2023-08"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr && err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error should wrap ErrInvalidInput, got %v", err)
			}
		})
	}
}
