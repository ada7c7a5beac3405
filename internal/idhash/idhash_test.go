package idhash

import "testing"

func TestComputeTradeID_Deterministic(t *testing.T) {
	a := ComputeTradeID("BTCUSDT", "tpsl_3_1", "abc123", 1690000000000)
	b := ComputeTradeID("BTCUSDT", "tpsl_3_1", "abc123", 1690000000000)

	if a != b {
		t.Errorf("Same inputs produced different IDs: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("Expected 64-char hash, got %d", len(a))
	}
}

func TestComputeTradeID_DistinctInputs(t *testing.T) {
	base := ComputeTradeID("BTCUSDT", "tpsl_3_1", "abc123", 1690000000000)

	variants := []string{
		ComputeTradeID("ETHUSDT", "tpsl_3_1", "abc123", 1690000000000),
		ComputeTradeID("BTCUSDT", "flow_1.3", "abc123", 1690000000000),
		ComputeTradeID("BTCUSDT", "tpsl_3_1", "def456", 1690000000000),
		ComputeTradeID("BTCUSDT", "tpsl_3_1", "abc123", 1690000001000),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base ID", i)
		}
	}
}

func TestComputeSpecID_FieldOrderIndependent(t *testing.T) {
	type specA struct {
		Column    string  `json:"column"`
		Threshold float64 `json:"threshold"`
	}
	type specB struct {
		Threshold float64 `json:"threshold"`
		Column    string  `json:"column"`
	}

	a, err := ComputeSpecID(specA{Column: "sum_asset_sold_zscore", Threshold: 100})
	if err != nil {
		t.Fatalf("ComputeSpecID failed: %v", err)
	}
	b, err := ComputeSpecID(specB{Column: "sum_asset_sold_zscore", Threshold: 100})
	if err != nil {
		t.Fatalf("ComputeSpecID failed: %v", err)
	}

	if a != b {
		t.Errorf("Field order changed the spec ID: %s vs %s", a, b)
	}
}

func TestComputeSpecID_SliceOrderMatters(t *testing.T) {
	a, _ := ComputeSpecID(map[string]any{"features": []string{"zscore", "moving_average"}})
	b, _ := ComputeSpecID(map[string]any{"features": []string{"moving_average", "zscore"}})

	if a == b {
		t.Error("Feature order must affect the spec ID")
	}
}
