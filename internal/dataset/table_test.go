package dataset

import (
	"bytes"
	"math"
	"testing"
)

func TestTable_SetColumnLengthMismatch(t *testing.T) {
	tbl := New([]int64{0, 1000, 2000})
	if err := tbl.SetColumn("a", []float64{1, 2}); err == nil {
		t.Fatal("Expected error for length mismatch")
	}
}

func TestTable_SelectMissingColumn(t *testing.T) {
	tbl := New([]int64{0})
	if _, err := tbl.Select([]string{"nope"}); err == nil {
		t.Fatal("Expected error for missing column")
	}
}

func TestTable_IndexOf(t *testing.T) {
	tbl := New([]int64{1000, 2000, 3000, 4000})

	cases := []struct {
		ts   int64
		want int
	}{
		{500, 0},
		{1000, 0},
		{2500, 2},
		{4000, 3},
		{9000, 4},
	}
	for _, c := range cases {
		if got := tbl.IndexOf(c.ts); got != c.want {
			t.Errorf("IndexOf(%d) = %d, want %d", c.ts, got, c.want)
		}
	}
}

func TestTable_SliceCopies(t *testing.T) {
	tbl := New([]int64{0, 1000, 2000})
	_ = tbl.SetColumn("x", []float64{1, 2, 3})

	sub := tbl.Slice(1, 3)
	col, _ := sub.Column("x")
	col[0] = 99

	if got := tbl.At("x", 1); got != 2 {
		t.Errorf("Slice shares backing array with parent: got %v", got)
	}
}

func TestCSV_RoundTripPreservesMissing(t *testing.T) {
	tbl := New([]int64{0, 1000, 2000})
	_ = tbl.SetColumn("avg_price", []float64{100.5, 100.5, 101})
	_ = tbl.SetColumn("zscore", []float64{math.NaN(), 1.25, -0.5})

	var buf bytes.Buffer
	if err := tbl.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if got.Len() != 3 {
		t.Fatalf("Expected 3 rows, got %d", got.Len())
	}
	if !IsMissing(got.At("zscore", 0)) {
		t.Errorf("Expected NaN to survive round trip, got %v", got.At("zscore", 0))
	}
	if got.At("zscore", 1) != 1.25 {
		t.Errorf("zscore[1] = %v, want 1.25", got.At("zscore", 1))
	}
	if ts := got.Timestamps(); ts[2] != 2000 {
		t.Errorf("timestamp[2] = %d, want 2000", ts[2])
	}
}

func TestCSV_Deterministic(t *testing.T) {
	tbl := New([]int64{0, 1000})
	_ = tbl.SetColumn("a", []float64{1.123456, 2})
	_ = tbl.SetColumn("b", []float64{3, math.Inf(1)})

	var first, second bytes.Buffer
	if err := tbl.WriteCSV(&first); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if err := tbl.WriteCSV(&second); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if first.String() != second.String() {
		t.Error("WriteCSV output is not byte-identical across calls")
	}
}
