// Package reduce converts raw aggregated-trade prints into the uniform
// per-second bar table the feature pipeline consumes.
package reduce

import (
	"errors"
	"fmt"

	"news-trade-lab/internal/dataset"
	"news-trade-lab/internal/domain"
)

// ErrNoData is returned when there are no raw trades to reduce. Downstream
// stages treat this as "dataset unavailable", never as zero-filled data.
var ErrNoData = errors.New("no raw trades to reduce")

// bucketMs is the reduction cadence.
const bucketMs = int64(1000)

// Rounding precision of the stored bar fields.
const (
	pricePrecision    = 6
	quantityPrecision = 2
)

// bucket accumulates one second of prints before the final averaging pass.
type bucket struct {
	priceSum        float64
	printCount      int64
	sumAssetBought  float64
	numTradesBought int64
	sumAssetSold    float64
	numTradesSold   int64
}

// Reduce aggregates raw trades into exactly one bar per calendar second in
// [floor(min time), floor(max time)].
//
// Per bucket:
//   - avg_price is the mean price across all prints (buy and sell combined),
//     forward-filled from the previous bar when the second has no prints
//   - quantity and fill-count sums are partitioned by the maker flag
//     (is_buyer_maker=true is sell-side flow) and left at 0 for empty seconds
func Reduce(trades []domain.AggTrade) ([]domain.ReducedBar, error) {
	if len(trades) == 0 {
		return nil, ErrNoData
	}

	buckets := make(map[int64]*bucket)
	minTs, maxTs := int64(0), int64(0)

	for i, t := range trades {
		ts := (t.TransactTime / bucketMs) * bucketMs
		if i == 0 || ts < minTs {
			minTs = ts
		}
		if i == 0 || ts > maxTs {
			maxTs = ts
		}

		b, ok := buckets[ts]
		if !ok {
			b = &bucket{}
			buckets[ts] = b
		}
		b.priceSum += t.Price
		b.printCount++

		if t.IsSell() {
			b.sumAssetSold += t.Quantity
			b.numTradesSold += t.NumTrades()
		} else {
			b.sumAssetBought += t.Quantity
			b.numTradesBought += t.NumTrades()
		}
	}

	// The first bucket always holds at least one print, so the forward fill
	// never starts undefined.
	first, ok := buckets[minTs]
	if !ok || first.printCount == 0 {
		return nil, fmt.Errorf("first bucket %d has no trades", minTs)
	}

	n := int((maxTs-minTs)/bucketMs) + 1
	bars := make([]domain.ReducedBar, 0, n)
	lastPrice := 0.0

	for ts := minTs; ts <= maxTs; ts += bucketMs {
		bar := domain.ReducedBar{Timestamp: ts}

		if b, ok := buckets[ts]; ok {
			lastPrice = dataset.Round(b.priceSum/float64(b.printCount), pricePrecision)
			bar.SumAssetBought = dataset.Round(b.sumAssetBought, quantityPrecision)
			bar.NumTradesBought = float64(b.numTradesBought)
			bar.SumAssetSold = dataset.Round(b.sumAssetSold, quantityPrecision)
			bar.NumTradesSold = float64(b.numTradesSold)
		}
		bar.AvgPrice = lastPrice

		bars = append(bars, bar)
	}

	return bars, nil
}

// ReduceToTable reduces trades and converts the bars to a dataset table.
func ReduceToTable(trades []domain.AggTrade) (*dataset.Table, error) {
	bars, err := Reduce(trades)
	if err != nil {
		return nil, err
	}
	return dataset.FromBars(bars), nil
}
