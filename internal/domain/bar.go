package domain

// ReducedBar is one row of the per-second aggregate table produced by the
// trade reducer. Exactly one bar exists per calendar second in the reduced
// range; Timestamp is the primary key and strictly increases.
type ReducedBar struct {
	Timestamp        int64   // second-aligned Unix timestamp in milliseconds
	AvgPrice         float64 // mean trade price within the second, forward-filled across empty seconds
	SumAssetBought   float64 // buy-side quantity sum, 0 when no buy prints occurred
	NumTradesBought  float64 // buy-side fill count sum, 0 when no buy prints occurred
	SumAssetSold     float64 // sell-side quantity sum, 0 when no sell prints occurred
	NumTradesSold    float64 // sell-side fill count sum, 0 when no sell prints occurred
}

// Reduced table column names. Derived feature columns are named from these
// (e.g. sum_asset_sold_zscore), so they are part of the storage format.
const (
	ColAvgPrice        = "avg_price"
	ColSumAssetBought  = "sum_asset_bought"
	ColNumTradesBought = "num_of_trades_bought"
	ColSumAssetSold    = "sum_asset_sold"
	ColNumTradesSold   = "num_of_trades_sold"
	ColNewsSignal      = "news_signal"
	ColTotalZScore     = "total_z_score"
	ColSignal          = "signal"
)
