package domain

// AggTrade represents one aggregated trade print from the exchange archive.
// A print may bucket multiple fills that shared a price; the trade-id range
// records how many.
type AggTrade struct {
	TransactTime int64   // Unix timestamp in milliseconds
	Price        float64 // execution price
	Quantity     float64 // base asset quantity
	FirstTradeID int64   // first trade id in the aggregate (inclusive)
	LastTradeID  int64   // last trade id in the aggregate (inclusive)
	IsBuyerMaker bool    // true means the resting order was the buyer
}

// NumTrades returns the number of individual fills bucketed in this print.
func (t AggTrade) NumTrades() int64 {
	return t.LastTradeID - t.FirstTradeID + 1
}

// IsSell reports whether this print is classified as sell-side flow.
// The exchange convention maps is_buyer_maker=true to a sell-side print
// (the taker hit a resting buy order). The mapping is preserved exactly.
func (t AggTrade) IsSell() bool {
	return t.IsBuyerMaker
}
