package reporting

import (
	"fmt"
	"strings"
)

// RenderTradesCSV renders the trade list as a CSV string.
func RenderTradesCSV(trades []TradeRow) string {
	var sb strings.Builder

	sb.WriteString("trade_id,trade_number,position_side,entry_time,entry_price,exit_time,exit_price,exit_reason,")
	sb.WriteString("tp_price,sl_price,tp_price_hit,sl_price_hit,")
	sb.WriteString("max_pos_pct_change,max_pos_pct_change_time,max_neg_pct_change,max_neg_pct_change_time,trade_score\n")

	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%d,%s,%d,%.6f,%d,%.6f,%s,%.6f,%.6f,%t,%t,%.6f,%d,%.6f,%d,%.6f\n",
			t.TradeID,
			t.TradeNumber,
			t.PositionSide,
			t.EntryTime,
			t.EntryPrice,
			t.ExitTime,
			t.ExitPrice,
			t.ExitReason,
			t.TPPrice,
			t.SLPrice,
			t.TPPriceHit,
			t.SLPriceHit,
			t.MaxPos,
			t.MaxPosTime,
			t.MaxNeg,
			t.MaxNegTime,
			t.TradeScore,
		))
	}

	return sb.String()
}
