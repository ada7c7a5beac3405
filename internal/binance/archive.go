// Package binance acquires raw aggregated trades, either from monthly
// archive CSV dumps on local disk or from the live combined websocket
// stream.
package binance

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"news-trade-lab/internal/domain"
	"news-trade-lab/internal/pipeline"
)

var _ pipeline.TradeSource = (*Archive)(nil)

// Archive reads the exchange's monthly aggTrades dumps from a local
// directory. Files follow the archive naming scheme,
// {SYMBOL}-aggTrades-{YYYY-MM}.csv, unzipped by an external download step.
type Archive struct {
	dir string
}

// NewArchive creates an archive source rooted at dir.
func NewArchive(dir string) *Archive {
	return &Archive{dir: dir}
}

// Fetch reads one month of trades for symbol. A missing file means the
// month was never downloaded; the caller treats that as data unavailable.
func (a *Archive) Fetch(_ context.Context, symbol, month string) ([]domain.AggTrade, error) {
	path := filepath.Join(a.dir, fmt.Sprintf("%s-aggTrades-%s.csv", symbol, month))

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	trades, err := readTrades(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return trades, nil
}

// readTrades parses the archive CSV layout:
// agg_trade_id,price,quantity,first_trade_id,last_trade_id,transact_time,is_buyer_maker
// Older dumps ship without the header row; both forms are accepted.
func readTrades(r io.Reader) ([]domain.AggTrade, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 7
	reader.ReuseRecord = true

	var trades []domain.AggTrade
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			return trades, nil
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && strings.EqualFold(record[0], "agg_trade_id") {
			continue
		}

		t, err := parseTrade(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		trades = append(trades, t)
	}
}

func parseTrade(record []string) (domain.AggTrade, error) {
	price, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return domain.AggTrade{}, fmt.Errorf("price: %w", err)
	}
	quantity, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return domain.AggTrade{}, fmt.Errorf("quantity: %w", err)
	}
	firstID, err := strconv.ParseInt(record[3], 10, 64)
	if err != nil {
		return domain.AggTrade{}, fmt.Errorf("first_trade_id: %w", err)
	}
	lastID, err := strconv.ParseInt(record[4], 10, 64)
	if err != nil {
		return domain.AggTrade{}, fmt.Errorf("last_trade_id: %w", err)
	}
	transactTime, err := strconv.ParseInt(record[5], 10, 64)
	if err != nil {
		return domain.AggTrade{}, fmt.Errorf("transact_time: %w", err)
	}
	isBuyerMaker, err := strconv.ParseBool(strings.ToLower(record[6]))
	if err != nil {
		return domain.AggTrade{}, fmt.Errorf("is_buyer_maker: %w", err)
	}

	return domain.AggTrade{
		TransactTime: transactTime,
		Price:        price,
		Quantity:     quantity,
		FirstTradeID: firstID,
		LastTradeID:  lastID,
		IsBuyerMaker: isBuyerMaker,
	}, nil
}
