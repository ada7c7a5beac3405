package clickhouse

import (
	"context"
	"fmt"
	"time"

	"news-trade-lab/internal/dataset"
	"news-trade-lab/internal/storage"
)

// DatasetStore implements storage.DatasetStore using ClickHouse.
//
// Tables are stored cell-wise in dataset_cells, a ReplacingMergeTree keyed
// by (dataset_key, column_name, timestamp_ms). Put writes a fresh version
// number for every cell, so re-materializing a dataset supersedes the old
// rows without mutations.
type DatasetStore struct {
	conn *Conn
}

// NewDatasetStore creates a new DatasetStore.
func NewDatasetStore(conn *Conn) *DatasetStore {
	return &DatasetStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DatasetStore = (*DatasetStore)(nil)

// Put stores the table under key, replacing any previous version.
func (s *DatasetStore) Put(ctx context.Context, key storage.DatasetKey, table *dataset.Table) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if table == nil {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO dataset_cells (
			dataset_key, column_name, column_position, timestamp_ms, value, version
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	version := uint64(time.Now().UnixNano())
	ts := table.Timestamps()

	for pos, col := range table.Columns() {
		values, _ := table.Column(col)
		for i, v := range values {
			err = batch.Append(
				key.String(), col, uint32(pos), uint64(ts[i]), v, version,
			)
			if err != nil {
				return fmt.Errorf("append to batch: %w", err)
			}
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// Get retrieves the table stored under key. Returns ErrNotFound if nothing
// has been stored for it.
func (s *DatasetStore) Get(ctx context.Context, key storage.DatasetKey) (*dataset.Table, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	query := `
		SELECT column_name, column_position, timestamp_ms, value
		FROM dataset_cells FINAL
		WHERE dataset_key = ?
		ORDER BY column_position ASC, timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, key.String())
	if err != nil {
		return nil, fmt.Errorf("query dataset cells: %w", err)
	}
	defer rows.Close()

	var (
		timestamps []int64
		order      []string
		columns    = make(map[string][]float64)
		current    string
	)

	for rows.Next() {
		var (
			col   string
			pos   uint32
			tsMs  uint64
			value float64
		)
		if err := rows.Scan(&col, &pos, &tsMs, &value); err != nil {
			return nil, fmt.Errorf("scan dataset cell: %w", err)
		}

		if col != current {
			current = col
			order = append(order, col)
		}
		columns[col] = append(columns[col], value)

		// The time axis is shared; capture it from the first column only.
		if len(order) == 1 {
			timestamps = append(timestamps, int64(tsMs))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dataset cells: %w", err)
	}

	if len(order) == 0 {
		return nil, storage.ErrNotFound
	}

	table := dataset.New(timestamps)
	for _, col := range order {
		if err := table.SetColumn(col, columns[col]); err != nil {
			return nil, fmt.Errorf("assemble column %s: %w", col, err)
		}
	}
	return table, nil
}
