package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// timeLayout is the timestamp format of the stored row-oriented tables.
// Timestamps are second-aligned so no sub-second component is written.
const timeLayout = "2006-01-02 15:04:05"

// WriteCSV serializes the table in the dataset store value format: a header
// row, then one row per second with the timestamp in the first column.
// Missing cells are written as empty fields.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{"timestamp"}, t.order...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(header))
	for i, ts := range t.timestamps {
		row[0] = time.UnixMilli(ts).UTC().Format(timeLayout)
		for j, name := range t.order {
			v := t.columns[name][i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row[j+1] = ""
			} else {
				row[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table previously written by WriteCSV. Empty cells become
// the missing-data marker.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 1 || header[0] != "timestamp" {
		return nil, fmt.Errorf("first column must be timestamp, got %q", header)
	}
	names := header[1:]

	var timestamps []int64
	values := make([][]float64, len(names))

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(header), len(row))
		}

		ts, err := time.ParseInLocation(timeLayout, row[0], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse timestamp %q: %w", line, row[0], err)
		}
		timestamps = append(timestamps, ts.UnixMilli())

		for j, cell := range row[1:] {
			if cell == "" {
				values[j] = append(values[j], math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: parse %q: %w", line, names[j], cell, err)
			}
			values[j] = append(values[j], v)
		}
	}

	t := New(timestamps)
	for j, name := range names {
		col := values[j]
		if col == nil {
			col = []float64{}
		}
		if err := t.SetColumn(name, col); err != nil {
			return nil, err
		}
	}
	return t, nil
}
