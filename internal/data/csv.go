package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadCSV reads a dataset from a CSV file. See ReadCSV.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// ReadCSV parses comma-separated rows of numbers. The last column is the
// target and the others are the input features. Rows containing a field
// that does not parse as a number (such as a header) are skipped.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		rows    [][]float32
		targets []float32
	)
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		values, ok := parseRecord(record)
		if !ok {
			continue
		}
		if len(values) < 2 {
			return nil, fmt.Errorf("csv line %d: need at least one feature and a target", line)
		}
		rows = append(rows, values[:len(values)-1])
		targets = append(targets, values[len(values)-1])
	}
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	return FromRows(rows, targets)
}

func parseRecord(record []string) ([]float32, bool) {
	values := make([]float32, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
		if err != nil {
			return nil, false
		}
		values[i] = float32(v)
	}
	return values, true
}
