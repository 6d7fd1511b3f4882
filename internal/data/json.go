package data

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/lle/internal/tensor"
)

// LoadJSON reads a dataset from a JSON file. See ReadJSON.
func LoadJSON(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	ds, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// ReadJSON parses an array of [features, target] pairs:
//
//	[[[0.1, 0.2], 1], [[0.3, 0.4], 0]]
//
// A target may be a number or an array of numbers.
func ReadJSON(r io.Reader) (*Dataset, error) {
	var pairs [][2]json.RawMessage
	if err := json.NewDecoder(r).Decode(&pairs); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	if len(pairs) == 0 {
		return nil, ErrEmptyDataset
	}

	inputs := make([]*tensor.Tensor, len(pairs))
	targets := make([]*tensor.Tensor, len(pairs))
	for i, pair := range pairs {
		var x []float32
		if err := json.Unmarshal(pair[0], &x); err != nil {
			return nil, fmt.Errorf("example %d: features: %w", i, err)
		}
		y, err := decodeTarget(pair[1])
		if err != nil {
			return nil, fmt.Errorf("example %d: target: %w", i, err)
		}
		inputs[i] = tensor.New(x)
		targets[i] = y
	}
	return New(inputs, targets)
}

func decodeTarget(raw json.RawMessage) (*tensor.Tensor, error) {
	var v float32
	if err := json.Unmarshal(raw, &v); err == nil {
		return tensor.Scalar(v), nil
	}
	var vs []float32
	if err := json.Unmarshal(raw, &vs); err != nil {
		return nil, err
	}
	return tensor.New(vs), nil
}
