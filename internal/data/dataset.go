// Package data provides in-memory datasets, their file loaders and the
// mini-batch DataLoader the trainer consumes.
//
// A Dataset holds one tensor per example. Loaders produce examples with the
// input features as a rank-1 tensor and the target as a [1] tensor (CSV,
// JSON) or as whatever trailing shape the source array carries (NPZ).
package data

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/born-ml/lle/internal/tensor"
)

// Common errors.
var (
	ErrLengthMismatch = errors.New("inputs and targets must have the same length")
	ErrEmptyDataset   = errors.New("dataset has no examples")
)

// Dataset is an ordered collection of (input, target) examples.
type Dataset struct {
	Inputs  []*tensor.Tensor
	Targets []*tensor.Tensor
}

// New creates a dataset, checking that inputs and targets pair up.
func New(inputs, targets []*tensor.Tensor) (*Dataset, error) {
	d := &Dataset{Inputs: inputs, Targets: targets}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// FromRows builds a dataset with one rank-1 input and one [1] target per row.
func FromRows(rows [][]float32, targets []float32) (*Dataset, error) {
	if len(rows) != len(targets) {
		return nil, fmt.Errorf("data.FromRows: %w: %d rows, %d targets", ErrLengthMismatch, len(rows), len(targets))
	}
	d := &Dataset{
		Inputs:  make([]*tensor.Tensor, len(rows)),
		Targets: make([]*tensor.Tensor, len(rows)),
	}
	for i, row := range rows {
		if len(row) != len(rows[0]) {
			return nil, fmt.Errorf("data.FromRows: row %d has %d features, want %d", i, len(row), len(rows[0]))
		}
		d.Inputs[i] = tensor.New(row)
		d.Targets[i] = tensor.Scalar(targets[i])
	}
	return d, nil
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Inputs)
}

// CheckPairs checks that the dataset is non-empty and that inputs and
// targets have the same length. Entries may differ in shape, as they do
// in a dataset of pre-built batches.
func (d *Dataset) CheckPairs() error {
	if d.Len() == 0 {
		return ErrEmptyDataset
	}
	if len(d.Inputs) != len(d.Targets) {
		return fmt.Errorf("%w: %d inputs, %d targets", ErrLengthMismatch, len(d.Inputs), len(d.Targets))
	}
	return nil
}

// Validate runs CheckPairs and additionally requires every example to
// match the shape of the first one.
func (d *Dataset) Validate() error {
	if err := d.CheckPairs(); err != nil {
		return err
	}
	in, tg := d.Inputs[0].Shape(), d.Targets[0].Shape()
	for i := range d.Inputs {
		if !d.Inputs[i].Shape().Equal(in) {
			return &tensor.ShapeError{Op: "Dataset.Validate", Left: d.Inputs[i].Shape(), Right: in,
				Msg: fmt.Sprintf("input %d differs from the first example", i)}
		}
		if !d.Targets[i].Shape().Equal(tg) {
			return &tensor.ShapeError{Op: "Dataset.Validate", Left: d.Targets[i].Shape(), Right: tg,
				Msg: fmt.Sprintf("target %d differs from the first example", i)}
		}
	}
	return nil
}

// Split partitions the dataset in order: the first fraction of the examples
// goes to train, the rest to val. Tensors are shared, not copied.
func (d *Dataset) Split(fraction float64) (train, val *Dataset) {
	n := int(float64(d.Len()) * fraction)
	n = max(0, min(n, d.Len()))
	train = &Dataset{Inputs: d.Inputs[:n], Targets: d.Targets[:n]}
	val = &Dataset{Inputs: d.Inputs[n:], Targets: d.Targets[n:]}
	return train, val
}

// Subset returns the examples at indices, in that order.
func (d *Dataset) Subset(indices []int) *Dataset {
	s := &Dataset{
		Inputs:  make([]*tensor.Tensor, len(indices)),
		Targets: make([]*tensor.Tensor, len(indices)),
	}
	for i, idx := range indices {
		s.Inputs[i] = d.Inputs[idx]
		s.Targets[i] = d.Targets[idx]
	}
	return s
}

// Stack copies same-shaped tensors into one tensor of shape
// [len(ts), ...shape].
func Stack(ts []*tensor.Tensor) (*tensor.Tensor, error) {
	if len(ts) == 0 {
		return nil, ErrEmptyDataset
	}
	shape := ts[0].Shape()
	per := shape.NumElements()
	buf := make([]float32, 0, per*len(ts))
	for i, t := range ts {
		if !t.Shape().Equal(shape) {
			return nil, &tensor.ShapeError{Op: "Stack", Left: t.Shape(), Right: shape,
				Msg: fmt.Sprintf("element %d differs from the first element", i)}
		}
		buf = append(buf, t.Data()...)
	}
	return tensor.New(buf, append([]int{len(ts)}, shape...)...), nil
}

// Load reads a dataset, choosing the loader by file extension: .csv, .json
// or .npz.
func Load(path string) (*Dataset, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return LoadCSV(path)
	case ".json":
		return LoadJSON(path)
	case ".npz":
		return LoadNPZ(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (want .csv, .json or .npz)", ext)
	}
}
