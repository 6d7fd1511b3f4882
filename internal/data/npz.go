package data

import (
	"fmt"
	"strings"

	"github.com/born-ml/lle/internal/tensor"
	"github.com/sbinet/npyio/npz"
)

// Default array names looked up by LoadNPZ.
const (
	NPZInputs  = "x"
	NPZTargets = "y"
)

// LoadNPZ reads a dataset from a NumPy .npz archive holding an inputs array
// "x" of shape [N, ...] and a targets array "y" of shape [N] or [N, ...].
// Every leading index becomes one example; a rank-1 targets array yields
// [1] targets.
//
// Arrays may be stored as float32, float64, uint8, int32 or int64. numpy
// always writes C-order arrays, so the data is taken as row-major.
func LoadNPZ(path string) (*Dataset, error) {
	return LoadNPZArrays(path, NPZInputs, NPZTargets)
}

// LoadNPZArrays is LoadNPZ with explicit array names (e.g. "x_train",
// "y_train"). The ".npy" suffix is optional.
func LoadNPZArrays(path, inputs, targets string) (*Dataset, error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("while opening %s: %w", path, err)
	}
	defer func() { _ = r.Close() }()

	xs, err := readNPZExamples(r, inputs)
	if err != nil {
		return nil, err
	}
	ys, err := readNPZExamples(r, targets)
	if err != nil {
		return nil, err
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%s: %w: %d inputs, %d targets", path, ErrLengthMismatch, len(xs), len(ys))
	}
	return New(xs, ys)
}

func readNPZExamples(r *npz.Reader, name string) ([]*tensor.Tensor, error) {
	if !strings.HasSuffix(name, ".npy") {
		name += ".npy"
	}
	header := r.Header(name)
	if header == nil {
		return nil, fmt.Errorf("npz: array %q not found", name)
	}
	shape := header.Descr.Shape
	if len(shape) == 0 {
		return nil, fmt.Errorf("npz: array %q is a scalar", name)
	}

	values, err := readNPZValues(r, name, header.Descr.Type)
	if err != nil {
		return nil, err
	}

	exampleShape := []int{1}
	if len(shape) > 1 {
		exampleShape = append([]int(nil), shape[1:]...)
	}
	per := tensor.Shape(exampleShape).NumElements()
	if per*shape[0] != len(values) {
		return nil, fmt.Errorf("npz: array %q has %d values for shape %v", name, len(values), shape)
	}

	out := make([]*tensor.Tensor, shape[0])
	for i := range out {
		out[i] = tensor.New(values[i*per:(i+1)*per:(i+1)*per], exampleShape...)
	}
	return out, nil
}

// readNPZValues reads array name as float32 whatever its stored dtype.
func readNPZValues(r *npz.Reader, name, dtype string) ([]float32, error) {
	switch strings.TrimLeft(dtype, "<>|=") {
	case "f4":
		var raw []float32
		if err := r.Read(name, &raw); err != nil {
			return nil, fmt.Errorf("while reading %s: %w", name, err)
		}
		return raw, nil
	case "f8":
		var raw []float64
		if err := r.Read(name, &raw); err != nil {
			return nil, fmt.Errorf("while reading %s: %w", name, err)
		}
		return convert(raw), nil
	case "u1":
		var raw []uint8
		if err := r.Read(name, &raw); err != nil {
			return nil, fmt.Errorf("while reading %s: %w", name, err)
		}
		return convert(raw), nil
	case "i4":
		var raw []int32
		if err := r.Read(name, &raw); err != nil {
			return nil, fmt.Errorf("while reading %s: %w", name, err)
		}
		return convert(raw), nil
	case "i8":
		var raw []int64
		if err := r.Read(name, &raw); err != nil {
			return nil, fmt.Errorf("while reading %s: %w", name, err)
		}
		return convert(raw), nil
	default:
		return nil, fmt.Errorf("npz: array %q has unsupported dtype %q", name, dtype)
	}
}

func convert[T float64 | uint8 | int32 | int64](raw []T) []float32 {
	out := make([]float32, len(raw))
	for i, v := range raw {
		out[i] = float32(v)
	}
	return out
}
