// Package tensor implements the dense float32 tensor used by every layer,
// loss and optimizer of the engine.
//
// A Tensor owns a contiguous row-major buffer and a shape. The buffer length
// always equals the product of the shape; operations that change the shape
// either repack the data into a new tensor or, for Reshape, verify the element
// count before reassigning the shape in place.
//
// Rank-sensitive operations (MatMul, Transpose, SumAxis0, Reshape and the
// tensor-tensor element-wise operations) panic with a *ShapeError on
// incompatible operands. Use Guard to recover them as errors.
package tensor

import (
	"fmt"
	"math/rand"
)

// Tensor is a dense float32 tensor with a row-major layout.
//
// Example:
//
//	a := tensor.New([]float32{1, 2, 3, 4}, 2, 2)
//	b := a.Transpose()
//	c := a.MatMul(b) // shape [2 2]
type Tensor struct {
	data  []float32
	shape Shape
}

// New creates a tensor that takes ownership of data.
//
// Panics with a *ShapeError if len(data) does not match the shape.
// A call without dimensions produces a rank-1 tensor of len(data).
func New(data []float32, shape ...int) *Tensor {
	s := Shape(shape)
	if len(shape) == 0 {
		s = Shape{len(data)}
	}
	if s.NumElements() != len(data) {
		panic(shapeErr("New", s, nil, "shape requires %d elements, got %d", s.NumElements(), len(data)))
	}
	return &Tensor{data: data, shape: s.Clone()}
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	buf := make([]float32, len(data))
	copy(buf, data)
	return &Tensor{data: buf, shape: shape.Clone()}, nil
}

// Zeros creates a zero-filled tensor.
func Zeros(shape ...int) *Tensor {
	s := Shape(shape)
	return &Tensor{data: make([]float32, s.NumElements()), shape: s.Clone()}
}

// ZerosLike creates a zero-filled tensor with the shape of t.
func ZerosLike(t *Tensor) *Tensor {
	return Zeros(t.shape...)
}

// Full creates a tensor with every element set to value.
func Full(value float32, shape ...int) *Tensor {
	t := Zeros(shape...)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// Ones creates a tensor filled with ones.
func Ones(shape ...int) *Tensor {
	return Full(1, shape...)
}

// Scalar creates a rank-1 tensor holding a single value.
func Scalar(value float32) *Tensor {
	return &Tensor{data: []float32{value}, shape: Shape{1}}
}

// Uniform creates a tensor with values drawn uniformly from [low, high).
func Uniform(rng *rand.Rand, low, high float32, shape ...int) *Tensor {
	t := Zeros(shape...)
	for i := range t.data {
		t.data[i] = low + (high-low)*rng.Float32()
	}
	return t
}

// Data returns the underlying buffer. Writes are visible to the tensor.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// Dim returns the size of dimension i. Negative indices count from the end.
func (t *Tensor) Dim(i int) int {
	if i < 0 {
		i += len(t.shape)
	}
	return t.shape[i]
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Item returns the first element. Intended for scalar tensors.
func (t *Tensor) Item() float32 {
	return t.data[0]
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	buf := make([]float32, len(t.data))
	copy(buf, t.data)
	return &Tensor{data: buf, shape: t.shape.Clone()}
}

// View returns a tensor sharing t's buffer with a different shape.
//
// Panics with a *ShapeError if the element counts differ.
func (t *Tensor) View(shape ...int) *Tensor {
	s := Shape(shape)
	if s.NumElements() != len(t.data) {
		panic(shapeErr("View", t.shape, s, "element count mismatch"))
	}
	return &Tensor{data: t.data, shape: s.Clone()}
}

// Reshape reassigns the shape in place and returns the receiver.
//
// Panics with a *ShapeError if the element counts differ.
func (t *Tensor) Reshape(shape ...int) *Tensor {
	s := Shape(shape)
	if s.NumElements() != len(t.data) {
		panic(shapeErr("Reshape", t.shape, s, "cannot reshape %d elements", len(t.data)))
	}
	t.shape = s.Clone()
	return t
}

// CopyFrom overwrites t's data with src's data.
//
// Panics with a *ShapeError if the element counts differ.
func (t *Tensor) CopyFrom(src *Tensor) {
	if len(src.data) != len(t.data) {
		panic(shapeErr("CopyFrom", t.shape, src.shape, "element count mismatch"))
	}
	copy(t.data, src.data)
}

// String implements fmt.Stringer.
func (t *Tensor) String() string {
	if len(t.data) > 8 {
		return fmt.Sprintf("Tensor(shape=%v, data=%v ...)", t.shape, t.data[:8])
	}
	return fmt.Sprintf("Tensor(shape=%v, data=%v)", t.shape, t.data)
}
