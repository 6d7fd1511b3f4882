// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/lle/internal/tensor"
)

// Tensor is a dense float32 tensor with a row-major layout.
type Tensor = tensor.Tensor

// Shape represents tensor dimensions.
type Shape = tensor.Shape

// ShapeError reports a rank or dimension mismatch in a tensor operation.
type ShapeError = tensor.ShapeError

// New creates a tensor that takes ownership of data.
// Panics with a *ShapeError if len(data) does not match the shape.
func New(data []float32, shape ...int) *Tensor {
	return tensor.New(data, shape...)
}

// FromSlice creates a tensor from a copy of data.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Zeros creates a zero-filled tensor.
func Zeros(shape ...int) *Tensor {
	return tensor.Zeros(shape...)
}

// Ones creates a tensor filled with ones.
func Ones(shape ...int) *Tensor {
	return tensor.Ones(shape...)
}

// Full creates a tensor with every element set to value.
func Full(value float32, shape ...int) *Tensor {
	return tensor.Full(value, shape...)
}

// Scalar creates a rank-1 tensor holding a single value.
func Scalar(value float32) *Tensor {
	return tensor.Scalar(value)
}

// Uniform creates a tensor with values drawn uniformly from [low, high).
func Uniform(rng *rand.Rand, low, high float32, shape ...int) *Tensor {
	return tensor.Uniform(rng, low, high, shape...)
}

// Guard runs fn and returns the error carried by a panic, if any.
func Guard(fn func()) error {
	return tensor.Guard(fn)
}

// IsShapeError reports whether err wraps a *ShapeError.
func IsShapeError(err error) bool {
	return tensor.IsShapeError(err)
}
