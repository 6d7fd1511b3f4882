// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the dense float32 tensor used
// throughout the engine.
//
// The package exposes:
//   - Tensor: contiguous row-major float32 buffer with a shape
//   - Shape: ordered dimension sizes
//   - ShapeError: rank or dimension mismatch reported by operations
//   - Guard: converts ShapeError panics into returned errors
//
// Example:
//
//	a := tensor.New([]float32{1, 2, 3, 4}, 2, 2)
//	b := a.Transpose()
//	c := a.MatMul(b) // [2 2]
//
//	err := tensor.Guard(func() {
//	    a.MatMul(tensor.Zeros(3, 3)) // inner dimensions disagree
//	})
package tensor
