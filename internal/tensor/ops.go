package tensor

import (
	"github.com/born-ml/lle/internal/parallel"
	"github.com/chewxy/math32"
)

// Element-wise operations never broadcast: tensor-tensor variants require
// identical element counts and the result keeps the receiver's shape.

func (t *Tensor) checkSameSize(op string, other *Tensor) {
	if len(t.data) != len(other.data) {
		panic(shapeErr(op, t.shape, other.shape, "element counts differ (%d vs %d)", len(t.data), len(other.data)))
	}
}

func (t *Tensor) like() *Tensor {
	return &Tensor{data: make([]float32, len(t.data)), shape: t.shape.Clone()}
}

// Add returns t + other element-wise.
func (t *Tensor) Add(other *Tensor) *Tensor {
	t.checkSameSize("Add", other)
	out := t.like()
	for i, v := range t.data {
		out.data[i] = v + other.data[i]
	}
	return out
}

// AddScalar returns t + s.
func (t *Tensor) AddScalar(s float32) *Tensor {
	out := t.like()
	for i, v := range t.data {
		out.data[i] = v + s
	}
	return out
}

// Sub returns t - other element-wise.
func (t *Tensor) Sub(other *Tensor) *Tensor {
	t.checkSameSize("Sub", other)
	out := t.like()
	for i, v := range t.data {
		out.data[i] = v - other.data[i]
	}
	return out
}

// Mul returns t * other element-wise.
func (t *Tensor) Mul(other *Tensor) *Tensor {
	t.checkSameSize("Mul", other)
	out := t.like()
	for i, v := range t.data {
		out.data[i] = v * other.data[i]
	}
	return out
}

// MulScalar returns t * s.
func (t *Tensor) MulScalar(s float32) *Tensor {
	out := t.like()
	for i, v := range t.data {
		out.data[i] = v * s
	}
	return out
}

// AddInPlace accumulates other into t and returns t.
func (t *Tensor) AddInPlace(other *Tensor) *Tensor {
	t.checkSameSize("AddInPlace", other)
	for i, v := range other.data {
		t.data[i] += v
	}
	return t
}

// Apply returns a new tensor with fn applied to every element.
func (t *Tensor) Apply(fn func(float32) float32) *Tensor {
	out := t.like()
	for i, v := range t.data {
		out.data[i] = fn(v)
	}
	return out
}

// Sqrt returns the element-wise square root.
func (t *Tensor) Sqrt() *Tensor {
	return t.Apply(math32.Sqrt)
}

// Tanh returns the element-wise hyperbolic tangent.
func (t *Tensor) Tanh() *Tensor {
	return t.Apply(math32.Tanh)
}

// Exp returns the element-wise exponential.
func (t *Tensor) Exp() *Tensor {
	return t.Apply(math32.Exp)
}

// MatMul computes the matrix product of two rank-2 tensors: [m,k] x [k,n] -> [m,n].
func (t *Tensor) MatMul(other *Tensor) *Tensor {
	if len(t.shape) != 2 || len(other.shape) != 2 {
		panic(shapeErr("MatMul", t.shape, other.shape, "requires rank-2 operands"))
	}
	m, k := t.shape[0], t.shape[1]
	k2, n := other.shape[0], other.shape[1]
	if k != k2 {
		panic(shapeErr("MatMul", t.shape, other.shape, "inner dimensions differ (%d vs %d)", k, k2))
	}
	out := make([]float32, m*n)
	parallel.For(m, func(i int) {
		row := t.data[i*k : (i+1)*k]
		dst := out[i*n : (i+1)*n]
		for l, a := range row {
			if a == 0 {
				continue
			}
			src := other.data[l*n : (l+1)*n]
			for j, b := range src {
				dst[j] += a * b
			}
		}
	}, parallel.DefaultConfig().WithCost(k*n))
	return &Tensor{data: out, shape: Shape{m, n}}
}

// Transpose swaps the two axes of a rank-2 tensor.
func (t *Tensor) Transpose() *Tensor {
	if len(t.shape) != 2 {
		panic(shapeErr("Transpose", t.shape, nil, "requires a rank-2 tensor"))
	}
	m, n := t.shape[0], t.shape[1]
	out := make([]float32, m*n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			out[j*m+i] = t.data[i*n+j]
		}
	}
	return &Tensor{data: out, shape: Shape{n, m}}
}

// Sum reduces every element to a single-element tensor of shape [1].
func (t *Tensor) Sum() *Tensor {
	var s float32
	for _, v := range t.data {
		s += v
	}
	return Scalar(s)
}

// SumAxis0 reduces a rank-2 tensor over its first axis: [m,n] -> [n].
func (t *Tensor) SumAxis0() *Tensor {
	if len(t.shape) != 2 {
		panic(shapeErr("SumAxis0", t.shape, nil, "requires a rank-2 tensor"))
	}
	m, n := t.shape[0], t.shape[1]
	out := make([]float32, n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			out[j] += t.data[i*n+j]
		}
	}
	return &Tensor{data: out, shape: Shape{n}}
}

// Mean returns the arithmetic mean of all elements.
func (t *Tensor) Mean() float32 {
	if len(t.data) == 0 {
		return 0
	}
	return t.Sum().data[0] / float32(len(t.data))
}

// Slice copies the flat index range [start, end) into a new rank-1 tensor.
// The caller reinterprets the shape afterwards.
func (t *Tensor) Slice(start, end int) *Tensor {
	if start < 0 || end > len(t.data) || start > end {
		panic(shapeErr("Slice", t.shape, nil, "range [%d,%d) outside %d elements", start, end, len(t.data)))
	}
	out := make([]float32, end-start)
	copy(out, t.data[start:end])
	return &Tensor{data: out, shape: Shape{end - start}}
}

// Equal reports whether both tensors have the same shape and identical values.
func (t *Tensor) Equal(other *Tensor) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i, v := range t.data {
		if v != other.data[i] {
			return false
		}
	}
	return true
}
