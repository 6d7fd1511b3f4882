package tensor

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ShapeMismatchPanics(t *testing.T) {
	err := Guard(func() { New([]float32{1, 2, 3}, 2, 2) })
	require.Error(t, err)
	assert.True(t, IsShapeError(err))
}

func TestNew_DefaultsToRankOne(t *testing.T) {
	x := New([]float32{1, 2, 3})
	assert.Equal(t, Shape{3}, x.Shape())
}

func TestFromSlice_CopiesData(t *testing.T) {
	src := []float32{1, 2, 3, 4}
	x, err := FromSlice(src, Shape{2, 2})
	require.NoError(t, err)
	src[0] = 100
	assert.Equal(t, float32(1), x.Data()[0])

	_, err = FromSlice(src, Shape{3})
	assert.Error(t, err)
}

func TestAddMulScalar(t *testing.T) {
	a := New([]float32{1, 2, 3, 4}, 2, 2)
	b := New([]float32{10, 20, 30, 40}, 4)

	sum := a.Add(b)
	assert.Equal(t, Shape{2, 2}, sum.Shape(), "result keeps the left operand's shape")
	assert.Equal(t, []float32{11, 22, 33, 44}, sum.Data())

	assert.Equal(t, []float32{2, 4, 6, 8}, a.MulScalar(2).Data())
	assert.Equal(t, []float32{1.5, 2.5, 3.5, 4.5}, a.AddScalar(0.5).Data())
	assert.Equal(t, []float32{10, 40, 90, 160}, a.Mul(b).Data())
	assert.Equal(t, []float32{-9, -18, -27, -36}, a.Sub(b).Data())
}

func TestElementwise_SizeMismatch(t *testing.T) {
	a := Zeros(2, 2)
	b := Zeros(3)
	for name, fn := range map[string]func(){
		"add": func() { a.Add(b) },
		"mul": func() { a.Mul(b) },
		"sub": func() { a.Sub(b) },
	} {
		err := Guard(fn)
		assert.True(t, IsShapeError(err), name)
	}
}

func TestMatMul(t *testing.T) {
	a := New([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := New([]float32{7, 8, 9, 10, 11, 12}, 3, 2)

	c := a.MatMul(b)
	assert.Equal(t, Shape{2, 2}, c.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, c.Data())
}

func TestMatMul_RejectsIncompatible(t *testing.T) {
	a := Zeros(2, 3)
	b := Zeros(2, 3)

	err := Guard(func() { a.MatMul(b) })
	require.Error(t, err)
	var se *ShapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "MatMul", se.Op)

	err = Guard(func() { Zeros(6).MatMul(Zeros(6, 1)) })
	assert.True(t, IsShapeError(err), "rank-1 operands are rejected")
}

func TestTranspose_Involution(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, shape := range []Shape{{1, 1}, {1, 5}, {4, 3}, {7, 2}} {
		a := Uniform(rng, -1, 1, shape...)
		back := a.Transpose().Transpose()
		assert.True(t, a.Equal(back), "shape %v", shape)
	}

	a := New([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	at := a.Transpose()
	assert.Equal(t, Shape{3, 2}, at.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, at.Data())

	assert.True(t, IsShapeError(Guard(func() { Zeros(2, 2, 2).Transpose() })))
}

func TestSum(t *testing.T) {
	a := New([]float32{1, 2, 3, 4, 5, 6}, 2, 3)

	total := a.Sum()
	assert.Equal(t, Shape{1}, total.Shape())
	assert.Equal(t, float32(21), total.Item())

	cols := a.SumAxis0()
	assert.Equal(t, Shape{3}, cols.Shape())
	assert.Equal(t, []float32{5, 7, 9}, cols.Data())

	assert.True(t, IsShapeError(Guard(func() { Zeros(3).SumAxis0() })))
}

func TestSliceAndReshape(t *testing.T) {
	a := New([]float32{0, 1, 2, 3, 4, 5}, 2, 3)

	s := a.Slice(2, 5)
	assert.Equal(t, Shape{3}, s.Shape())
	assert.Equal(t, []float32{2, 3, 4}, s.Data())
	s.Data()[0] = 99
	assert.Equal(t, float32(2), a.Data()[2], "slice copies")

	a.Reshape(3, 2)
	assert.Equal(t, Shape{3, 2}, a.Shape())

	err := Guard(func() { a.Reshape(4, 2) })
	assert.True(t, IsShapeError(err))
	assert.Equal(t, Shape{3, 2}, a.Shape(), "failed reshape leaves the shape intact")
}

func TestUnary(t *testing.T) {
	a := New([]float32{0, 1, 4, 9}, 4)
	if diff := cmp.Diff([]float32{0, 1, 2, 3}, a.Sqrt().Data(), cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("Sqrt mismatch (-want +got):\n%s", diff)
	}

	th := New([]float32{0, 100, -100}, 3).Tanh()
	if diff := cmp.Diff([]float32{0, 1, -1}, th.Data(), cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("Tanh mismatch (-want +got):\n%s", diff)
	}
}

func TestGuard_RepanicsNonErrors(t *testing.T) {
	assert.Panics(t, func() {
		_ = Guard(func() { panic("boom") })
	})
	assert.NoError(t, Guard(func() {}))
}
