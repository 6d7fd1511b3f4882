package nn

import (
	"math/rand"
	"testing"

	"github.com/born-ml/lle/internal/tensor"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
)

// randomTensor fills a tensor with values from U(-1, 1) using a fixed seed.
func randomTensor(seed int64, shape ...int) *tensor.Tensor {
	return tensor.Uniform(rand.New(rand.NewSource(seed)), -1, 1, shape...)
}

// projectedLoss reduces out to a scalar as sum(out * proj), whose gradient
// with respect to out is proj.
func projectedLoss(out, proj *tensor.Tensor) float64 {
	var s float64
	for i, v := range out.Data() {
		s += float64(v) * float64(proj.Data()[i])
	}
	return s
}

func toFloat64(src []float32) []float64 {
	dst := make([]float64, len(src))
	for i, v := range src {
		dst[i] = float64(v)
	}
	return dst
}

var gradSettings = &fd.Settings{Formula: fd.Central, Step: 1e-2}

// fineGradSettings uses a smaller step for layers with ReLU kinks, where
// the default step straddles zero crossings too often.
var fineGradSettings = &fd.Settings{Formula: fd.Central, Step: 1e-3}

// checkInputGrad compares layer.Backward against a central-difference
// estimate of d sum(out*proj) / d input.
func checkInputGrad(t *testing.T, layer Layer, input *tensor.Tensor, tol float64) {
	t.Helper()
	checkInputGradWith(t, layer, input, tol, gradSettings)
}

func checkInputGradWith(t *testing.T, layer Layer, input *tensor.Tensor, tol float64, settings *fd.Settings) {
	t.Helper()

	out, cache := layer.Forward(input)
	proj := randomTensor(99, out.Shape()...)
	analytic := layer.Backward(cache, proj)
	require.True(t, analytic.Shape().Equal(input.Shape()), "input gradient shape %v, want %v", analytic.Shape(), input.Shape())

	f := func(x []float64) float64 {
		perturbed := tensor.Zeros(input.Shape()...)
		for i, v := range x {
			perturbed.Data()[i] = float32(v)
		}
		y, _ := layer.Forward(perturbed)
		return projectedLoss(y, proj)
	}
	numeric := fd.Gradient(nil, f, toFloat64(input.Data()), settings)

	for i, want := range numeric {
		require.InDelta(t, want, float64(analytic.Data()[i]), tol, "input gradient mismatch at %d", i)
	}
}

// checkParamGrads compares every parameter gradient written by Backward
// against a central-difference estimate.
func checkParamGrads(t *testing.T, layer Layer, input *tensor.Tensor, tol float64) {
	t.Helper()
	checkParamGradsWith(t, layer, input, tol, gradSettings)
}

func checkParamGradsWith(t *testing.T, layer Layer, input *tensor.Tensor, tol float64, settings *fd.Settings) {
	t.Helper()

	out, cache := layer.Forward(input)
	proj := randomTensor(98, out.Shape()...)
	layer.Backward(cache, proj)

	for _, p := range layer.Parameters() {
		require.NotNil(t, p.Grad(), "parameter %s has no gradient", p.Name())
		analytic := p.Grad().Clone()
		data := p.Tensor().Data()
		orig := append([]float32(nil), data...)

		f := func(x []float64) float64 {
			for i, v := range x {
				data[i] = float32(v)
			}
			y, _ := layer.Forward(input)
			return projectedLoss(y, proj)
		}
		numeric := fd.Gradient(nil, f, toFloat64(orig), settings)
		copy(data, orig)

		for i, want := range numeric {
			require.InDelta(t, want, float64(analytic.Data()[i]), tol, "%s gradient mismatch at %d", p.Name(), i)
		}
	}
}
