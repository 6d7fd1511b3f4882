package nn

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/born-ml/lle/internal/tensor"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDense_ForwardShapes(t *testing.T) {
	d := NewDense(3, 2)

	out, _ := d.Forward(tensor.Ones(3))
	assert.Equal(t, tensor.Shape{2}, out.Shape())

	out, _ = d.Forward(tensor.Ones(4, 3))
	assert.Equal(t, tensor.Shape{4, 2}, out.Shape())

	out, _ = d.Forward(tensor.Ones(2, 5, 3))
	assert.Equal(t, tensor.Shape{2, 5, 2}, out.Shape())

	assert.Panics(t, func() { d.Forward(tensor.Ones(4, 2)) })
}

func TestDense_KnownValues(t *testing.T) {
	d := NewDense(2, 1)
	d.Weight().Tensor().CopyFrom(tensor.New([]float32{2, 3}, 2, 1))
	d.Bias().Tensor().CopyFrom(tensor.New([]float32{1}, 1))

	out, cache := d.Forward(tensor.New([]float32{1, 1, 2, 0}, 2, 2))
	assert.Equal(t, []float32{6, 5}, out.Data())

	dx := d.Backward(cache, tensor.New([]float32{1, 1}, 2, 1))
	assert.Equal(t, []float32{2, 3, 2, 3}, dx.Data())
	assert.Equal(t, []float32{3, 1}, d.Weight().Grad().Data())
	assert.Equal(t, []float32{2}, d.Bias().Grad().Data())
}

func TestDense_Gradients(t *testing.T) {
	d := NewDense(3, 4)
	x := randomTensor(1, 2, 3)
	checkInputGrad(t, d, x, 1e-2)
	checkParamGrads(t, d, x, 1e-2)
}

func TestActivations_Gradients(t *testing.T) {
	x := randomTensor(2, 3, 4)
	checkInputGrad(t, NewSigmoid(), x, 1e-2)
	checkInputGrad(t, NewTanh(), x, 1e-2)
}

func TestReLU_MasksNegative(t *testing.T) {
	r := NewReLU()
	out, cache := r.Forward(tensor.New([]float32{-1, 0, 2}, 3))
	assert.Equal(t, []float32{0, 0, 2}, out.Data())

	dx := r.Backward(cache, tensor.New([]float32{5, 5, 5}, 3))
	assert.Equal(t, []float32{0, 0, 5}, dx.Data())
}

func TestSoftmax_RowsSumToOne(t *testing.T) {
	s := NewSoftmax()
	out, cache := s.Forward(tensor.New([]float32{1, 2, 3, 1000, 1000, 1000}, 2, 3))

	for r := 0; r < 2; r++ {
		var sum float32
		for _, v := range out.Data()[r*3 : (r+1)*3] {
			sum += v
			assert.False(t, math32.IsNaN(v))
		}
		assert.InDelta(t, 1.0, sum, 1e-5)
	}

	grad := tensor.Ones(2, 3)
	assert.Same(t, grad, s.Backward(cache, grad))
}

func TestLinear_Identity(t *testing.T) {
	x := tensor.New([]float32{1, -2}, 2)
	out, cache := NewLinear().Forward(x)
	assert.Equal(t, x.Data(), out.Data())
	assert.Equal(t, x.Data(), NewLinear().Backward(cache, x).Data())
}

func TestDropout_EvalIsIdentity(t *testing.T) {
	d := NewDropout(0.5)
	d.SetTraining(false)

	x := randomTensor(3, 10, 10)
	out, cache := d.Forward(x)
	assert.Equal(t, x.Data(), out.Data())
	assert.Equal(t, x.Data(), d.Backward(cache, x).Data())
}

func TestDropout_TrainingZeroesSome(t *testing.T) {
	Seed(7)
	d := NewDropout(0.5)

	out, cache := d.Forward(tensor.Ones(100))
	zeros := 0
	for _, v := range out.Data() {
		if v == 0 {
			zeros++
		} else {
			assert.InDelta(t, 2.0, v, 1e-6)
		}
	}
	assert.Greater(t, zeros, 0)
	assert.Less(t, zeros, 100)

	dx := d.Backward(cache, tensor.Ones(100))
	assert.Equal(t, out.Data(), dx.Data())
}

func TestBatchNormalization_NormalizesBatch(t *testing.T) {
	bn := NewBatchNormalization(3)
	x := tensor.New([]float32{
		1, 10, -5,
		2, 20, 0,
		3, 30, 5,
		4, 40, 10,
	}, 4, 3)

	out, _ := bn.Forward(x)
	for f := 0; f < 3; f++ {
		var mean, variance float32
		for b := 0; b < 4; b++ {
			mean += out.Data()[b*3+f]
		}
		mean /= 4
		for b := 0; b < 4; b++ {
			d := out.Data()[b*3+f] - mean
			variance += d * d
		}
		variance /= 4
		assert.InDelta(t, 0.0, mean, 1e-5, "feature %d mean", f)
		assert.InDelta(t, 1.0, variance, 1e-3, "feature %d variance", f)
	}

	// running = 0.9*running + 0.1*batch
	assert.InDelta(t, 0.25, bn.RunningMean()[0], 1e-6)
	assert.InDelta(t, 0.9+0.1*1.25, bn.RunningVar()[0], 1e-5)
}

func TestBatchNormalization_EvalUsesRunningStats(t *testing.T) {
	bn := NewBatchNormalizationWithConfig(BatchNormConfig{
		Size:        2,
		RunningMean: []float32{1, 2},
		RunningVar:  []float32{4, 9},
		Epsilon:     1e-12,
	})
	bn.SetTraining(false)

	out, _ := bn.Forward(tensor.New([]float32{3, 8}, 1, 2))
	assert.InDeltaSlice(t, []float32{1, 2}, out.Data(), 1e-5)
}

func TestBatchNormalization_Gradients(t *testing.T) {
	x := randomTensor(4, 5, 3)
	checkInputGrad(t, NewBatchNormalization(3), x, 2e-2)
	checkParamGrads(t, NewBatchNormalization(3), x, 2e-2)

	img := randomTensor(5, 2, 2, 3, 3)
	checkInputGrad(t, NewBatchNormalization(2), img, 2e-2)
}

func TestConv2D_Shapes(t *testing.T) {
	c := NewConv2D(1, 6, 5)
	out, _ := c.Forward(tensor.Zeros(2, 1, 28, 28))
	assert.Equal(t, tensor.Shape{2, 6, 24, 24}, out.Shape())
	assert.Equal(t, tensor.Shape{6, 1, 5, 5}, c.Parameters()[0].Shape())

	assert.Panics(t, func() { c.Forward(tensor.Zeros(2, 3, 28, 28)) })
	assert.Panics(t, func() { c.Forward(tensor.Zeros(1, 28, 28)) })
}

func TestConv2D_Gradients(t *testing.T) {
	c := NewConv2D(2, 3, 2)
	x := randomTensor(6, 2, 2, 4, 4)
	checkInputGrad(t, c, x, 1e-2)
	checkParamGrads(t, c, x, 1e-2)
}

func TestFlatten_RoundTrip(t *testing.T) {
	f := NewFlatten()
	out, cache := f.Forward(tensor.Zeros(2, 3, 4, 5))
	assert.Equal(t, tensor.Shape{2, 60}, out.Shape())
	assert.Equal(t, tensor.Shape{2, 3, 4, 5}, f.Backward(cache, out).Shape())

	vec, _ := f.Forward(tensor.Zeros(7))
	assert.Equal(t, tensor.Shape{7}, vec.Shape())
}

func TestRNN_Gradients(t *testing.T) {
	r := NewRNN(3, 4)
	x := randomTensor(7, 2, 5, 3)

	out, _ := r.Forward(x)
	assert.Equal(t, tensor.Shape{2, 5, 4}, out.Shape())

	checkInputGrad(t, r, x, 1e-2)
	checkParamGrads(t, r, x, 1e-2)
}

func TestRNN_StepsAreBatchMajor(t *testing.T) {
	r := NewRNN(1, 1)
	r.Parameters()[0].Tensor().CopyFrom(tensor.New([]float32{1}, 1, 1))
	r.Parameters()[1].Tensor().CopyFrom(tensor.New([]float32{0}, 1, 1))

	// Two sequences [0.1, 0.2] and [0.3, 0.4]; with Whh = 0, h_t = tanh(x_t).
	out, _ := r.Forward(tensor.New([]float32{0.1, 0.2, 0.3, 0.4}, 2, 2, 1))
	want := []float32{math32.Tanh(0.1), math32.Tanh(0.2), math32.Tanh(0.3), math32.Tanh(0.4)}
	assert.InDeltaSlice(t, want, out.Data(), 1e-6)
}

func TestEmbedding_LookupAndScatter(t *testing.T) {
	e := NewEmbedding(4, 2)
	e.Weight().Tensor().CopyFrom(tensor.New([]float32{0, 0, 1, 1, 2, 2, 3, 3}, 4, 2))

	out, cache := e.Forward(tensor.New([]float32{3, 1, 1}, 1, 3))
	assert.Equal(t, tensor.Shape{1, 3, 2}, out.Shape())
	assert.Equal(t, []float32{3, 3, 1, 1, 1, 1}, out.Data())

	dx := e.Backward(cache, tensor.Ones(1, 3, 2))
	assert.Equal(t, tensor.Shape{1, 3}, dx.Shape())
	assert.Equal(t, []float32{0, 0, 2, 2, 0, 0, 1, 1}, e.Weight().Grad().Data())

	single, _ := e.Forward(tensor.New([]float32{0, 2}, 2))
	assert.Equal(t, tensor.Shape{1, 2, 2}, single.Shape())
}

func TestEmbedding_OutOfRange(t *testing.T) {
	e := NewEmbedding(4, 2)
	for _, idx := range []float32{4, -1, 1.5, 1e20, -1e20, math32.NaN()} {
		err := tensor.Guard(func() { e.Forward(tensor.New([]float32{idx}, 1, 1)) })
		var be *BoundsError
		require.ErrorAs(t, err, &be, "index %v", idx)
		assert.Equal(t, 4, be.Limit)
	}
}

func TestSelfAttention_Gradients(t *testing.T) {
	a := NewSelfAttention(4)
	x := randomTensor(8, 2, 3, 4)

	out, _ := a.Forward(x)
	assert.Equal(t, tensor.Shape{2, 3, 4}, out.Shape())

	checkInputGrad(t, a, x, 1e-2)
	checkParamGrads(t, a, x, 1e-2)
}

func TestTransformerBlock_BackwardReachesEveryParameter(t *testing.T) {
	tb := NewTransformerBlock(4)
	x := randomTensor(9, 2, 3, 4)

	out, cache := tb.Forward(x)
	assert.Equal(t, x.Shape(), out.Shape())

	dx := tb.Backward(cache, randomTensor(12, 2, 3, 4))
	assert.Equal(t, x.Shape(), dx.Shape())

	params := tb.Parameters()
	assert.Len(t, params, 8+4+4)
	for _, p := range params {
		require.NotNil(t, p.Grad(), p.Name())
		assert.Equal(t, p.Shape(), p.Grad().Shape(), p.Name())
	}
}

func TestTransformerBlock_Gradients(t *testing.T) {
	Seed(21)
	tb := NewTransformerBlock(4)
	tb.SetTraining(false)
	x := randomTensor(22, 2, 3, 4)

	checkInputGradWith(t, tb, x, 3e-2, fineGradSettings)
	checkParamGradsWith(t, tb, x, 3e-2, fineGradSettings)
}

func TestGlobalAveragePooling1D(t *testing.T) {
	p := NewGlobalAveragePooling1D()
	x := tensor.New([]float32{1, 2, 3, 4, 5, 6}, 1, 3, 2)

	out, cache := p.Forward(x)
	assert.Equal(t, tensor.Shape{1, 2}, out.Shape())
	assert.Equal(t, []float32{3, 4}, out.Data())

	dx := p.Backward(cache, tensor.New([]float32{3, 6}, 1, 2))
	assert.Equal(t, []float32{1, 2, 1, 2, 1, 2}, dx.Data())

	checkInputGrad(t, p, randomTensor(10, 2, 4, 3), 1e-2)
}

func TestResidualBlock_SkipOnlyWhenShapesMatch(t *testing.T) {
	same := NewResidualBlock(2, 1)
	same.SetTraining(false)
	for _, p := range same.Parameters() {
		if p.Name() == "conv2d.weight" {
			p.Tensor().CopyFrom(tensor.ZerosLike(p.Tensor()))
		}
	}

	// With zero kernels the inner path vanishes and y = ReLU(x), so the
	// input gradient is the skip gradient alone.
	x := tensor.New([]float32{-1, 2, 3, -4, 5, -6, 7, 8}, 1, 2, 2, 2)
	out, cache := same.Forward(x)
	assert.Equal(t, []float32{0, 2, 3, 0, 5, 0, 7, 8}, out.Data())

	dx := same.Backward(cache, tensor.Ones(1, 2, 2, 2))
	assert.Equal(t, []float32{0, 1, 1, 0, 1, 0, 1, 1}, dx.Data())

	shrinking := NewResidualBlock(2, 2)
	out, cache = shrinking.Forward(randomTensor(11, 1, 2, 3, 3))
	assert.Equal(t, tensor.Shape{1, 2, 1, 1}, out.Shape())
	assert.False(t, cache.(*residualCache).skip)
}

func TestResidualBlock_Gradients(t *testing.T) {
	Seed(31)
	rb := NewResidualBlock(2, 1)
	x := randomTensor(32, 2, 2, 2, 2)

	checkInputGradWith(t, rb, x, 3e-2, fineGradSettings)
	checkParamGradsWith(t, rb, x, 3e-2, fineGradSettings)
}

func TestCompositeConfig_RestoresNormStatistics(t *testing.T) {
	rb := NewResidualBlock(2, 1)
	for range 3 {
		rb.Forward(randomTensor(33, 4, 2, 2, 2))
	}
	raw, err := json.Marshal(rb.Config())
	require.NoError(t, err)

	layer, err := DefaultRegistry().Build("residual_block", raw)
	require.NoError(t, err)
	rebuilt := layer.(*ResidualBlock)
	assert.Equal(t, rb.bn1.snapshot(), rebuilt.bn1.snapshot())
	assert.Equal(t, rb.bn2.snapshot(), rebuilt.bn2.snapshot())

	_, err = DefaultRegistry().Build("transformer_block",
		json.RawMessage(`{"embedSize": 4, "norm1": {"size": 3}}`))
	require.Error(t, err)
	_, err = DefaultRegistry().Build("residual_block",
		json.RawMessage(`{"channels": 2, "norm2": {"size": 2, "runningMean": [0]}}`))
	require.Error(t, err)
}

func TestBackward_RejectsForeignCache(t *testing.T) {
	_, cache := NewReLU().Forward(tensor.Ones(2))
	err := tensor.Guard(func() { NewDense(2, 2).Backward(cache, tensor.Ones(2)) })
	assert.True(t, errors.Is(err, ErrCacheMismatch))
}
