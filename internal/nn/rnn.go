package nn

import (
	"github.com/born-ml/lle/internal/tensor"
)

// RNNConfig is the serialized configuration of an RNN layer.
type RNNConfig struct {
	InputSize  int `json:"inputSize"`
	HiddenSize int `json:"hiddenSize"`
}

// RNN is a single-layer Elman recurrent network with tanh activation.
//
// Input shape: [batch, seq_len, input_size]
// Output shape: [batch, seq_len, hidden_size]
//
// For every step t:
//
//	h_t = tanh(x_t @ Wxh + h_{t-1} @ Whh + bh),  h_0 = 0
//
// The output holds every hidden state. Backward runs full backpropagation
// through time.
type RNN struct {
	cfg RNNConfig
	wxh *Parameter // [input_size, hidden_size]
	whh *Parameter // [hidden_size, hidden_size]
	bh  *Parameter // [hidden_size]
}

type rnnCache struct {
	steps []*tensor.Tensor // x_t, each [batch, input_size]
	hs    []*tensor.Tensor // h_0 .. h_S, each [batch, hidden_size]
}

// NewRNN creates a new RNN layer.
func NewRNN(inputSize, hiddenSize int) *RNN {
	return &RNN{
		cfg: RNNConfig{InputSize: inputSize, HiddenSize: hiddenSize},
		wxh: NewParameter("rnn.wxh", Xavier(inputSize, hiddenSize, inputSize, hiddenSize)),
		whh: NewParameter("rnn.whh", Xavier(hiddenSize, hiddenSize, hiddenSize, hiddenSize)),
		bh:  NewParameter("rnn.bh", tensor.Zeros(hiddenSize)),
	}
}

// Type returns "rnn".
func (r *RNN) Type() string { return "rnn" }

// Config returns the layer configuration.
func (r *RNN) Config() any { return r.cfg }

// Forward unrolls the recurrence over the sequence axis.
func (r *RNN) Forward(input *tensor.Tensor) (*tensor.Tensor, Cache) {
	shape := input.Shape()
	if len(shape) != 3 || shape[2] != r.cfg.InputSize {
		panic(shapeMismatch("RNN.Forward", shape, "expected [batch, seq, %d]", r.cfg.InputSize))
	}
	batch, seq, in, hidden := shape[0], shape[1], shape[2], r.cfg.HiddenSize

	cache := &rnnCache{
		steps: make([]*tensor.Tensor, seq),
		hs:    make([]*tensor.Tensor, seq+1),
	}
	cache.hs[0] = tensor.Zeros(batch, hidden)

	out := tensor.Zeros(batch, seq, hidden)
	x, o := input.Data(), out.Data()
	for t := 0; t < seq; t++ {
		xt := tensor.Zeros(batch, in)
		xd := xt.Data()
		for b := 0; b < batch; b++ {
			copy(xd[b*in:(b+1)*in], x[(b*seq+t)*in:(b*seq+t+1)*in])
		}

		pre := xt.MatMul(r.wxh.Tensor()).AddInPlace(cache.hs[t].MatMul(r.whh.Tensor()))
		addRowBias(pre, r.bh.Tensor())
		h := pre.Tanh()

		hd := h.Data()
		for b := 0; b < batch; b++ {
			copy(o[(b*seq+t)*hidden:(b*seq+t+1)*hidden], hd[b*hidden:(b+1)*hidden])
		}
		cache.steps[t] = xt
		cache.hs[t+1] = h
	}
	return out, cache
}

// Backward runs backpropagation through time.
func (r *RNN) Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor {
	c := cacheAs[*rnnCache]("RNN.Backward", cache)
	seq := len(c.steps)
	batch, in, hidden := c.hs[0].Dim(0), r.cfg.InputSize, r.cfg.HiddenSize
	if !grad.Shape().Equal(tensor.Shape{batch, seq, hidden}) {
		panic(shapeMismatch("RNN.Backward", grad.Shape(), "expected gradient [%d, %d, %d]", batch, seq, hidden))
	}

	dWxh := tensor.ZerosLike(r.wxh.Tensor())
	dWhh := tensor.ZerosLike(r.whh.Tensor())
	dBh := tensor.Zeros(hidden)
	dX := tensor.Zeros(batch, seq, in)
	g, dx := grad.Data(), dX.Data()

	whhT := r.whh.Tensor().Transpose()
	wxhT := r.wxh.Tensor().Transpose()
	dhNext := tensor.Zeros(batch, hidden)
	for t := seq - 1; t >= 0; t-- {
		dh := dhNext
		dd := dh.Data()
		for b := 0; b < batch; b++ {
			row := g[(b*seq+t)*hidden : (b*seq+t+1)*hidden]
			for j, v := range row {
				dd[b*hidden+j] += v
			}
		}

		hd := c.hs[t+1].Data()
		for i := range dd {
			dd[i] *= 1 - hd[i]*hd[i]
		}

		dBh.AddInPlace(dh.SumAxis0())
		dWxh.AddInPlace(c.steps[t].Transpose().MatMul(dh))
		dWhh.AddInPlace(c.hs[t].Transpose().MatMul(dh))
		dhNext = dh.MatMul(whhT)

		gx := dh.MatMul(wxhT).Data()
		for b := 0; b < batch; b++ {
			copy(dx[(b*seq+t)*in:(b*seq+t+1)*in], gx[b*in:(b+1)*in])
		}
	}

	r.wxh.SetGrad(dWxh)
	r.whh.SetGrad(dWhh)
	r.bh.SetGrad(dBh)
	return dX
}

// Parameters returns [wxh, whh, bh].
func (r *RNN) Parameters() []*Parameter {
	return []*Parameter{r.wxh, r.whh, r.bh}
}
