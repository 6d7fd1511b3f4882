package nn

import (
	"github.com/born-ml/lle/internal/tensor"
	"github.com/chewxy/math32"
)

// EmptyConfig is the configuration of layers without hyperparameters.
type EmptyConfig struct{}

// stateless carries the parts of the Layer interface shared by layers
// without parameters or configuration.
type stateless struct{}

func (stateless) Config() any               { return EmptyConfig{} }
func (stateless) Parameters() []*Parameter { return nil }

// ReLU is a Rectified Linear Unit activation.
//
// Applies the element-wise function: f(x) = max(0, x)
type ReLU struct{ stateless }

type reluCache struct{ input *tensor.Tensor }

// NewReLU creates a new ReLU activation.
func NewReLU() *ReLU { return &ReLU{} }

// Type returns "relu".
func (r *ReLU) Type() string { return "relu" }

// Forward applies max(0, x).
func (r *ReLU) Forward(input *tensor.Tensor) (*tensor.Tensor, Cache) {
	out := input.Apply(func(v float32) float32 {
		if v > 0 {
			return v
		}
		return 0
	})
	return out, &reluCache{input: input}
}

// Backward passes the gradient where the input was positive.
func (r *ReLU) Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor {
	c := cacheAs[*reluCache]("ReLU.Backward", cache)
	out := tensor.ZerosLike(grad)
	in, g, o := c.input.Data(), grad.Data(), out.Data()
	for i := range o {
		if in[i] > 0 {
			o[i] = g[i]
		}
	}
	return out
}

// Sigmoid applies σ(x) = 1 / (1 + exp(-x)).
type Sigmoid struct{ stateless }

type sigmoidCache struct{ output *tensor.Tensor }

// NewSigmoid creates a new Sigmoid activation.
func NewSigmoid() *Sigmoid { return &Sigmoid{} }

// Type returns "sigmoid".
func (s *Sigmoid) Type() string { return "sigmoid" }

// Forward applies the logistic function.
func (s *Sigmoid) Forward(input *tensor.Tensor) (*tensor.Tensor, Cache) {
	out := input.Apply(sigmoid)
	return out, &sigmoidCache{output: out}
}

// Backward scales the gradient by σ(x)(1-σ(x)).
func (s *Sigmoid) Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor {
	c := cacheAs[*sigmoidCache]("Sigmoid.Backward", cache)
	out := tensor.ZerosLike(grad)
	y, g, o := c.output.Data(), grad.Data(), out.Data()
	for i := range o {
		o[i] = g[i] * y[i] * (1 - y[i])
	}
	return out
}

func sigmoid(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}

// Tanh applies the hyperbolic tangent.
type Tanh struct{ stateless }

type tanhCache struct{ output *tensor.Tensor }

// NewTanh creates a new Tanh activation.
func NewTanh() *Tanh { return &Tanh{} }

// Type returns "tanh".
func (t *Tanh) Type() string { return "tanh" }

// Forward applies tanh element-wise.
func (t *Tanh) Forward(input *tensor.Tensor) (*tensor.Tensor, Cache) {
	out := input.Tanh()
	return out, &tanhCache{output: out}
}

// Backward scales the gradient by 1 - tanh²(x).
func (t *Tanh) Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor {
	c := cacheAs[*tanhCache]("Tanh.Backward", cache)
	out := tensor.ZerosLike(grad)
	y, g, o := c.output.Data(), grad.Data(), out.Data()
	for i := range o {
		o[i] = g[i] * (1 - y[i]*y[i])
	}
	return out
}

// Softmax normalizes the last axis into a probability distribution.
//
// Backward is the identity: the layer is meant to sit in front of
// CrossEntropy, whose gradient softmax(pred) - one_hot(target) already
// folds in the softmax Jacobian.
type Softmax struct{ stateless }

type softmaxCache struct{}

// NewSoftmax creates a new Softmax layer.
func NewSoftmax() *Softmax { return &Softmax{} }

// Type returns "softmax".
func (s *Softmax) Type() string { return "softmax" }

// Forward applies a max-shifted softmax over the last axis.
func (s *Softmax) Forward(input *tensor.Tensor) (*tensor.Tensor, Cache) {
	out := input.Clone()
	n := input.Shape().Last()
	data := out.Data()
	for start := 0; start < len(data); start += n {
		softmaxRow(data[start : start+n])
	}
	return out, softmaxCache{}
}

// Backward returns grad unchanged.
func (s *Softmax) Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor {
	cacheAs[softmaxCache]("Softmax.Backward", cache)
	return grad
}

// softmaxRow replaces row with its softmax.
func softmaxRow(row []float32) {
	maxVal := math32.Inf(-1)
	for _, v := range row {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float32
	for i, v := range row {
		row[i] = math32.Exp(v - maxVal)
		sum += row[i]
	}
	for i := range row {
		row[i] /= sum
	}
}

// Linear is the identity activation, used as an explicit output activation.
type Linear struct{ stateless }

type linearCache struct{}

// NewLinear creates a new identity activation.
func NewLinear() *Linear { return &Linear{} }

// Type returns "linear".
func (l *Linear) Type() string { return "linear" }

// Forward returns input unchanged.
func (l *Linear) Forward(input *tensor.Tensor) (*tensor.Tensor, Cache) {
	return input, linearCache{}
}

// Backward returns grad unchanged.
func (l *Linear) Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor {
	cacheAs[linearCache]("Linear.Backward", cache)
	return grad
}
