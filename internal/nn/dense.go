package nn

import (
	"github.com/born-ml/lle/internal/tensor"
)

// DenseConfig is the serialized configuration of a Dense layer.
type DenseConfig struct {
	InputSize  int `json:"inputSize"`
	OutputSize int `json:"outputSize"`
}

// Dense implements a fully connected layer.
//
// Performs the transformation: y = x @ W + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [in_features, out_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// A rank-1 input is treated as a batch of one and yields a rank-1 output.
// Inputs of rank 3 or more have every leading dimension folded into the
// batch axis, so [batch, seq, in] maps to [batch, seq, out].
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
type Dense struct {
	cfg    DenseConfig
	weight *Parameter // [in_features, out_features]
	bias   *Parameter // [out_features]
}

type denseCache struct {
	input   *tensor.Tensor // input folded to [rows, in_features]
	inShape tensor.Shape
}

// NewDense creates a new Dense layer.
func NewDense(inputSize, outputSize int) *Dense {
	return newNamedDense("dense", inputSize, outputSize)
}

// newNamedDense creates a Dense layer whose parameters are prefixed with
// name, for projections owned by composite layers.
func newNamedDense(name string, inputSize, outputSize int) *Dense {
	return &Dense{
		cfg:    DenseConfig{InputSize: inputSize, OutputSize: outputSize},
		weight: NewParameter(name+".weight", Xavier(inputSize, outputSize, inputSize, outputSize)),
		bias:   NewParameter(name+".bias", tensor.Zeros(outputSize)),
	}
}

// Type returns "dense".
func (d *Dense) Type() string { return "dense" }

// Config returns the layer configuration.
func (d *Dense) Config() any { return d.cfg }

// Forward computes x @ W + b.
func (d *Dense) Forward(input *tensor.Tensor) (*tensor.Tensor, Cache) {
	shape := input.Shape()
	if shape.Last() != d.cfg.InputSize || len(shape) == 0 {
		panic(shapeMismatch("Dense.Forward", shape, "expected last dimension %d", d.cfg.InputSize))
	}

	x := input.View(shape.Leading(), d.cfg.InputSize)
	out := x.MatMul(d.weight.Tensor())
	addRowBias(out, d.bias.Tensor())

	outShape := append(shape[:len(shape)-1].Clone(), d.cfg.OutputSize)
	return out.Reshape(outShape...), &denseCache{input: x, inShape: shape.Clone()}
}

// Backward computes dW = xᵀ @ dy, db = colsum(dy) and returns dy @ Wᵀ.
func (d *Dense) Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor {
	c := cacheAs[*denseCache]("Dense.Backward", cache)

	g := grad.View(c.input.Dim(0), d.cfg.OutputSize)
	d.weight.SetGrad(c.input.Transpose().MatMul(g))
	d.bias.SetGrad(g.SumAxis0())

	dx := g.MatMul(d.weight.Tensor().Transpose())
	return dx.Reshape(c.inShape...)
}

// Parameters returns [weight, bias].
func (d *Dense) Parameters() []*Parameter {
	return []*Parameter{d.weight, d.bias}
}

// Weight returns the weight parameter.
func (d *Dense) Weight() *Parameter {
	return d.weight
}

// Bias returns the bias parameter.
func (d *Dense) Bias() *Parameter {
	return d.bias
}

// addRowBias adds bias to every row of a rank-2 tensor in place.
func addRowBias(out, bias *tensor.Tensor) {
	n := bias.NumElements()
	data, b := out.Data(), bias.Data()
	for i := range data {
		data[i] += b[i%n]
	}
}
