package nn

import (
	"github.com/born-ml/lle/internal/parallel"
	"github.com/born-ml/lle/internal/tensor"
)

// Conv2DConfig is the serialized configuration of a Conv2D layer.
type Conv2DConfig struct {
	InChannels  int `json:"inChannels"`
	OutChannels int `json:"outChannels"`
	KernelSize  int `json:"kernelSize"`
}

// Conv2D implements a 2D convolutional layer with a square kernel, stride 1
// and no padding.
//
// Input shape: [batch, in_channels, height, width]
// Output shape: [batch, out_channels, height-k+1, width-k+1]
//
// Weight: [out_channels, in_channels, k, k], drawn from U(-0.5, 0.5)
// Bias: [out_channels], zeros
type Conv2D struct {
	cfg    Conv2DConfig
	weight *Parameter
	bias   *Parameter
}

type conv2dCache struct {
	input *tensor.Tensor
}

// NewConv2D creates a new Conv2D layer.
func NewConv2D(inChannels, outChannels, kernelSize int) *Conv2D {
	return &Conv2D{
		cfg: Conv2DConfig{InChannels: inChannels, OutChannels: outChannels, KernelSize: kernelSize},
		weight: NewParameter("conv2d.weight",
			UniformInit(-0.5, 0.5, outChannels, inChannels, kernelSize, kernelSize)),
		bias: NewParameter("conv2d.bias", tensor.Zeros(outChannels)),
	}
}

// Type returns "conv2d".
func (c *Conv2D) Type() string { return "conv2d" }

// Config returns the layer configuration.
func (c *Conv2D) Config() any { return c.cfg }

// OutputSize returns the spatial output size for an input of size h x w.
func (c *Conv2D) OutputSize(h, w int) (int, int) {
	return h - c.cfg.KernelSize + 1, w - c.cfg.KernelSize + 1
}

// convDims holds the dimensions shared by the forward and backward loops.
type convDims struct {
	batch, inC, h, w, outC, k, outH, outW int
}

func (c *Conv2D) dims(op string, shape tensor.Shape) convDims {
	if len(shape) != 4 || shape[1] != c.cfg.InChannels {
		panic(shapeMismatch(op, shape, "expected [batch, %d, height, width]", c.cfg.InChannels))
	}
	k := c.cfg.KernelSize
	if shape[2] < k || shape[3] < k {
		panic(shapeMismatch(op, shape, "spatial size smaller than kernel %d", k))
	}
	return convDims{
		batch: shape[0], inC: shape[1], h: shape[2], w: shape[3],
		outC: c.cfg.OutChannels, k: k,
		outH: shape[2] - k + 1, outW: shape[3] - k + 1,
	}
}

// Forward computes the valid cross-correlation of input with the kernels.
func (c *Conv2D) Forward(input *tensor.Tensor) (*tensor.Tensor, Cache) {
	d := c.dims("Conv2D.Forward", input.Shape())
	x, wt, b := input.Data(), c.weight.Tensor().Data(), c.bias.Tensor().Data()

	out := tensor.Zeros(d.batch, d.outC, d.outH, d.outW)
	o := out.Data()
	// Each (n, oc) pair owns one output plane.
	cost := d.outH * d.outW * d.inC * d.k * d.k
	parallel.ForBatch(d.batch, d.outC, func(n, oc int) {
		for oh := 0; oh < d.outH; oh++ {
			for ow := 0; ow < d.outW; ow++ {
				sum := b[oc]
				for ic := 0; ic < d.inC; ic++ {
					for kh := 0; kh < d.k; kh++ {
						xRow := ((n*d.inC+ic)*d.h+oh+kh)*d.w + ow
						wRow := ((oc*d.inC+ic)*d.k + kh) * d.k
						for kw := 0; kw < d.k; kw++ {
							sum += x[xRow+kw] * wt[wRow+kw]
						}
					}
				}
				o[((n*d.outC+oc)*d.outH+oh)*d.outW+ow] = sum
			}
		}
	}, parallel.DefaultConfig().WithCost(cost))
	return out, &conv2dCache{input: input}
}

// Backward computes kernel, bias and input gradients.
func (c *Conv2D) Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor {
	cc := cacheAs[*conv2dCache]("Conv2D.Backward", cache)
	d := c.dims("Conv2D.Backward", cc.input.Shape())
	if !grad.Shape().Equal(tensor.Shape{d.batch, d.outC, d.outH, d.outW}) {
		panic(shapeMismatch("Conv2D.Backward", grad.Shape(),
			"expected gradient [%d, %d, %d, %d]", d.batch, d.outC, d.outH, d.outW))
	}

	x, wt, g := cc.input.Data(), c.weight.Tensor().Data(), grad.Data()
	dW := tensor.ZerosLike(c.weight.Tensor())
	dB := tensor.Zeros(d.outC)
	dX := tensor.ZerosLike(cc.input)
	dw, db, dx := dW.Data(), dB.Data(), dX.Data()

	for n := 0; n < d.batch; n++ {
		for oc := 0; oc < d.outC; oc++ {
			for oh := 0; oh < d.outH; oh++ {
				for ow := 0; ow < d.outW; ow++ {
					gv := g[((n*d.outC+oc)*d.outH+oh)*d.outW+ow]
					db[oc] += gv
					for ic := 0; ic < d.inC; ic++ {
						for kh := 0; kh < d.k; kh++ {
							xRow := ((n*d.inC+ic)*d.h+oh+kh)*d.w + ow
							wRow := ((oc*d.inC+ic)*d.k + kh) * d.k
							for kw := 0; kw < d.k; kw++ {
								dw[wRow+kw] += gv * x[xRow+kw]
								dx[xRow+kw] += gv * wt[wRow+kw]
							}
						}
					}
				}
			}
		}
	}

	c.weight.SetGrad(dW)
	c.bias.SetGrad(dB)
	return dX
}

// Parameters returns [weight, bias].
func (c *Conv2D) Parameters() []*Parameter {
	return []*Parameter{c.weight, c.bias}
}
