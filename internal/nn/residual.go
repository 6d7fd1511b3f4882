package nn

import (
	"github.com/born-ml/lle/internal/tensor"
)

// ResidualConfig is the serialized configuration of a ResidualBlock.
// Norm1 and Norm2 carry the running statistics of the two normalization
// layers; when absent they start fresh.
type ResidualConfig struct {
	Channels   int              `json:"channels"`
	KernelSize int              `json:"kernelSize"`
	Norm1      *BatchNormConfig `json:"norm1,omitempty"`
	Norm2      *BatchNormConfig `json:"norm2,omitempty"`
}

// ResidualBlock computes
//
//	y = ReLU(BN(Conv(ReLU(BN(Conv(x))))) + x)
//
// Convolutions use valid padding, so the inner path shrinks the spatial
// size unless kernel_size is 1. The skip connection is added only when the
// inner path preserves the input shape exactly; otherwise the block reduces
// to its inner path followed by ReLU.
type ResidualBlock struct {
	cfg   ResidualConfig
	conv1 *Conv2D
	bn1   *BatchNormalization
	relu1 *ReLU
	conv2 *Conv2D
	bn2   *BatchNormalization
	relu2 *ReLU
}

type residualCache struct {
	conv1, bn1, relu1, conv2, bn2, relu2 Cache
	skip                                 bool
}

// NewResidualBlock creates a residual block over channels feature maps.
func NewResidualBlock(channels, kernelSize int) *ResidualBlock {
	return NewResidualBlockWithConfig(ResidualConfig{Channels: channels, KernelSize: kernelSize})
}

// NewResidualBlockWithConfig creates a residual block from a full
// configuration, restoring the normalization statistics it carries.
func NewResidualBlockWithConfig(cfg ResidualConfig) *ResidualBlock {
	channels, kernelSize := cfg.Channels, cfg.KernelSize
	return &ResidualBlock{
		cfg:   ResidualConfig{Channels: channels, KernelSize: kernelSize},
		conv1: NewConv2D(channels, channels, kernelSize),
		bn1:   nestedBatchNorm(channels, cfg.Norm1),
		relu1: NewReLU(),
		conv2: NewConv2D(channels, channels, kernelSize),
		bn2:   nestedBatchNorm(channels, cfg.Norm2),
		relu2: NewReLU(),
	}
}

// Type returns "residual_block".
func (r *ResidualBlock) Type() string { return "residual_block" }

// Config returns the layer configuration with a snapshot of both
// normalization layers.
func (r *ResidualBlock) Config() any {
	cfg := r.cfg
	n1, n2 := r.bn1.snapshot(), r.bn2.snapshot()
	cfg.Norm1, cfg.Norm2 = &n1, &n2
	return cfg
}

// SetTraining propagates the mode to both normalization layers.
func (r *ResidualBlock) SetTraining(training bool) {
	setTraining(training, r.bn1, r.bn2)
}

// Forward runs the inner path and adds the skip connection when shapes allow.
func (r *ResidualBlock) Forward(input *tensor.Tensor) (*tensor.Tensor, Cache) {
	c := &residualCache{}

	out, cc := r.conv1.Forward(input)
	c.conv1 = cc
	out, c.bn1 = r.bn1.Forward(out)
	out, c.relu1 = r.relu1.Forward(out)
	out, c.conv2 = r.conv2.Forward(out)
	out, c.bn2 = r.bn2.Forward(out)

	if out.Shape().Equal(input.Shape()) {
		out = out.Add(input)
		c.skip = true
	}

	out, c.relu2 = r.relu2.Forward(out)
	return out, c
}

// Backward propagates through the inner path and, if it was used, the skip
// connection.
func (r *ResidualBlock) Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor {
	c := cacheAs[*residualCache]("ResidualBlock.Backward", cache)

	dOut := r.relu2.Backward(c.relu2, grad)
	d := r.bn2.Backward(c.bn2, dOut)
	d = r.conv2.Backward(c.conv2, d)
	d = r.relu1.Backward(c.relu1, d)
	d = r.bn1.Backward(c.bn1, d)
	d = r.conv1.Backward(c.conv1, d)

	if c.skip {
		d.AddInPlace(dOut)
	}
	return d
}

// Parameters returns the parameters of both convolutions and both
// normalization layers.
func (r *ResidualBlock) Parameters() []*Parameter {
	return collectParameters(r.conv1, r.bn1, r.conv2, r.bn2)
}
