package nn

import (
	"fmt"

	"github.com/born-ml/lle/internal/tensor"
)

// DropoutConfig is the serialized configuration of a Dropout layer.
type DropoutConfig struct {
	Rate float32 `json:"rate"`
}

// Dropout randomly zeroes activations during training.
//
// In training mode each element is kept with probability 1-rate and scaled
// by 1/(1-rate), so the expected activation is unchanged. In evaluation
// mode the layer is the identity.
type Dropout struct {
	cfg      DropoutConfig
	training bool
}

type dropoutCache struct {
	mask *tensor.Tensor // nil when the forward pass ran in evaluation mode
}

// NewDropout creates a Dropout layer. Rate must lie in [0, 1).
func NewDropout(rate float32) *Dropout {
	if rate < 0 || rate >= 1 {
		panic(fmt.Sprintf("nn.NewDropout: rate %v outside [0, 1)", rate))
	}
	return &Dropout{cfg: DropoutConfig{Rate: rate}, training: true}
}

// Type returns "dropout".
func (d *Dropout) Type() string { return "dropout" }

// Config returns the layer configuration.
func (d *Dropout) Config() any { return d.cfg }

// SetTraining switches between training and evaluation behavior.
func (d *Dropout) SetTraining(training bool) { d.training = training }

// Forward applies the dropout mask in training mode.
func (d *Dropout) Forward(input *tensor.Tensor) (*tensor.Tensor, Cache) {
	if !d.training || d.cfg.Rate == 0 {
		return input, &dropoutCache{}
	}

	scale := 1 / (1 - d.cfg.Rate)
	mask := tensor.ZerosLike(input)
	m := mask.Data()
	for i := range m {
		if randFloat32() >= d.cfg.Rate {
			m[i] = scale
		}
	}
	return input.Mul(mask), &dropoutCache{mask: mask}
}

// Backward applies the same mask to the gradient.
func (d *Dropout) Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor {
	c := cacheAs[*dropoutCache]("Dropout.Backward", cache)
	if c.mask == nil {
		return grad
	}
	return grad.Mul(c.mask)
}

// Parameters returns nil: Dropout has no trainable parameters.
func (d *Dropout) Parameters() []*Parameter { return nil }
