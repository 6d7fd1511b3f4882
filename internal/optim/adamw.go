package optim

import (
	"github.com/born-ml/lle/internal/nn"
)

// AdamW implements Adam with decoupled weight decay
// (Loshchilov & Hutter, 2019).
//
// Each step first decays the parameter independently of its gradient,
//
//	param = param * (1 - lr * weight_decay)
//
// and then applies the regular Adam update.
type AdamW struct {
	Adam
	weightDecay float32
}

// AdamWConfig holds configuration for AdamW optimizer.
type AdamWConfig struct {
	AdamConfig
	WeightDecay float32 // Decoupled weight decay (default: 0.01)
}

// NewAdamW creates a new AdamW optimizer.
func NewAdamW(config AdamWConfig) *AdamW {
	if config.WeightDecay == 0 {
		config.WeightDecay = 0.01
	}
	return &AdamW{Adam: *NewAdam(config.AdamConfig), weightDecay: config.WeightDecay}
}

// Name returns "adamw".
func (a *AdamW) Name() string { return "adamw" }

// Step applies weight decay and then the Adam update.
func (a *AdamW) Step(state *State, params []*nn.Parameter) error {
	decay := 1 - a.lr*a.weightDecay
	adam := a.rule(state)
	return state.apply("AdamW.Step", params, func(data, grad []float32, sl *slot) {
		for i := range data {
			data[i] *= decay
		}
		adam(data, grad, sl)
	})
}
