package optim

import (
	"github.com/born-ml/lle/internal/nn"
	"github.com/chewxy/math32"
)

// RMSProp keeps a decaying average of squared gradients per parameter:
//
//	v = beta * v + (1-beta) * gradient²
//	param = param - lr * gradient / (sqrt(v) + eps)
type RMSProp struct {
	baseLR
	beta float32
	eps  float32
}

// RMSPropConfig holds configuration for RMSProp optimizer.
type RMSPropConfig struct {
	LR   float32 // Learning rate (default: 0.001)
	Beta float32 // Decay of the squared-gradient average (default: 0.9)
	Eps  float32 // Term for numerical stability (default: 1e-8)
}

// NewRMSProp creates a new RMSProp optimizer.
func NewRMSProp(config RMSPropConfig) *RMSProp {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Beta == 0 {
		config.Beta = 0.9
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &RMSProp{baseLR: baseLR{lr: config.LR}, beta: config.Beta, eps: config.Eps}
}

// Name returns "rmsprop".
func (r *RMSProp) Name() string { return "rmsprop" }

// NewState allocates one squared-gradient buffer per parameter.
func (r *RMSProp) NewState(params []*nn.Parameter) *State {
	return newState(params, 1)
}

// Step performs a single optimization step.
func (r *RMSProp) Step(state *State, params []*nn.Parameter) error {
	lr, beta, eps := r.lr, r.beta, r.eps
	return state.apply("RMSProp.Step", params, func(data, grad []float32, sl *slot) {
		v := sl.first.Data()
		for i, g := range grad {
			v[i] = beta*v[i] + (1-beta)*g*g
			data[i] -= lr * g / (math32.Sqrt(v[i]) + eps)
		}
	})
}
