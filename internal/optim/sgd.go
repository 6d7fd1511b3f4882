package optim

import (
	"github.com/born-ml/lle/internal/nn"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Example:
//
//	opt := optim.NewSGD(optim.SGDConfig{LR: 0.01, Momentum: 0.9})
//	state := opt.NewState(model.Parameters())
type SGD struct {
	baseLR
	momentum float32
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{baseLR: baseLR{lr: config.LR}, momentum: config.Momentum}
}

// Name returns "sgd".
func (s *SGD) Name() string { return "sgd" }

// NewState allocates a velocity buffer per parameter when momentum is used.
func (s *SGD) NewState(params []*nn.Parameter) *State {
	if s.momentum == 0 {
		return newState(params, 0)
	}
	return newState(params, 1)
}

// Step performs a single optimization step.
func (s *SGD) Step(state *State, params []*nn.Parameter) error {
	lr, momentum := s.lr, s.momentum
	return state.apply("SGD.Step", params, func(data, grad []float32, sl *slot) {
		if momentum == 0 || sl.first == nil {
			for i, g := range grad {
				data[i] -= lr * g
			}
			return
		}
		vel := sl.first.Data()
		for i, g := range grad {
			vel[i] = momentum*vel[i] + g
			data[i] -= lr * vel[i]
		}
	})
}
