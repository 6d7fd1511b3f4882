// Package optim implements optimization algorithms and learning-rate
// schedules for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - State: per-parameter optimizer state keyed by parameter identifier
//   - SGD: Stochastic Gradient Descent with optional momentum
//   - Adam: Adaptive Moment Estimation
//   - RMSProp: Root Mean Square Propagation
//   - AdamW: Adam with decoupled weight decay
//   - StepLR, CosineAnnealing: learning-rate schedules
//
// Example usage:
//
//	opt := optim.NewAdam(optim.AdamConfig{LR: 0.001})
//	state := opt.NewState(model.Parameters())
//
//	for epoch := range epochs {
//	    pred, trace, _ := model.Forward(x)
//	    grad, _ := loss.Backward(pred, y)
//	    _ = model.Backward(trace, grad)
//
//	    if err := opt.Step(state, model.Parameters()); err != nil {
//	        return err
//	    }
//	}
package optim

import (
	"errors"
	"fmt"

	"github.com/born-ml/lle/internal/nn"
)

// Common errors.
var (
	ErrMissingGradient  = errors.New("parameter has no gradient")
	ErrUnknownParameter = errors.New("parameter not tracked by optimizer state")
)

// Optimizer is the base interface for all optimization algorithms.
//
// Optimizers update model parameters based on computed gradients to
// minimize the loss function during training. Auxiliary buffers live in
// an explicit State created once before training, so an Optimizer value
// only carries hyperparameters.
type Optimizer interface {
	// Name returns the optimizer identifier (e.g., "adam").
	Name() string

	// NewState allocates state for params, shaped like each parameter.
	NewState(params []*nn.Parameter) *State

	// Step applies one update to params using their current gradients.
	//
	// Every parameter must have a gradient and be tracked by state with
	// an unchanged shape; otherwise no parameter is modified and an
	// error is returned.
	Step(state *State, params []*nn.Parameter) error

	// LR returns the current learning rate.
	LR() float32

	// SetLR replaces the learning rate. Used by schedulers.
	SetLR(lr float32)
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float32 // Learning rate
}

// baseLR carries the learning rate shared by every optimizer.
type baseLR struct {
	lr float32
}

// LR returns the current learning rate.
func (b *baseLR) LR() float32 { return b.lr }

// SetLR sets the learning rate.
func (b *baseLR) SetLR(lr float32) { b.lr = lr }

// New creates an optimizer by name: "sgd", "adam", "rmsprop" or "adamw".
// Zero hyperparameters select each optimizer's defaults.
func New(name string, lr, weightDecay float32) (Optimizer, error) {
	switch name {
	case "sgd":
		return NewSGD(SGDConfig{LR: lr}), nil
	case "adam":
		return NewAdam(AdamConfig{LR: lr}), nil
	case "rmsprop":
		return NewRMSProp(RMSPropConfig{LR: lr}), nil
	case "adamw":
		return NewAdamW(AdamWConfig{AdamConfig: AdamConfig{LR: lr}, WeightDecay: weightDecay}), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
}
