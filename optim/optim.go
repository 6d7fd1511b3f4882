// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/lle/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Config represents the base configuration for optimizers.
type Config = optim.Config

// State holds an optimizer's step counter and per-parameter buffers.
type State = optim.State

// Scheduler adjusts an optimizer's learning rate once per epoch.
type Scheduler = optim.Scheduler

// Common errors.
var (
	ErrMissingGradient  = optim.ErrMissingGradient
	ErrUnknownParameter = optim.ErrUnknownParameter
)

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	opt := optim.NewSGD(optim.SGDConfig{LR: 0.01, Momentum: 0.9})
func NewSGD(config SGDConfig) *SGD {
	return optim.NewSGD(config)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer.
//
// Zero Betas and Eps select the defaults (0.9, 0.999) and 1e-8.
func NewAdam(config AdamConfig) *Adam {
	return optim.NewAdam(config)
}

// AdamW represents Adam with decoupled weight decay.
type AdamW = optim.AdamW

// AdamWConfig contains configuration for AdamW optimizer.
type AdamWConfig = optim.AdamWConfig

// NewAdamW creates a new AdamW optimizer.
func NewAdamW(config AdamWConfig) *AdamW {
	return optim.NewAdamW(config)
}

// RMSProp represents the RMSProp optimizer.
type RMSProp = optim.RMSProp

// RMSPropConfig contains configuration for RMSProp optimizer.
type RMSPropConfig = optim.RMSPropConfig

// NewRMSProp creates a new RMSProp optimizer.
func NewRMSProp(config RMSPropConfig) *RMSProp {
	return optim.NewRMSProp(config)
}

// New creates an optimizer by name: "sgd", "adam", "rmsprop" or "adamw".
func New(name string, lr, weightDecay float32) (Optimizer, error) {
	return optim.New(name, lr, weightDecay)
}

// Schedulers

// StepLR multiplies the learning rate by gamma every stepSize epochs.
type StepLR = optim.StepLR

// NewStepLR creates a step decay schedule for opt.
func NewStepLR(opt Optimizer, stepSize int, gamma float32) (*StepLR, error) {
	return optim.NewStepLR(opt, stepSize, gamma)
}

// CosineAnnealing anneals the learning rate from its initial value to
// etaMin over tMax epochs.
type CosineAnnealing = optim.CosineAnnealing

// NewCosineAnnealing creates a cosine annealing schedule for opt.
func NewCosineAnnealing(opt Optimizer, tMax int, etaMin float32) (*CosineAnnealing, error) {
	return optim.NewCosineAnnealing(opt, tMax, etaMin)
}
