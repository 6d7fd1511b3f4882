// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms and learning-rate
// schedules for training neural networks.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with optional momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - RMSProp: Root Mean Square Propagation
//   - AdamW: Adam with decoupled weight decay
//   - StepLR, CosineAnnealing: learning-rate schedules
//   - State: per-parameter moment buffers keyed by parameter identifier
//
// # Basic Usage
//
//	opt := optim.NewAdam(optim.AdamConfig{LR: 0.001})
//	state := opt.NewState(model.Parameters())
//
//	for range epochs {
//	    pred, trace, _ := model.Forward(x)
//	    grad, _ := loss.Backward(pred, y)
//	    _ = model.Backward(trace, grad)
//	    if err := opt.Step(state, model.Parameters()); err != nil {
//	        return err
//	    }
//	}
//
// State is allocated once, before training. Step fails without touching
// any parameter if a parameter is missing a gradient, is unknown to the
// state or changed shape.
package optim
