// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers, sequential models and losses.
//
// # Overview
//
// This package contains:
//   - Layers: Dense, Conv2D, BatchNormalization, Dropout, Flatten, RNN,
//     Embedding, SelfAttention, TransformerBlock, GlobalAveragePooling1D,
//     ResidualBlock
//   - Activations: ReLU, Sigmoid, Tanh, Softmax, Linear
//   - Loss functions: MSELoss, MAELoss, CrossEntropyLoss
//   - Model: ordered layer stack with Forward/Backward/Predict
//   - Registry: layer type tag to constructor mapping used by model loading
//
// # Basic Usage
//
//	model := nn.NewModel(
//	    nn.NewDense(4, 16),
//	    nn.NewReLU(),
//	    nn.NewDense(16, 1),
//	)
//
//	pred, trace, err := model.Forward(x)
//	if err != nil {
//	    return err
//	}
//	loss := nn.NewMSELoss()
//	grad, err := loss.Backward(pred, y)
//	if err != nil {
//	    return err
//	}
//	err = model.Backward(trace, grad) // parameter gradients are now set
//
// # Forward caches
//
// Layer.Forward returns the layer output together with a Cache holding what
// the matching Backward call needs. Model.Forward collects them into a
// Trace. Passing a cache produced by a different layer fails with
// ErrCacheMismatch.
//
// # Parameters
//
// Every Parameter carries a stable identifier assigned at construction and
// preserved by model files. Optimizer state is keyed by that identifier.
package nn
