// Package nn implements the layers, sequential model and loss functions of
// the training engine.
//
// This package provides:
//   - Layer interface: forward/backward/parameter access for every layer kind
//   - Parameter: trainable tensors with a stable identifier and a gradient slot
//   - Layers: Dense, ReLU, Sigmoid, Tanh, Softmax, Linear, Dropout,
//     BatchNormalization, Conv2D, Flatten, RNN, Embedding, SelfAttention,
//     TransformerBlock, GlobalAveragePooling1D, ResidualBlock
//   - Model: an ordered stack of layers with a Trace-based backward pass
//   - Losses: MSE, MAE, CrossEntropy
//   - Registry: type tag -> constructor mapping used to rebuild saved models
//
// Forward returns the layer output together with a Cache holding whatever
// Backward needs. Backward consumes that cache, returns the gradient with
// respect to the layer input and stores parameter gradients on the layer's
// Parameters, where the optimizer reads them once the whole backward chain
// has completed.
package nn

import (
	"github.com/born-ml/lle/internal/tensor"
)

// Cache is the activation context produced by a layer's Forward and consumed
// by the matching Backward call. Its concrete type is private to each layer.
type Cache any

// Layer is the base interface for all layer kinds.
//
// Layers can be composed into a Model:
//
//	model := nn.NewModel(
//	    nn.NewDense(4, 8),
//	    nn.NewReLU(),
//	    nn.NewDense(8, 1),
//	)
type Layer interface {
	// Type returns the layer's type tag (e.g., "dense", "relu").
	Type() string

	// Config returns the JSON-serializable configuration used to
	// reconstruct the layer through a Registry.
	Config() any

	// Forward computes the output of the layer and the cache that the
	// matching Backward call needs.
	Forward(input *tensor.Tensor) (*tensor.Tensor, Cache)

	// Backward consumes the cache of a previous Forward and the gradient
	// with respect to the layer output. It returns the gradient with
	// respect to the layer input and records parameter gradients on the
	// layer's Parameters.
	Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor

	// Parameters returns all trainable parameters in a stable order.
	// Returns an empty slice for layers without parameters.
	Parameters() []*Parameter
}

// TrainingSetter is implemented by layers whose behavior differs between
// training and evaluation (Dropout, BatchNormalization and the composite
// layers that contain them).
type TrainingSetter interface {
	SetTraining(training bool)
}

// setTraining propagates a mode to every layer that cares about it.
func setTraining(mode bool, layers ...Layer) {
	for _, l := range layers {
		if ts, ok := l.(TrainingSetter); ok {
			ts.SetTraining(mode)
		}
	}
}

// collectParameters concatenates the parameters of layers in order.
func collectParameters(layers ...Layer) []*Parameter {
	var params []*Parameter
	for _, l := range layers {
		params = append(params, l.Parameters()...)
	}
	return params
}

// cacheAs asserts the concrete cache type for layer, panicking with
// a *CacheError when Backward receives something its Forward did not produce.
func cacheAs[T any](layer string, c Cache) T {
	v, ok := c.(T)
	if !ok {
		panic(&CacheError{Layer: layer})
	}
	return v
}
