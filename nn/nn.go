// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/lle/internal/nn"
	"github.com/born-ml/lle/internal/tensor"
)

// Layer is a differentiable unit of a Model.
type Layer = nn.Layer

// Cache is the per-call state a layer's Forward hands to its Backward.
type Cache = nn.Cache

// TrainingSetter is implemented by layers that behave differently during
// training (Dropout, BatchNormalization and composites containing them).
type TrainingSetter = nn.TrainingSetter

// Parameter represents a trainable parameter in a neural network.
type Parameter = nn.Parameter

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return nn.NewParameter(name, t)
}

// Model is an ordered stack of layers.
type Model = nn.Model

// Trace records the caches of one forward pass.
type Trace = nn.Trace

// NewModel creates a model in training mode.
//
// Example:
//
//	model := nn.NewModel(nn.NewDense(784, 128), nn.NewReLU(), nn.NewDense(128, 10))
func NewModel(layers ...Layer) *Model {
	return nn.NewModel(layers...)
}

// Seed reseeds weight initialization and dropout masks.
func Seed(seed int64) {
	nn.Seed(seed)
}

// Layers

// Dense represents a fully connected layer.
type Dense = nn.Dense

// DenseConfig is the serialized configuration of a Dense layer.
type DenseConfig = nn.DenseConfig

// NewDense creates a new Dense layer with Xavier initialization.
func NewDense(inputSize, outputSize int) *Dense {
	return nn.NewDense(inputSize, outputSize)
}

// Conv2D represents a valid-padding 2D convolution.
type Conv2D = nn.Conv2D

// Conv2DConfig is the serialized configuration of a Conv2D layer.
type Conv2DConfig = nn.Conv2DConfig

// NewConv2D creates a new Conv2D layer with a square kernel.
func NewConv2D(inChannels, outChannels, kernelSize int) *Conv2D {
	return nn.NewConv2D(inChannels, outChannels, kernelSize)
}

// BatchNormalization normalizes features using batch or running statistics.
type BatchNormalization = nn.BatchNormalization

// BatchNormConfig is the serialized configuration of a BatchNormalization layer.
type BatchNormConfig = nn.BatchNormConfig

// NewBatchNormalization creates a BatchNormalization layer with default
// epsilon and momentum.
func NewBatchNormalization(size int) *BatchNormalization {
	return nn.NewBatchNormalization(size)
}

// Dropout zeroes elements at random during training.
type Dropout = nn.Dropout

// NewDropout creates a Dropout layer. Panics if rate is outside [0, 1).
func NewDropout(rate float32) *Dropout {
	return nn.NewDropout(rate)
}

// Flatten collapses all non-batch dimensions.
type Flatten = nn.Flatten

// NewFlatten creates a Flatten layer.
func NewFlatten() *Flatten { return nn.NewFlatten() }

// RNN is an Elman recurrent layer over [batch, seq, features].
type RNN = nn.RNN

// NewRNN creates an RNN layer.
func NewRNN(inputSize, hiddenSize int) *RNN {
	return nn.NewRNN(inputSize, hiddenSize)
}

// Embedding maps integer indices to learned vectors.
type Embedding = nn.Embedding

// NewEmbedding creates an Embedding layer.
func NewEmbedding(vocabSize, embedSize int) *Embedding {
	return nn.NewEmbedding(vocabSize, embedSize)
}

// SelfAttention is single-head scaled dot-product attention.
type SelfAttention = nn.SelfAttention

// NewSelfAttention creates a SelfAttention layer.
func NewSelfAttention(embedSize int) *SelfAttention {
	return nn.NewSelfAttention(embedSize)
}

// TransformerBlock is attention and a feed-forward network, each followed
// by a residual connection and normalization.
type TransformerBlock = nn.TransformerBlock

// TransformerBlockConfig is the serialized configuration of a TransformerBlock.
type TransformerBlockConfig = nn.TransformerBlockConfig

// NewTransformerBlock creates a TransformerBlock.
func NewTransformerBlock(embedSize int) *TransformerBlock {
	return nn.NewTransformerBlock(embedSize)
}

// GlobalAveragePooling1D averages over the sequence axis.
type GlobalAveragePooling1D = nn.GlobalAveragePooling1D

// NewGlobalAveragePooling1D creates a pooling layer.
func NewGlobalAveragePooling1D() *GlobalAveragePooling1D { return nn.NewGlobalAveragePooling1D() }

// ResidualBlock is two Conv2D/BatchNormalization/ReLU stages with a skip
// connection when shapes allow it.
type ResidualBlock = nn.ResidualBlock

// ResidualConfig is the serialized configuration of a ResidualBlock.
type ResidualConfig = nn.ResidualConfig

// NewResidualBlock creates a ResidualBlock.
func NewResidualBlock(channels, kernelSize int) *ResidualBlock {
	return nn.NewResidualBlock(channels, kernelSize)
}

// Activations

// ReLU applies max(0, x).
type ReLU = nn.ReLU

// NewReLU creates a new ReLU activation layer.
func NewReLU() *ReLU { return nn.NewReLU() }

// Sigmoid applies the logistic function.
type Sigmoid = nn.Sigmoid

// NewSigmoid creates a new Sigmoid activation layer.
func NewSigmoid() *Sigmoid { return nn.NewSigmoid() }

// Tanh applies the hyperbolic tangent.
type Tanh = nn.Tanh

// NewTanh creates a new Tanh activation layer.
func NewTanh() *Tanh { return nn.NewTanh() }

// Softmax normalizes the last axis. Its backward pass is the identity and
// assumes a following CrossEntropyLoss.
type Softmax = nn.Softmax

// NewSoftmax creates a new Softmax layer.
func NewSoftmax() *Softmax { return nn.NewSoftmax() }

// Linear is the identity activation.
type Linear = nn.Linear

// NewLinear creates a new identity activation.
func NewLinear() *Linear { return nn.NewLinear() }

// Losses

// Loss is a scalar objective with a gradient with respect to predictions.
type Loss = nn.Loss

// MSELoss is the mean squared error.
type MSELoss = nn.MSELoss

// NewMSELoss creates a new MSE loss.
func NewMSELoss() *MSELoss { return nn.NewMSELoss() }

// MAELoss is the mean absolute error, for evaluation only.
type MAELoss = nn.MAELoss

// NewMAELoss creates a new MAE loss.
func NewMAELoss() *MAELoss { return nn.NewMAELoss() }

// CrossEntropyLoss is softmax cross-entropy over logits and class indices.
type CrossEntropyLoss = nn.CrossEntropyLoss

// NewCrossEntropyLoss creates a new cross-entropy loss.
func NewCrossEntropyLoss() *CrossEntropyLoss { return nn.NewCrossEntropyLoss() }

// LossByName returns the loss registered under name: "mse", "mae" or
// "cross_entropy".
func LossByName(name string) (Loss, error) {
	return nn.LossByName(name)
}

// Registry

// Factory reconstructs a layer from its serialized configuration.
type Factory = nn.Factory

// Registry maps layer type tags to factories.
type Registry = nn.Registry

// NewRegistry creates an empty registry.
func NewRegistry() *Registry { return nn.NewRegistry() }

// DefaultRegistry returns the registry holding every built-in layer type.
func DefaultRegistry() *Registry { return nn.DefaultRegistry() }

// Errors

// Common errors.
var (
	ErrCacheMismatch     = nn.ErrCacheMismatch
	ErrNotDifferentiable = nn.ErrNotDifferentiable
	ErrEmptyTrace        = nn.ErrEmptyTrace
)

// BoundsError reports an index outside its valid range.
type BoundsError = nn.BoundsError

// UnknownLayerTypeError reports a type tag with no registered constructor.
type UnknownLayerTypeError = nn.UnknownLayerTypeError
