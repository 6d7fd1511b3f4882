package nn

import (
	"fmt"

	"github.com/born-ml/lle/internal/tensor"
)

// Model is an ordered stack of layers.
//
// Each layer's output becomes the next layer's input. Backward runs the
// layers in reverse, consuming the per-layer caches recorded in a Trace.
//
// Example:
//
//	model := nn.NewModel(
//	    nn.NewDense(4, 16),
//	    nn.NewReLU(),
//	    nn.NewDense(16, 1),
//	)
//
//	pred, trace, err := model.Forward(x)
//	...
//	err = model.Backward(trace, lossGrad)
type Model struct {
	layers   []Layer
	training bool
}

// Trace records the caches of one forward pass, one entry per layer.
// It is consumed by Model.Backward.
type Trace struct {
	caches []Cache
}

// Len returns the number of recorded layer caches.
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.caches)
}

// NewModel creates a model in training mode from layers.
func NewModel(layers ...Layer) *Model {
	m := &Model{layers: layers}
	m.SetTraining(true)
	return m
}

// Layers returns the model's layers in forward order.
func (m *Model) Layers() []Layer {
	return m.layers
}

// Add appends a layer and applies the current training mode to it.
func (m *Model) Add(layer Layer) {
	m.layers = append(m.layers, layer)
	setTraining(m.training, layer)
}

// SetTraining propagates the training mode to every layer that
// distinguishes training from evaluation.
func (m *Model) SetTraining(training bool) {
	m.training = training
	setTraining(training, m.layers...)
}

// Training reports the current mode.
func (m *Model) Training() bool {
	return m.training
}

// Forward folds input through every layer and returns the output with the
// trace needed for Backward.
//
// Shape errors raised inside a layer are returned as *tensor.ShapeError,
// out-of-range indices as *BoundsError.
func (m *Model) Forward(input *tensor.Tensor) (*tensor.Tensor, *Trace, error) {
	trace := &Trace{caches: make([]Cache, 0, len(m.layers))}
	out := input
	err := tensor.Guard(func() {
		for _, l := range m.layers {
			var c Cache
			out, c = l.Forward(out)
			trace.caches = append(trace.caches, c)
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("forward layer %d: %w", len(trace.caches), err)
	}
	return out, trace, nil
}

// Backward folds grad through the layers in reverse order, leaving
// parameter gradients on each layer's Parameters. The gradient with
// respect to the model input is discarded.
func (m *Model) Backward(trace *Trace, grad *tensor.Tensor) error {
	if trace.Len() != len(m.layers) {
		return fmt.Errorf("%w: %d caches for %d layers", ErrEmptyTrace, trace.Len(), len(m.layers))
	}
	i := len(m.layers) - 1
	err := tensor.Guard(func() {
		for ; i >= 0; i-- {
			grad = m.layers[i].Backward(trace.caches[i], grad)
		}
	})
	if err != nil {
		return fmt.Errorf("backward layer %d: %w", i, err)
	}
	return nil
}

// Predict runs a forward pass in evaluation mode and restores the previous
// mode afterwards.
func (m *Model) Predict(input *tensor.Tensor) (*tensor.Tensor, error) {
	prev := m.training
	m.SetTraining(false)
	defer m.SetTraining(prev)

	out, _, err := m.Forward(input)
	return out, err
}

// Parameters returns all trainable parameters in layer-declaration order.
func (m *Model) Parameters() []*Parameter {
	return collectParameters(m.layers...)
}

// Grads returns the gradient of every parameter, in the order of
// Parameters. Entries are nil for parameters without a gradient.
func (m *Model) Grads() []*tensor.Tensor {
	params := m.Parameters()
	grads := make([]*tensor.Tensor, len(params))
	for i, p := range params {
		grads[i] = p.Grad()
	}
	return grads
}

// ZeroGrad clears every parameter gradient.
func (m *Model) ZeroGrad() {
	for _, p := range m.Parameters() {
		p.ZeroGrad()
	}
}

// NumParams returns the total number of trainable scalars.
func (m *Model) NumParams() int {
	n := 0
	for _, p := range m.Parameters() {
		n += p.Tensor().NumElements()
	}
	return n
}
