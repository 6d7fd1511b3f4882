package nn

import (
	"github.com/born-ml/lle/internal/tensor"
	"github.com/google/uuid"
)

// Parameter represents a trainable parameter in a neural network.
//
// Every parameter carries a durable identifier assigned when its layer is
// constructed. Optimizer state and the weights index of the model container
// are keyed by that identifier rather than by position, so reordering layers
// cannot silently hand one parameter another parameter's moments.
//
// Example:
//
//	weight := nn.NewParameter("dense.weight", weightTensor)
//
//	w := weight.Tensor()
//	grad := weight.Grad() // nil until a backward pass has run
type Parameter struct {
	id     string         // Stable identifier (UUID)
	name   string         // Descriptive name (e.g., "dense.weight")
	tensor *tensor.Tensor // The parameter tensor
	grad   *tensor.Tensor // Gradient tensor (written by the owning layer's Backward)
}

// NewParameter creates a new trainable parameter with a fresh identifier.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{
		id:     uuid.NewString(),
		name:   name,
		tensor: t,
	}
}

// ID returns the parameter's stable identifier.
func (p *Parameter) ID() string {
	return p.id
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Shape returns the parameter tensor's shape.
func (p *Parameter) Shape() tensor.Shape {
	return p.tensor.Shape()
}

// Grad returns the gradient tensor.
//
// Returns nil if no gradient has been computed yet (before backward pass).
func (p *Parameter) Grad() *tensor.Tensor {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter) SetGrad(grad *tensor.Tensor) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}

// Restore replaces the parameter's backing tensor and identifier.
//
// Used when loading a saved model: the reconstructed layer's freshly
// initialized buffer is swapped for the stored weights. An empty id keeps
// the current identifier.
func (p *Parameter) Restore(id string, t *tensor.Tensor) {
	if id != "" {
		p.id = id
	}
	p.tensor = t
	p.grad = nil
}
