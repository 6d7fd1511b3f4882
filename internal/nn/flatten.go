package nn

import (
	"github.com/born-ml/lle/internal/tensor"
)

// Flatten collapses every axis after the batch axis: [B, d1, d2, ...] becomes
// [B, d1*d2*...]. Rank-1 and rank-2 inputs pass through with their shape
// unchanged.
type Flatten struct{ stateless }

type flattenCache struct {
	inShape tensor.Shape
}

// NewFlatten creates a new Flatten layer.
func NewFlatten() *Flatten { return &Flatten{} }

// Type returns "flatten".
func (f *Flatten) Type() string { return "flatten" }

// Forward returns a view of input with the trailing axes merged.
func (f *Flatten) Forward(input *tensor.Tensor) (*tensor.Tensor, Cache) {
	shape := input.Shape()
	cache := &flattenCache{inShape: shape.Clone()}
	if len(shape) <= 2 {
		return input, cache
	}
	return input.View(shape[0], input.NumElements()/shape[0]), cache
}

// Backward restores the input shape on the gradient.
func (f *Flatten) Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor {
	c := cacheAs[*flattenCache]("Flatten.Backward", cache)
	return grad.View(c.inShape...)
}
