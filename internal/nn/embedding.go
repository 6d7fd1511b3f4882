package nn

import (
	"github.com/born-ml/lle/internal/tensor"
)

// EmbeddingConfig is the serialized configuration of an Embedding layer.
type EmbeddingConfig struct {
	VocabSize int `json:"vocabSize"`
	EmbedSize int `json:"embedSize"`
}

// Embedding maps token indices to dense vectors.
//
// Input shape: [batch, seq_len] of integral indices stored as float32.
// A rank-1 input is treated as a single sequence [1, seq_len].
// Output shape: [batch, seq_len, embed_size]
//
// Every index must be an integer in [0, vocab_size); anything else panics
// with a *BoundsError.
type Embedding struct {
	cfg    EmbeddingConfig
	weight *Parameter // [vocab_size, embed_size]
}

type embeddingCache struct {
	indices []int
	inShape tensor.Shape
}

// NewEmbedding creates a new Embedding layer with weights drawn from
// U(0, 0.01).
func NewEmbedding(vocabSize, embedSize int) *Embedding {
	return &Embedding{
		cfg:    EmbeddingConfig{VocabSize: vocabSize, EmbedSize: embedSize},
		weight: NewParameter("embedding.weight", UniformInit(0, 0.01, vocabSize, embedSize)),
	}
}

// Type returns "embedding".
func (e *Embedding) Type() string { return "embedding" }

// Config returns the layer configuration.
func (e *Embedding) Config() any { return e.cfg }

// Forward gathers one table row per index.
func (e *Embedding) Forward(input *tensor.Tensor) (*tensor.Tensor, Cache) {
	shape := input.Shape()
	batch, seq := 1, 0
	switch len(shape) {
	case 1:
		seq = shape[0]
	case 2:
		batch, seq = shape[0], shape[1]
	default:
		panic(shapeMismatch("Embedding.Forward", shape, "expected [batch, seq] indices"))
	}

	indices := make([]int, len(input.Data()))
	for i, v := range input.Data() {
		if !validIndex(v, e.cfg.VocabSize) {
			panic(&BoundsError{Op: "Embedding.Forward", Index: v, Limit: e.cfg.VocabSize})
		}
		indices[i] = int(v)
	}

	dim := e.cfg.EmbedSize
	out := tensor.Zeros(batch, seq, dim)
	o, w := out.Data(), e.weight.Tensor().Data()
	for i, idx := range indices {
		copy(o[i*dim:(i+1)*dim], w[idx*dim:(idx+1)*dim])
	}
	return out, &embeddingCache{indices: indices, inShape: shape.Clone()}
}

// Backward scatter-adds the gradient rows into the table gradient. Indices
// are not differentiable, so the returned input gradient is all zeros.
func (e *Embedding) Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor {
	c := cacheAs[*embeddingCache]("Embedding.Backward", cache)
	dim := e.cfg.EmbedSize
	if grad.NumElements() != len(c.indices)*dim {
		panic(shapeMismatch("Embedding.Backward", grad.Shape(),
			"expected %d elements", len(c.indices)*dim))
	}

	dW := tensor.ZerosLike(e.weight.Tensor())
	dw, g := dW.Data(), grad.Data()
	for i, idx := range c.indices {
		row := dw[idx*dim : (idx+1)*dim]
		for j, v := range g[i*dim : (i+1)*dim] {
			row[j] += v
		}
	}
	e.weight.SetGrad(dW)
	return tensor.Zeros(c.inShape...)
}

// Parameters returns [weight].
func (e *Embedding) Parameters() []*Parameter {
	return []*Parameter{e.weight}
}

// Weight returns the embedding table.
func (e *Embedding) Weight() *Parameter {
	return e.weight
}
