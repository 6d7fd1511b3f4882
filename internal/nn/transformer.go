package nn

import (
	"github.com/born-ml/lle/internal/tensor"
)

// TransformerBlockConfig is the serialized configuration of a
// TransformerBlock. Norm1 and Norm2 carry the running statistics of its
// normalization layers.
type TransformerBlockConfig struct {
	EmbedSize int              `json:"embedSize"`
	Heads     int              `json:"heads"`
	Norm1     *BatchNormConfig `json:"norm1,omitempty"`
	Norm2     *BatchNormConfig `json:"norm2,omitempty"`
}

// TransformerBlock is a post-norm encoder block:
//
//	h = BatchNorm(x + SelfAttention(x))
//	y = BatchNorm(h + Dense(Dropout(ReLU(Dense(h)))))
//
// The feed-forward network expands to 4*embed_size and uses dropout 0.1.
//
// Input and output shape: [batch, seq_len, embed_size]
type TransformerBlock struct {
	embedSize int
	attention *SelfAttention
	norm1     *BatchNormalization
	ff1       *Dense
	relu      *ReLU
	dropout   *Dropout
	ff2       *Dense
	norm2     *BatchNormalization
}

type transformerCache struct {
	attn, norm1, ff1, relu, dropout, ff2, norm2 Cache
}

// NewTransformerBlock creates a single-head transformer encoder block.
func NewTransformerBlock(embedSize int) *TransformerBlock {
	return NewTransformerBlockWithConfig(TransformerBlockConfig{EmbedSize: embedSize})
}

// NewTransformerBlockWithConfig creates a transformer block from a full
// configuration, restoring the normalization statistics it carries.
func NewTransformerBlockWithConfig(cfg TransformerBlockConfig) *TransformerBlock {
	embedSize := cfg.EmbedSize
	return &TransformerBlock{
		embedSize: embedSize,
		attention: NewSelfAttention(embedSize),
		norm1:     nestedBatchNorm(embedSize, cfg.Norm1),
		ff1:       newNamedDense("transformer.ff1", embedSize, 4*embedSize),
		relu:      NewReLU(),
		dropout:   NewDropout(0.1),
		ff2:       newNamedDense("transformer.ff2", 4*embedSize, embedSize),
		norm2:     nestedBatchNorm(embedSize, cfg.Norm2),
	}
}

// Type returns "transformer_block".
func (t *TransformerBlock) Type() string { return "transformer_block" }

// Config returns the layer configuration with a snapshot of both
// normalization layers.
func (t *TransformerBlock) Config() any {
	n1, n2 := t.norm1.snapshot(), t.norm2.snapshot()
	return TransformerBlockConfig{EmbedSize: t.embedSize, Heads: 1, Norm1: &n1, Norm2: &n2}
}

// SetTraining propagates the mode to the dropout and normalization layers.
func (t *TransformerBlock) SetTraining(training bool) {
	setTraining(training, t.norm1, t.dropout, t.norm2)
}

// Forward runs the attention and feed-forward sub-blocks.
func (t *TransformerBlock) Forward(input *tensor.Tensor) (*tensor.Tensor, Cache) {
	c := &transformerCache{}

	a, ac := t.attention.Forward(input)
	c.attn = ac
	h, hc := t.norm1.Forward(input.Add(a))
	c.norm1 = hc

	f, fc := t.ff1.Forward(h)
	c.ff1 = fc
	f, c.relu = t.relu.Forward(f)
	f, c.dropout = t.dropout.Forward(f)
	f, c.ff2 = t.ff2.Forward(f)

	out, oc := t.norm2.Forward(h.Add(f))
	c.norm2 = oc
	return out, c
}

// Backward sums the gradients of each residual branch.
func (t *TransformerBlock) Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor {
	c := cacheAs[*transformerCache]("TransformerBlock.Backward", cache)

	dr2 := t.norm2.Backward(c.norm2, grad)
	df := t.ff2.Backward(c.ff2, dr2)
	df = t.dropout.Backward(c.dropout, df)
	df = t.relu.Backward(c.relu, df)
	dh := t.ff1.Backward(c.ff1, df).AddInPlace(dr2)

	dr1 := t.norm1.Backward(c.norm1, dh)
	return t.attention.Backward(c.attn, dr1).AddInPlace(dr1)
}

// Parameters returns the parameters of every sub-layer in forward order.
func (t *TransformerBlock) Parameters() []*Parameter {
	return collectParameters(t.attention, t.norm1, t.ff1, t.ff2, t.norm2)
}
