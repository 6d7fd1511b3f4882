package nn

import (
	"github.com/born-ml/lle/internal/tensor"
	"github.com/chewxy/math32"
)

// AttentionConfig is the serialized configuration of SelfAttention and
// TransformerBlock layers. Only single-head attention is supported.
type AttentionConfig struct {
	EmbedSize int `json:"embedSize"`
	Heads     int `json:"heads"`
}

// SelfAttention implements single-head scaled dot-product self-attention.
//
//	Q, K, V = x @ Wq + bq, x @ Wk + bk, x @ Wv + bv
//	A = softmax(Q @ Kᵀ / sqrt(embed_size))
//	y = (A @ V) @ Wo + bo
//
// Input and output shape: [batch, seq_len, embed_size]
//
// Backward propagates through the softmax Jacobian and all four
// projections, so every projection receives a gradient.
type SelfAttention struct {
	cfg   AttentionConfig
	query *Dense
	key   *Dense
	value *Dense
	out   *Dense
}

type attentionCache struct {
	q, k, v *tensor.Tensor // [batch, seq, embed]
	attn    *tensor.Tensor // [batch, seq, seq]

	qCache, kCache, vCache, outCache Cache
}

// NewSelfAttention creates a single-head self-attention layer.
func NewSelfAttention(embedSize int) *SelfAttention {
	return &SelfAttention{
		cfg:   AttentionConfig{EmbedSize: embedSize, Heads: 1},
		query: newNamedDense("attention.query", embedSize, embedSize),
		key:   newNamedDense("attention.key", embedSize, embedSize),
		value: newNamedDense("attention.value", embedSize, embedSize),
		out:   newNamedDense("attention.out", embedSize, embedSize),
	}
}

// Type returns "self_attention".
func (a *SelfAttention) Type() string { return "self_attention" }

// Config returns the layer configuration.
func (a *SelfAttention) Config() any { return a.cfg }

// Forward computes attention over the sequence axis of each batch element.
func (a *SelfAttention) Forward(input *tensor.Tensor) (*tensor.Tensor, Cache) {
	shape := input.Shape()
	if len(shape) != 3 || shape[2] != a.cfg.EmbedSize {
		panic(shapeMismatch("SelfAttention.Forward", shape, "expected [batch, seq, %d]", a.cfg.EmbedSize))
	}
	batch, seq, embed := shape[0], shape[1], shape[2]
	scale := 1 / math32.Sqrt(float32(embed))

	c := &attentionCache{}
	c.q, c.qCache = a.query.Forward(input)
	c.k, c.kCache = a.key.Forward(input)
	c.v, c.vCache = a.value.Forward(input)

	c.attn = tensor.Zeros(batch, seq, seq)
	ctx := tensor.Zeros(batch, seq, embed)
	for b := 0; b < batch; b++ {
		q, k, v := batchMatrix(c.q, b), batchMatrix(c.k, b), batchMatrix(c.v, b)

		scores := q.MatMul(k.Transpose()).MulScalar(scale)
		sd := scores.Data()
		for i := 0; i < seq; i++ {
			softmaxRow(sd[i*seq : (i+1)*seq])
		}
		setBatchMatrix(c.attn, b, scores)
		setBatchMatrix(ctx, b, scores.MatMul(v))
	}

	out, oc := a.out.Forward(ctx)
	c.outCache = oc
	return out, c
}

// Backward propagates through the output projection, the attention
// weights and the three input projections.
func (a *SelfAttention) Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor {
	c := cacheAs[*attentionCache]("SelfAttention.Backward", cache)
	batch, seq, embed := c.q.Dim(0), c.q.Dim(1), c.q.Dim(2)
	scale := 1 / math32.Sqrt(float32(embed))

	dCtx := a.out.Backward(c.outCache, grad)

	dQ := tensor.Zeros(batch, seq, embed)
	dK := tensor.Zeros(batch, seq, embed)
	dV := tensor.Zeros(batch, seq, embed)
	for b := 0; b < batch; b++ {
		q, k, v := batchMatrix(c.q, b), batchMatrix(c.k, b), batchMatrix(c.v, b)
		attn, dc := batchMatrix(c.attn, b), batchMatrix(dCtx, b)

		dAttn := dc.MatMul(v.Transpose())
		setBatchMatrix(dV, b, attn.Transpose().MatMul(dc))

		// Softmax Jacobian per row: dS = A * (dA - rowsum(dA * A)).
		ad, dad := attn.Data(), dAttn.Data()
		dScores := tensor.Zeros(seq, seq)
		ds := dScores.Data()
		for i := 0; i < seq; i++ {
			var dot float32
			for j := 0; j < seq; j++ {
				dot += dad[i*seq+j] * ad[i*seq+j]
			}
			for j := 0; j < seq; j++ {
				ds[i*seq+j] = ad[i*seq+j] * (dad[i*seq+j] - dot) * scale
			}
		}

		setBatchMatrix(dQ, b, dScores.MatMul(k))
		setBatchMatrix(dK, b, dScores.Transpose().MatMul(q))
	}

	dx := a.query.Backward(c.qCache, dQ)
	dx.AddInPlace(a.key.Backward(c.kCache, dK))
	dx.AddInPlace(a.value.Backward(c.vCache, dV))
	return dx
}

// Parameters returns the query, key, value and output projection parameters.
func (a *SelfAttention) Parameters() []*Parameter {
	return collectParameters(a.query, a.key, a.value, a.out)
}

// batchMatrix copies batch element b of a rank-3 tensor into a matrix.
func batchMatrix(t *tensor.Tensor, b int) *tensor.Tensor {
	rows, cols := t.Dim(1), t.Dim(2)
	return t.Slice(b*rows*cols, (b+1)*rows*cols).Reshape(rows, cols)
}

// setBatchMatrix writes m into batch element b of a rank-3 tensor.
func setBatchMatrix(t *tensor.Tensor, b int, m *tensor.Tensor) {
	n := m.NumElements()
	copy(t.Data()[b*n:(b+1)*n], m.Data())
}
