package nn

import (
	"github.com/born-ml/lle/internal/tensor"
)

// GlobalAveragePooling1D averages over the sequence axis:
// [batch, seq_len, features] -> [batch, features].
type GlobalAveragePooling1D struct{ stateless }

type poolCache struct {
	inShape tensor.Shape
}

// NewGlobalAveragePooling1D creates a new pooling layer.
func NewGlobalAveragePooling1D() *GlobalAveragePooling1D { return &GlobalAveragePooling1D{} }

// Type returns "global_avg_pool_1d".
func (p *GlobalAveragePooling1D) Type() string { return "global_avg_pool_1d" }

// Forward averages each feature over the sequence.
func (p *GlobalAveragePooling1D) Forward(input *tensor.Tensor) (*tensor.Tensor, Cache) {
	shape := input.Shape()
	if len(shape) != 3 || shape[1] == 0 {
		panic(shapeMismatch("GlobalAveragePooling1D.Forward", shape, "expected non-empty [batch, seq, features]"))
	}
	batch, seq, feat := shape[0], shape[1], shape[2]

	out := tensor.Zeros(batch, feat)
	x, o := input.Data(), out.Data()
	for b := 0; b < batch; b++ {
		for s := 0; s < seq; s++ {
			row := x[(b*seq+s)*feat : (b*seq+s+1)*feat]
			for f, v := range row {
				o[b*feat+f] += v
			}
		}
	}
	inv := 1 / float32(seq)
	for i := range o {
		o[i] *= inv
	}
	return out, &poolCache{inShape: shape.Clone()}
}

// Backward spreads grad/seq_len evenly across the sequence.
func (p *GlobalAveragePooling1D) Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor {
	c := cacheAs[*poolCache]("GlobalAveragePooling1D.Backward", cache)
	batch, seq, feat := c.inShape[0], c.inShape[1], c.inShape[2]
	if !grad.Shape().Equal(tensor.Shape{batch, feat}) {
		panic(shapeMismatch("GlobalAveragePooling1D.Backward", grad.Shape(), "expected gradient [%d, %d]", batch, feat))
	}

	dx := tensor.Zeros(c.inShape...)
	d, g := dx.Data(), grad.Data()
	inv := 1 / float32(seq)
	for b := 0; b < batch; b++ {
		for s := 0; s < seq; s++ {
			for f := 0; f < feat; f++ {
				d[(b*seq+s)*feat+f] = g[b*feat+f] * inv
			}
		}
	}
	return dx
}
