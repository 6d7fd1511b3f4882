package nn

import (
	"fmt"

	"github.com/born-ml/lle/internal/tensor"
	"github.com/chewxy/math32"
)

// BatchNormConfig is the serialized configuration of a BatchNormalization
// layer. The running statistics travel with the configuration so that a
// reloaded model evaluates exactly like the saved one.
type BatchNormConfig struct {
	Size        int       `json:"size"`
	Epsilon     float32   `json:"epsilon"`
	Momentum    float32   `json:"momentum"`
	RunningMean []float32 `json:"runningMean,omitempty"`
	RunningVar  []float32 `json:"runningVar,omitempty"`
}

// Default batch normalization hyperparameters.
const (
	DefaultBatchNormEpsilon  = 1e-5
	DefaultBatchNormMomentum = 0.9
)

// BatchNormalization normalizes each feature over the batch.
//
// For rank-4 inputs [batch, channels, height, width] the feature axis is 1
// and statistics are taken over batch, height and width. For any other rank
// the feature axis is the last one and every leading dimension is folded
// into the batch.
//
// In training mode the batch statistics are used and the running averages
// are updated as running = momentum*running + (1-momentum)*batch.
// In evaluation mode the running averages are used.
type BatchNormalization struct {
	size     int
	epsilon  float32
	momentum float32
	training bool

	gamma *Parameter // [size], initialized to ones
	beta  *Parameter // [size], initialized to zeros

	runningMean []float32
	runningVar  []float32
}

type batchNormCache struct {
	xhat     *tensor.Tensor
	invStd   []float32
	training bool
}

// NewBatchNormalization creates a batch normalization layer over size
// features with the default epsilon and momentum.
func NewBatchNormalization(size int) *BatchNormalization {
	return NewBatchNormalizationWithConfig(BatchNormConfig{Size: size})
}

// NewBatchNormalizationWithConfig creates a batch normalization layer from
// a full configuration. Zero epsilon and momentum select the defaults and
// missing running statistics start at mean 0, variance 1.
func NewBatchNormalizationWithConfig(cfg BatchNormConfig) *BatchNormalization {
	if cfg.Epsilon == 0 {
		cfg.Epsilon = DefaultBatchNormEpsilon
	}
	if cfg.Momentum == 0 {
		cfg.Momentum = DefaultBatchNormMomentum
	}

	bn := &BatchNormalization{
		size:        cfg.Size,
		epsilon:     cfg.Epsilon,
		momentum:    cfg.Momentum,
		training:    true,
		gamma:       NewParameter("batchnorm.gamma", tensor.Ones(cfg.Size)),
		beta:        NewParameter("batchnorm.beta", tensor.Zeros(cfg.Size)),
		runningMean: make([]float32, cfg.Size),
		runningVar:  make([]float32, cfg.Size),
	}
	for i := range bn.runningVar {
		bn.runningVar[i] = 1
	}
	if len(cfg.RunningMean) == cfg.Size {
		copy(bn.runningMean, cfg.RunningMean)
	}
	if len(cfg.RunningVar) == cfg.Size {
		copy(bn.runningVar, cfg.RunningVar)
	}
	return bn
}

// Type returns "batchnorm".
func (bn *BatchNormalization) Type() string { return "batchnorm" }

// Config returns the configuration including a snapshot of the running
// statistics.
func (bn *BatchNormalization) Config() any {
	return bn.snapshot()
}

func (bn *BatchNormalization) snapshot() BatchNormConfig {
	return BatchNormConfig{
		Size:        bn.size,
		Epsilon:     bn.epsilon,
		Momentum:    bn.momentum,
		RunningMean: append([]float32(nil), bn.runningMean...),
		RunningVar:  append([]float32(nil), bn.runningVar...),
	}
}

// nestedBatchNorm rebuilds a normalization layer owned by a composite
// layer. A nil cfg yields fresh statistics.
func nestedBatchNorm(size int, cfg *BatchNormConfig) *BatchNormalization {
	if cfg == nil {
		return NewBatchNormalization(size)
	}
	c := *cfg
	c.Size = size
	return NewBatchNormalizationWithConfig(c)
}

// checkNested reports a nested normalization config whose size or running
// statistics do not match the owning layer.
func checkNested(name string, size int, cfg *BatchNormConfig) error {
	if cfg == nil {
		return nil
	}
	if cfg.Size != size {
		return fmt.Errorf("%s: size %d, want %d", name, cfg.Size, size)
	}
	if n := len(cfg.RunningMean); n != 0 && n != size {
		return fmt.Errorf("%s: %d running means for %d features", name, n, size)
	}
	if n := len(cfg.RunningVar); n != 0 && n != size {
		return fmt.Errorf("%s: %d running variances for %d features", name, n, size)
	}
	return nil
}

// SetTraining switches between batch and running statistics.
func (bn *BatchNormalization) SetTraining(training bool) { bn.training = training }

// RunningMean returns a copy of the running mean.
func (bn *BatchNormalization) RunningMean() []float32 {
	return append([]float32(nil), bn.runningMean...)
}

// RunningVar returns a copy of the running variance.
func (bn *BatchNormalization) RunningVar() []float32 {
	return append([]float32(nil), bn.runningVar...)
}

// featureIndex returns the mapping from flat element index to feature and
// the number of elements per feature.
func (bn *BatchNormalization) featureIndex(op string, shape tensor.Shape) (func(int) int, int) {
	if len(shape) == 4 {
		if shape[1] != bn.size {
			panic(shapeMismatch(op, shape, "expected %d channels on axis 1", bn.size))
		}
		plane := shape[2] * shape[3]
		return func(i int) int { return (i / plane) % bn.size }, shape[0] * plane
	}
	if len(shape) == 0 || shape.Last() != bn.size {
		panic(shapeMismatch(op, shape, "expected last dimension %d", bn.size))
	}
	return func(i int) int { return i % bn.size }, shape.Leading()
}

// Forward normalizes the input and applies the affine transform.
func (bn *BatchNormalization) Forward(input *tensor.Tensor) (*tensor.Tensor, Cache) {
	feature, n := bn.featureIndex("BatchNormalization.Forward", input.Shape())
	x := input.Data()

	mean, variance := bn.runningMean, bn.runningVar
	if bn.training {
		mean = make([]float32, bn.size)
		variance = make([]float32, bn.size)
		for i, v := range x {
			mean[feature(i)] += v
		}
		for c := range mean {
			mean[c] /= float32(n)
		}
		for i, v := range x {
			d := v - mean[feature(i)]
			variance[feature(i)] += d * d
		}
		for c := range variance {
			variance[c] /= float32(n)
			bn.runningMean[c] = bn.momentum*bn.runningMean[c] + (1-bn.momentum)*mean[c]
			bn.runningVar[c] = bn.momentum*bn.runningVar[c] + (1-bn.momentum)*variance[c]
		}
	}

	invStd := make([]float32, bn.size)
	for c := range invStd {
		invStd[c] = 1 / math32.Sqrt(variance[c]+bn.epsilon)
	}

	gamma, beta := bn.gamma.Tensor().Data(), bn.beta.Tensor().Data()
	xhat := tensor.ZerosLike(input)
	out := tensor.ZerosLike(input)
	xh, o := xhat.Data(), out.Data()
	for i, v := range x {
		c := feature(i)
		xh[i] = (v - mean[c]) * invStd[c]
		o[i] = gamma[c]*xh[i] + beta[c]
	}

	return out, &batchNormCache{xhat: xhat, invStd: invStd, training: bn.training}
}

// Backward computes gradients for gamma, beta and the input.
func (bn *BatchNormalization) Backward(cache Cache, grad *tensor.Tensor) *tensor.Tensor {
	c := cacheAs[*batchNormCache]("BatchNormalization.Backward", cache)
	feature, n := bn.featureIndex("BatchNormalization.Backward", grad.Shape())

	g, xh := grad.Data(), c.xhat.Data()
	gamma := bn.gamma.Tensor().Data()

	dGamma := tensor.Zeros(bn.size)
	dBeta := tensor.Zeros(bn.size)
	dg, db := dGamma.Data(), dBeta.Data()
	sumDxhat := make([]float32, bn.size)
	sumDxhatXhat := make([]float32, bn.size)
	for i, v := range g {
		f := feature(i)
		dg[f] += v * xh[i]
		db[f] += v
		dxhat := v * gamma[f]
		sumDxhat[f] += dxhat
		sumDxhatXhat[f] += dxhat * xh[i]
	}
	bn.gamma.SetGrad(dGamma)
	bn.beta.SetGrad(dBeta)

	dx := tensor.ZerosLike(grad)
	d := dx.Data()
	nf := float32(n)
	for i, v := range g {
		f := feature(i)
		dxhat := v * gamma[f]
		if !c.training {
			d[i] = dxhat * c.invStd[f]
			continue
		}
		d[i] = c.invStd[f] / nf * (nf*dxhat - sumDxhat[f] - xh[i]*sumDxhatXhat[f])
	}
	return dx
}

// Parameters returns [gamma, beta].
func (bn *BatchNormalization) Parameters() []*Parameter {
	return []*Parameter{bn.gamma, bn.beta}
}
