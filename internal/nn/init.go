package nn

import (
	"math/rand"
	"sync"
	"time"

	"github.com/born-ml/lle/internal/tensor"
	"github.com/chewxy/math32"
)

var (
	rngMu sync.Mutex
	//nolint:gosec // math/rand is appropriate for weight initialization and dropout masks
	rng = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// Seed reseeds the generator used for weight initialization and dropout
// masks, making model construction reproducible.
func Seed(seed int64) {
	rngMu.Lock()
	defer rngMu.Unlock()
	//nolint:gosec // not security-critical
	rng = rand.New(rand.NewSource(seed))
}

func randFloat32() float32 {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Float32()
}

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// This initialization helps maintain variance of activations across layers.
func Xavier(fanIn, fanOut int, shape ...int) *tensor.Tensor {
	bound := math32.Sqrt(6.0 / float32(fanIn+fanOut))
	return UniformInit(-bound, bound, shape...)
}

// UniformInit creates a tensor with values drawn from U(low, high).
func UniformInit(low, high float32, shape ...int) *tensor.Tensor {
	t := tensor.Zeros(shape...)
	data := t.Data()
	for i := range data {
		data[i] = low + (high-low)*randFloat32()
	}
	return t
}
