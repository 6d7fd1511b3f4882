package data

import (
	"errors"
	"fmt"
	"iter"
	"math/rand"
	"time"

	"github.com/born-ml/lle/internal/tensor"
)

// LoaderConfig configures mini-batch iteration.
type LoaderConfig struct {
	BatchSize int  // Examples per batch (must be > 0)
	Shuffle   bool // Reorder examples with Fisher-Yates before every pass
	DropLast  bool // Skip a final batch smaller than BatchSize
	Seed      int64
}

// Batch is one stacked mini-batch.
type Batch struct {
	Inputs  *tensor.Tensor // [batch, ...inputShape]
	Targets *tensor.Tensor // [batch, ...targetShape]
}

// Loader groups the examples of a Dataset into stacked mini-batches.
//
// Example:
//
//	loader, err := data.NewLoader(ds, data.LoaderConfig{BatchSize: 32, Shuffle: true})
//	for batch := range loader.Batches() {
//	    pred, trace, err := model.Forward(batch.Inputs)
//	    ...
//	}
type Loader struct {
	ds      *Dataset
	cfg     LoaderConfig
	indices []int
	rng     *rand.Rand
}

// NewLoader validates ds and creates a loader over it.
func NewLoader(ds *Dataset, cfg LoaderConfig) (*Loader, error) {
	if cfg.BatchSize <= 0 {
		return nil, errors.New("data.NewLoader: batch size must be positive")
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("data.NewLoader: %w", err)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	indices := make([]int, ds.Len())
	for i := range indices {
		indices[i] = i
	}
	return &Loader{
		ds:      ds,
		cfg:     cfg,
		indices: indices,
		//nolint:gosec // shuffling order is not security-sensitive
		rng: rand.New(rand.NewSource(seed)),
	}, nil
}

// Len returns the number of batches one pass yields.
func (l *Loader) Len() int {
	n := l.ds.Len()
	if l.cfg.DropLast {
		return n / l.cfg.BatchSize
	}
	return (n + l.cfg.BatchSize - 1) / l.cfg.BatchSize
}

// Batches returns one pass over the dataset. With Shuffle set, every call
// draws a fresh order.
func (l *Loader) Batches() iter.Seq[Batch] {
	if l.cfg.Shuffle {
		l.shuffle()
	}
	order := append([]int(nil), l.indices...)
	return func(yield func(Batch) bool) {
		n := len(order)
		for start := 0; start < n; start += l.cfg.BatchSize {
			end := min(start+l.cfg.BatchSize, n)
			if l.cfg.DropLast && end-start < l.cfg.BatchSize {
				return
			}
			if !yield(l.stack(order[start:end])) {
				return
			}
		}
	}
}

func (l *Loader) shuffle() {
	for i := len(l.indices) - 1; i > 0; i-- {
		j := l.rng.Intn(i + 1)
		l.indices[i], l.indices[j] = l.indices[j], l.indices[i]
	}
}

// stack cannot fail: NewLoader checked every example against the first.
func (l *Loader) stack(idx []int) Batch {
	sub := l.ds.Subset(idx)
	inputs, err := Stack(sub.Inputs)
	if err != nil {
		panic(err)
	}
	targets, err := Stack(sub.Targets)
	if err != nil {
		panic(err)
	}
	return Batch{Inputs: inputs, Targets: targets}
}
