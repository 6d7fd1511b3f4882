// Package parallel splits index loops across goroutines for the CPU kernels
// of the tensor and nn packages.
//
// Every index is visited by exactly one goroutine, so kernels that write
// disjoint outputs per index produce the same result as a sequential loop.
package parallel

import (
	"runtime"
	"sync"
)

// minWork is the approximate number of scalar operations below which a
// chunk is not worth a goroutine.
const minWork = 1 << 14

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// WithCost returns cfg with MinChunkSize raised so that a chunk of items
// costing perItem operations each amounts to at least minWork operations.
func (c Config) WithCost(perItem int) Config {
	if perItem < 1 {
		perItem = 1
	}
	c.MinChunkSize = max(c.MinChunkSize, (minWork+perItem-1)/perItem)
	return c
}

// For executes f(i) for i in [0, n), in parallel when enabled and n is
// at least one chunk.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < 2*max(cfg.MinChunkSize, 1) {
		for i := range n {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForBatch iterates the batch x channels grid, as used by Conv2D.
func ForBatch(batch, channels int, f func(b, c int), cfg Config) {
	For(batch*channels, func(k int) {
		f(k/channels, k%channels)
	}, cfg)
}
