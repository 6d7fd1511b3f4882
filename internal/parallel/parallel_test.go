package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}

	n := 1000
	seen := make([]int32, n)
	For(n, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	}, cfg)

	for i, v := range seen {
		assert.EqualValues(t, 1, v, "index %d", i)
	}
}

func TestForBatch(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 2}

	batch, channels := 4, 8
	var hits [4][8]int32
	ForBatch(batch, channels, func(b, c int) {
		atomic.AddInt32(&hits[b][c], 1)
	}, cfg)

	for b := range batch {
		for c := range channels {
			assert.EqualValues(t, 1, hits[b][c], "[%d][%d]", b, c)
		}
	}
}

func TestFor_Sequential(t *testing.T) {
	var order []int
	For(5, func(i int) { order = append(order, i) }, Config{Enabled: false})
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestWithCost(t *testing.T) {
	cfg := Config{MinChunkSize: 64}
	assert.Equal(t, 64, cfg.WithCost(1<<20).MinChunkSize)
	assert.Equal(t, minWork/16, cfg.WithCost(16).MinChunkSize)
	assert.Equal(t, minWork, cfg.WithCost(0).MinChunkSize)
}
