package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelizeCoversEveryItem(t *testing.T) {
	for _, items := range []int{0, 1, 7, 1000, 4097} {
		seen := make([]int32, items)
		Parallelize(items, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, n := range seen {
			assert.Equal(t, int32(1), n, "items=%d index=%d", items, i)
		}
	}
}

func TestParallelizeWithThresholdRunsOnceBelowThreshold(t *testing.T) {
	var calls int32
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, int32(1), calls)
}

func TestSumWithThreshold(t *testing.T) {
	rows := func(start, end int) []float64 {
		out := make([]float64, 2)
		for i := start; i < end; i++ {
			out[0] += float64(i)
			out[1]++
		}
		return out
	}

	for _, threshold := range []int{0, 10000} {
		got := SumWithThreshold(5000, threshold, 2, rows)
		assert.Equal(t, []float64{5000 * 4999 / 2, 5000}, got, "threshold=%d", threshold)
	}
	assert.Equal(t, []float64{0, 0}, SumWithThreshold(0, 0, 2, rows))
}
