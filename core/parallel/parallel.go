// Package parallel provides row-range parallel loops used by the estimators.
package parallel

import (
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// chunks splits [0, items) into at most one contiguous range per CPU core.
func chunks(items int) [][2]int {
	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}
	chunkSize := (items + numWorkers - 1) / numWorkers

	var out [][2]int
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

// Parallelize divides items according to the number of CPU cores and runs
// fn on each range (start, end) in its own goroutine.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	var wg sync.WaitGroup
	for _, c := range chunks(items) {
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(c[0], c[1])
	}
	wg.Wait()
}

// ParallelizeWithThreshold parallelizes only when items exceeds threshold.
// Below the threshold fn runs once over the whole range on the caller's goroutine.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// SumWithThreshold runs fn over row ranges and adds the partial results
// element-wise. Each call to fn returns a slice of length width.
// Partial sums are combined in range order, so the result does not depend on
// goroutine scheduling.
func SumWithThreshold(items, threshold, width int, fn func(start, end int) []float64) []float64 {
	total := make([]float64, width)
	if items <= 0 {
		return total
	}
	if items <= threshold {
		floats.Add(total, fn(0, items))
		return total
	}

	parts := chunks(items)
	partials := make([][]float64, len(parts))
	var wg sync.WaitGroup
	for i, c := range parts {
		wg.Add(1)
		go func(i, s, e int) {
			defer wg.Done()
			partials[i] = fn(s, e)
		}(i, c[0], c[1])
	}
	wg.Wait()

	for _, p := range partials {
		floats.Add(total, p)
	}
	return total
}
