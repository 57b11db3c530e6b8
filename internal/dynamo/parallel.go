package dynamo

import (
	"runtime"
	"sync"
)

// DefaultWorkers is the worker count ParallelFor fans out to.
var DefaultWorkers = runtime.NumCPU()

// ParallelFor splits [0, n) into contiguous chunks of at least minChunk
// and runs fn on each chunk in its own goroutine, at most DefaultWorkers
// at once. It returns when every chunk is done.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if minChunk < 1 {
		minChunk = 1
	}
	numWorkers := DefaultWorkers
	if n <= minChunk || numWorkers <= 1 {
		fn(0, n)
		return
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
