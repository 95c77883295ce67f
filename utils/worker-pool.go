package utils

import (
	"runtime"
	"sync"
)

// ProcessBatch runs workFunc over items on a fixed pool of worker goroutines
// and returns the results in input order. Results are indexed back into
// position rather than collected in completion order, so callers get the
// same output regardless of scheduling. workers <= 0 means one per CPU.
func ProcessBatch[J, R any](items []J, workers int, workFunc func(J) R) []R {
	if len(items) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(items) {
		workers = len(items)
	}

	results := make([]R, len(items))
	jobs := make(chan int)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = workFunc(items[i])
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
