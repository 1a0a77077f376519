// Package fanout provides a small bounded-concurrency worker pool, the
// Go equivalent of the "iterator of work items -> bounded concurrent
// map -> collected outcome" shape every network-touching stage in
// spec.md §5 requires. It is grounded on the semaphore + WaitGroup
// shape of the teacher's executeQueries() in
// internal/process/enrichment/worker.go (see DESIGN.md).
package fanout

import "sync"

// Map runs fn over every item in items with at most concurrency workers
// in flight at once, and returns results in the same order as items.
// A concurrency of less than 1 is treated as 1.
func Map[T, R any](items []T, concurrency int, fn func(item T) R) []R {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]R, len(items))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, item T) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = fn(item)
		}(i, item)
	}

	wg.Wait()
	return results
}
