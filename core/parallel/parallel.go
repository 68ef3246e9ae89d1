package parallel

import (
	"runtime"
	"sync"

	"github.com/YuminosukeSato/carprice/pkg/errors"
)

// Workers resolves an n_jobs style value: values <= 0 mean one worker per CPU,
// and the result never exceeds items.
func Workers(nJobs, items int) int {
	workers := nJobs
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// Parallelize divides items into contiguous chunks, one per worker, and runs
// fn(start, end) for each chunk concurrently.
func Parallelize(items, nJobs int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := Workers(nJobs, items)
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ForEach calls fn(i) for every i in [0, items) on up to nJobs workers.
// A panic inside fn is recovered into an error. The error returned is the one
// with the lowest index, so the outcome does not depend on scheduling.
func ForEach(items, nJobs int, operation string, fn func(i int) error) error {
	if items == 0 {
		return nil
	}

	errs := make([]error, items)
	run := func(start, end int) {
		for i := start; i < end; i++ {
			idx := i
			errs[idx] = errors.SafeExecute(operation, func() error { return fn(idx) })
		}
	}

	if Workers(nJobs, items) == 1 {
		run(0, items)
	} else {
		Parallelize(items, nJobs, run)
	}

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
