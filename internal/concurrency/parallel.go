package concurrency

import (
	"context"
	"sync"
)

// ParallelOptions configures the bounded worker pool. Every pipeline stage
// gets exactly one cap; call sites never pick their own constant.
type ParallelOptions struct {
	// MaxWorkers is the maximum number of items processed at once.
	MaxWorkers int
}

func DefaultOptions() ParallelOptions {
	return ParallelOptions{MaxWorkers: 10}
}

// ProcessParallel runs itemFunc over items with at most MaxWorkers in
// flight. Results come back in input order; errors are collected, never
// aborting the remaining items.
func ProcessParallel[T any, R any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, index int, item T) (R, error),
) ([]R, []error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = DefaultOptions().MaxWorkers
	}
	if maxWorkers > len(items) {
		maxWorkers = len(items)
	}

	jobs := make(chan int, len(items))
	type outcome struct {
		index  int
		result R
		err    error
	}
	results := make(chan outcome, len(items))

	var wg sync.WaitGroup
	for w := 0; w < maxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
					r, err := itemFunc(ctx, i, items[i])
					results <- outcome{index: i, result: r, err: err}
				}
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	resultList := make([]R, len(items))
	var errs []error
	for o := range results {
		if o.err != nil {
			errs = append(errs, o.err)
		}
		resultList[o.index] = o.result
	}

	return resultList, errs
}

// FlatMap runs itemFunc over items under the same bound and flattens the
// per-item slices. The fetch and compare stages both fan a list of work
// units into a list of records, so this is the shape they share.
func FlatMap[T any, R any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, item T) ([]R, error),
) ([]R, []error) {
	lists, errs := ProcessParallel(ctx, items, opts, func(ctx context.Context, _ int, item T) ([]R, error) {
		return itemFunc(ctx, item)
	})

	var flat []R
	for _, list := range lists {
		flat = append(flat, list...)
	}
	return flat, errs
}
