package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the default number of concurrent requests.
const DefaultConcurrency = 5

// BulkResult is the outcome of one operation of a bulk run.
type BulkResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`

	err error
}

// runBulkOperation runs operation for every id with bounded parallelism.
// Individual failures are recorded, not propagated. Results keep the order
// of ids.
func runBulkOperation[T any](
	ctx context.Context,
	ids []string,
	concurrency int64,
	progress io.Writer,
	operation func(ctx context.Context, id string) (T, error),
) []BulkResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if progress == nil {
		progress = io.Discard
	}

	sem := semaphore.NewWeighted(concurrency)
	var mu sync.Mutex
	results := make([]BulkResult, 0, len(ids))
	order := make(map[string]int, len(ids))
	total := len(ids)
	var done int64

	g, ctx := errgroup.WithContext(ctx)

	for i, id := range ids {
		order[id] = i
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			if ctx.Err() != nil {
				return nil
			}

			data, err := operation(ctx, id)

			mu.Lock()
			if err != nil {
				results = append(results, BulkResult{ID: id, Error: err.Error(), err: err})
			} else {
				results = append(results, BulkResult{ID: id, Success: true, Data: data})
			}
			current := atomic.AddInt64(&done, 1)
			_, _ = fmt.Fprintf(progress, "\rProcessed %d/%d", current, total)
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()
	if total > 0 {
		_, _ = fmt.Fprintln(progress)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return order[results[i].ID] < order[results[j].ID]
	})
	return results
}

// countResults returns success and failure counts.
func countResults(results []BulkResult) (success, failure int) {
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failure++
		}
	}
	return
}

// firstFailure returns the error of the first failed result.
func firstFailure(results []BulkResult) error {
	for _, r := range results {
		if !r.Success {
			return r.err
		}
	}
	return nil
}
