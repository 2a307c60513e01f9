package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunBulkOperation_Success(t *testing.T) {
	ids := []string{"1", "2", "3", "4", "5"}
	var calls atomic.Int32

	results := runBulkOperation(context.Background(), ids, 5, nil,
		func(_ context.Context, id string) (string, error) {
			calls.Add(1)
			return "ok-" + id, nil
		},
	)

	if calls.Load() != 5 {
		t.Errorf("expected 5 calls, got %d", calls.Load())
	}
	success, failure := countResults(results)
	if success != 5 || failure != 0 {
		t.Errorf("success=%d failure=%d", success, failure)
	}
	for i, r := range results {
		if r.ID != ids[i] || r.Data != "ok-"+ids[i] {
			t.Errorf("results[%d] = %+v", i, r)
		}
	}
}

func TestRunBulkOperation_PartialFailure(t *testing.T) {
	boom := errors.New("failed")
	results := runBulkOperation(context.Background(), []string{"a", "b", "c"}, 2, nil,
		func(_ context.Context, id string) (string, error) {
			if id == "b" {
				return "", boom
			}
			return "ok", nil
		},
	)

	success, failure := countResults(results)
	if success != 2 || failure != 1 {
		t.Errorf("success=%d failure=%d", success, failure)
	}
	if results[1].Success || results[1].Error != "failed" {
		t.Errorf("results[1] = %+v", results[1])
	}
	if !errors.Is(firstFailure(results), boom) {
		t.Errorf("firstFailure = %v", firstFailure(results))
	}
}

func TestRunBulkOperation_Concurrency(t *testing.T) {
	ids := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	var current, peak atomic.Int32

	runBulkOperation(context.Background(), ids, 3, nil,
		func(_ context.Context, _ string) (struct{}, error) {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
			return struct{}{}, nil
		},
	)

	if peak.Load() > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak.Load())
	}
}

func TestRunBulkOperation_Progress(t *testing.T) {
	var progress bytes.Buffer
	runBulkOperation(context.Background(), []string{"1", "2"}, 0, &progress,
		func(_ context.Context, _ string) (int, error) { return 0, nil },
	)
	if !strings.Contains(progress.String(), "Processed 2/2") {
		t.Errorf("progress = %q", progress.String())
	}
}

func TestRunBulkOperation_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results := runBulkOperation(ctx, []string{"1", "2", "3"}, 1, nil,
		func(_ context.Context, _ string) (int, error) {
			calls.Add(1)
			return 0, nil
		},
	)
	if calls.Load() != 0 || len(results) != 0 {
		t.Errorf("calls=%d results=%d, want none", calls.Load(), len(results))
	}
}
