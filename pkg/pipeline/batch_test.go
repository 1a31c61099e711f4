package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBatchCountsOutcomes(t *testing.T) {
	errBroken := errors.New("broken item")
	items := make([]Item, 0, 20)
	for i := 0; i < 20; i++ {
		fail := i%5 == 0
		items = append(items, Item{
			Name: "item",
			Run: func(ctx context.Context) *Result {
				res := &Result{Name: "item"}
				if fail {
					res.Err = errBroken
				}
				return res
			},
		})
	}

	sum := RunBatch(context.Background(), items, 4)
	assert.Equal(t, 16, sum.Done)
	assert.Equal(t, 4, sum.Failed)
	assert.Len(t, sum.Results, 20)
}

func TestRunBatchNeverStopsOnFailure(t *testing.T) {
	var ran atomic.Int32
	items := []Item{
		{Name: "a", Run: func(ctx context.Context) *Result {
			ran.Add(1)
			return &Result{Name: "a", Err: errors.New("first item fails")}
		}},
		{Name: "b", Run: func(ctx context.Context) *Result {
			ran.Add(1)
			return &Result{Name: "b"}
		}},
	}

	sum := RunBatch(context.Background(), items, 1)
	assert.Equal(t, int32(2), ran.Load())
	assert.Equal(t, 1, sum.Done)
	assert.Equal(t, 1, sum.Failed)
}

func TestRunBatchHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ran atomic.Int32
	items := make([]Item, 100)
	for i := range items {
		items[i] = Item{Name: "n", Run: func(ctx context.Context) *Result {
			if ran.Add(1) == 1 {
				cancel()
			}
			return &Result{Name: "n"}
		}}
	}

	sum := RunBatch(ctx, items, 1)
	// Single worker: the first item cancels, nothing else should start
	// beyond what was already handed out.
	assert.LessOrEqual(t, ran.Load(), int32(2))
	assert.LessOrEqual(t, len(sum.Results), 2)
}

func TestRunBatchClampsWorkerCount(t *testing.T) {
	items := []Item{{Name: "solo", Run: func(ctx context.Context) *Result {
		return &Result{Name: "solo"}
	}}}

	for _, workers := range []int{-1, 0, 1, 16} {
		sum := RunBatch(context.Background(), items, workers)
		require.Equal(t, 1, sum.Done, "workers=%d", workers)
	}
}

func TestRunBatchNilResult(t *testing.T) {
	items := []Item{{Name: "quiet", Run: func(ctx context.Context) *Result { return nil }}}
	sum := RunBatch(context.Background(), items, 1)
	require.Len(t, sum.Results, 1)
	assert.Equal(t, "quiet", sum.Results[0].Name)
	assert.Equal(t, 1, sum.Done)
}
