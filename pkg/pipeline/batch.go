package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lookforge/lookforge/pkg/logging"
)

// Item is one unit of batch work. Run must be self-contained: it returns a
// Result carrying either an artifact or the item's error.
type Item struct {
	Name string
	Run  func(ctx context.Context) *Result
}

// Summary aggregates a batch run. Results holds every completed item, in
// completion order, failures included.
type Summary struct {
	Done    int
	Failed  int
	Results []*Result
}

// RunBatch fans items out over a fixed worker pool. One item failing never
// stops the batch; context cancellation stops handing out new items but
// lets in-flight ones finish.
func RunBatch(ctx context.Context, items []Item, workers int) Summary {
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	work := make(chan Item)
	out := make(chan *Result, len(items))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			wctx := logging.AppendCtx(ctx, slog.Int("worker", id))
			for item := range work {
				out <- runItem(wctx, item)
			}
		}(w)
	}

feed:
	for _, item := range items {
		select {
		case work <- item:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()
	close(out)

	var sum Summary
	for res := range out {
		if res.Err != nil {
			sum.Failed++
			slog.ErrorContext(ctx, "item failed", "item", res.Name, "error", res.Err)
		} else {
			sum.Done++
		}
		sum.Results = append(sum.Results, res)
	}
	return sum
}

func runItem(ctx context.Context, item Item) *Result {
	if err := ctx.Err(); err != nil {
		return &Result{Name: item.Name, Err: err}
	}
	res := item.Run(ctx)
	if res == nil {
		res = &Result{Name: item.Name}
	}
	return res
}
