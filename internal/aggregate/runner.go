package aggregate

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/payment-analytics/internal/logger"
)

// Runner executes a batch of requests concurrently over one shared dataset.
// The dataset is read-only, so workers need no coordination beyond the
// result map. Safe for a single Run call at a time.
type Runner struct {
	workers int
}

// NewRunner creates a runner with the given worker count. Counts below one
// fall back to a single worker.
func NewRunner(workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{workers: workers}
}

// RunAll executes every request and returns the tables keyed by request
// name. The first failure cancels the remaining work and is returned.
func (r *Runner) RunAll(ctx context.Context, ds *Dataset, reqs []Request) (map[string]*Table, error) {
	log := logger.FromContext(ctx)

	seen := make(map[string]bool, len(reqs))
	for _, req := range reqs {
		if seen[req.Name] {
			return nil, fmt.Errorf("RunAll: duplicate request name %q", req.Name)
		}
		seen[req.Name] = true
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reqChan := make(chan Request)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		tables   = make(map[string]*Table, len(reqs))
		firstErr error
	)

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case req, ok := <-reqChan:
					if !ok {
						return
					}
					table, err := Run(ds, req)

					mu.Lock()
					if err != nil {
						if firstErr == nil {
							firstErr = err
							cancel()
						}
					} else {
						tables[req.Name] = table
					}
					mu.Unlock()

					if err == nil {
						log.Debug().Str("view", req.Name).Int("rows", len(table.Rows)).Msg("View materialized")
					}
				}
			}
		}()
	}

	for _, req := range reqs {
		select {
		case reqChan <- req:
		case <-ctx.Done():
		}
	}
	close(reqChan)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return tables, nil
}
