package sim

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/battwin/battwin/pkg/log"
	"github.com/battwin/battwin/pkg/types"
)

// RunBatch executes runs independent simulations, identical except for the
// seed: run i uses cfg.Seed+i. Runs are spread over a fixed worker pool and
// results come back ordered by run index. The first failing run cancels the
// rest and its error is returned.
func RunBatch(ctx context.Context, cfg types.Config, runs, workers int) ([]*Result, error) {
	if runs < 1 {
		return nil, fmt.Errorf("at least one run is required, got %d", runs)
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > runs {
		workers = runs
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*Result, runs)
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				runCfg := cfg
				runCfg.Seed = cfg.Seed + uint64(i)

				runCtx := log.WithAttrs(ctx, slog.Int("run", i))
				runner, err := New(runCfg)
				if err != nil {
					fail(fmt.Errorf("run %d: %w", i, err))
					return
				}
				res, err := runner.Run(runCtx)
				if err != nil {
					fail(fmt.Errorf("run %d: %w", i, err))
					return
				}
				results[i] = res
			}
		}()
	}

dispatch:
	for i := 0; i < runs; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
