package batch

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result records the outcome of processing one container file.
type Result struct {
	Path string
	Err  error
}

// Process runs fn over every path with at most workers concurrent
// goroutines. Each file gets its own handle inside fn, so no
// coordination beyond the pool is needed. With stopOnError set the
// first failure cancels the remaining work and is returned; otherwise
// every path is attempted and failures are reported only through the
// per-path results.
func Process(ctx context.Context, paths []string, workers int, stopOnError bool, fn func(context.Context, string) error) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	results := make([]Result, len(paths))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = Result{Path: path, Err: ctx.Err()}
				return ctx.Err()
			default:
			}

			err := fn(ctx, path)
			results[i] = Result{Path: path, Err: err}
			if err != nil && stopOnError {
				return err
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}
