package interp

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MaxConcurrentBatch bounds how many independent interpretations
// BatchInterpret runs at once.
const MaxConcurrentBatch = 8

// BatchInterpret runs each source against its own fresh Context
// concurrently, bounded by an errgroup.Group with SetLimit — spec.md §1's
// "or in batch" tool-builder use case, left unspecified in detail by the
// distillation (SPEC_FULL.md §4.8). Each Context is fully independent per
// spec.md §5, so results need no further coordination once all sources
// finish.
func BatchInterpret(ctx context.Context, sources []string) []Result {
	results := make([]Result, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentBatch)

	for idx, src := range sources {
		idx, src := idx, src
		g.Go(func() error {
			res, _ := Interpret(gctx, src, nil)
			results[idx] = res
			return nil
		})
	}
	// Errors from individual interpretations are carried in each Result's
	// Diagnostics rather than aborting the batch; every goroutine returns
	// nil, so g.Wait only waits and its error is always nil. Cancellation
	// reaches each run through gctx and shows up in that run's Result.
	_ = g.Wait()
	return results
}
