package rewrite

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// RewriteBatch rewrites articles in batches. Articles within a batch run
// concurrently, batches run one after another with a pause in between.
//
// Results line up with articles by index.
func (r *Rewriter) RewriteBatch(ctx context.Context, articles []Article) []Result {
	results := make([]Result, len(articles))

	for start := 0; start < len(articles); start += r.config.BatchSize {
		if start > 0 {
			pause(ctx, r.config.BatchPause)
		}

		var g errgroup.Group
		for i := start; i < min(start+r.config.BatchSize, len(articles)); i++ {
			g.Go(func() error {
				results[i] = r.Rewrite(ctx, articles[i])
				return nil
			})
		}
		// Rewrite never errors
		_ = g.Wait()
	}

	return results
}

// Sleeps for d or until ctx is done. A canceled ctx makes the remaining
// rewrites fall back right away.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
