package source

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pricelens/pricelens/internal/model"
)

// FanOutResult joins the outcome of one parallel fetch across adapters.
type FanOutResult struct {
	// Listings holds every fetched listing in adapter completion order.
	// Completion order varies with source latency, which makes first-fit
	// grouping run-to-run sensitive; see the match package.
	Listings []model.RawListing
	// Errors maps source name to its failure, for sources that failed or
	// timed out. Successful sources are absent.
	Errors map[string]error
	// Succeeded counts adapters that returned without error.
	Succeeded int
}

// FanOut queries every adapter concurrently, each under its own timeout,
// and joins whatever completed. A slow or failing source contributes
// zero listings; only caller cancellation aborts the whole fan-out.
func FanOut(ctx context.Context, adapters []Adapter, query string, timeout time.Duration) (*FanOutResult, error) {
	res := &FanOutResult{Errors: make(map[string]error)}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, a := range adapters {
		a := a
		g.Go(func() error {
			fctx := gctx
			if timeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(gctx, timeout)
				defer cancel()
			}

			listings, err := a.Fetch(fctx, query)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Degrade: this source returns zero listings for the query.
				res.Errors[a.Name()] = err
				zap.L().Warn("source degraded",
					zap.String("source", a.Name()),
					zap.String("query", query),
					zap.Error(err),
				)
				return nil
			}
			res.Succeeded++
			res.Listings = append(res.Listings, listings...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		// Caller cancelled: abandon whatever subset completed.
		return nil, err
	}
	return res, nil
}
