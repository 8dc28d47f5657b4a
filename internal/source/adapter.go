// Package source defines the adapter boundary to the per-marketplace
// fetchers and the concurrent fan-out that joins their results.
package source

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/pricelens/pricelens/internal/model"
)

// ErrUnavailable marks a source that failed or timed out for a query.
// The query degrades to the remaining sources instead of failing.
var ErrUnavailable = eris.New("source unavailable")

// Adapter fetches raw listings from one marketplace for a query string.
// Implementations own the source-specific transport and response shape;
// everything downstream speaks model.RawListing.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, query string) ([]model.RawListing, error)
}
