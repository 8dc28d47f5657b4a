// Package history persists the append-only record of executed queries.
// Entries are immutable once recorded; concurrent writers from
// independent queries are safe, and readers only ever observe fully
// written entries because an entry and its group snapshots commit in one
// transaction.
package history

import (
	"context"
	"time"

	"github.com/pricelens/pricelens/internal/model"
)

// Store is the persistence interface for query history.
type Store interface {
	// Record appends one fully completed query with its result summary
	// and per-group snapshots. It is never called for failed queries.
	Record(ctx context.Context, query string, spec model.FilterSpec, groups []*model.ComparisonGroup) (*model.HistoryEntry, error)

	// List returns entries within the inclusive time range, ordered by
	// timestamp ascending. A zero range returns everything.
	List(ctx context.Context, r model.TimeRange) ([]model.HistoryEntry, error)

	// Snapshots returns group snapshots in scope, ordered by timestamp
	// ascending. Empty query matches all queries.
	Snapshots(ctx context.Context, query string, r model.TimeRange) ([]model.GroupSnapshot, error)

	// TopQueries returns the most frequently executed query strings.
	TopQueries(ctx context.Context, limit int) ([]model.QueryCount, error)

	// Prune deletes whole entries (and their snapshots) recorded before
	// the cutoff. Partial deletion is never performed.
	Prune(ctx context.Context, before time.Time) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
