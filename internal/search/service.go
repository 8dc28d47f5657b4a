// Package search orchestrates one query end to end: fan out to the
// source adapters, normalize the raw listings, group them across
// sources, filter and rank the groups, and append the outcome to query
// history.
package search

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pricelens/pricelens/internal/history"
	"github.com/pricelens/pricelens/internal/match"
	"github.com/pricelens/pricelens/internal/model"
	"github.com/pricelens/pricelens/internal/normalize"
	"github.com/pricelens/pricelens/internal/rank"
	"github.com/pricelens/pricelens/internal/source"
)

// ErrAllSourcesUnavailable means every configured adapter failed or
// timed out. This is the only way a search fails besides cancellation.
var ErrAllSourcesUnavailable = eris.New("all sources unavailable")

// Result is the outcome of one search.
type Result struct {
	Query        string                            `json:"query"`
	Groups       []*model.ComparisonGroup          `json:"groups"`
	BestBySource map[string]*model.ComparisonGroup `json:"best_by_source"`
	Degraded     []string                          `json:"degraded_sources,omitempty"`
	Dropped      int                               `json:"dropped_listings,omitempty"`
	Entry        *model.HistoryEntry               `json:"history_entry,omitempty"`
}

// Service runs searches. Safe for concurrent use; each query is
// processed independently and the history store accepts concurrent
// appends.
type Service struct {
	adapters   []source.Adapter
	normalizer *normalize.Normalizer
	matcher    *match.Matcher
	store      history.Store
	timeout    time.Duration
}

// New assembles a search service. The timeout bounds each adapter call.
func New(adapters []source.Adapter, n *normalize.Normalizer, m *match.Matcher, store history.Store, timeout time.Duration) *Service {
	return &Service{
		adapters:   adapters,
		normalizer: n,
		matcher:    m,
		store:      store,
		timeout:    timeout,
	}
}

// Search executes a query with the given filters and returns the ranked
// comparison groups. Individual source failures degrade the result; the
// search fails only when every source is unavailable or the context is
// cancelled. History is recorded only for completed queries.
func (s *Service) Search(ctx context.Context, query string, spec model.FilterSpec) (*Result, error) {
	log := zap.L().With(zap.String("query", query))

	fan, err := source.FanOut(ctx, s.adapters, query, s.timeout)
	if err != nil {
		return nil, err
	}
	if len(s.adapters) > 0 && fan.Succeeded == 0 {
		return nil, eris.Wrapf(ErrAllSourcesUnavailable, "%d sources failed", len(fan.Errors))
	}

	// Normalize in adapter completion order; malformed listings are
	// dropped, the query continues.
	products := make([]model.Product, 0, len(fan.Listings))
	dropped := 0
	for _, raw := range fan.Listings {
		p, err := s.normalizer.Normalize(raw)
		if err != nil {
			dropped++
			if errors.Is(err, normalize.ErrMalformedListing) {
				log.Debug("dropped malformed listing",
					zap.String("source", raw.Source),
					zap.String("title", raw.Title),
				)
				continue
			}
			log.Warn("dropped listing", zap.String("source", raw.Source), zap.Error(err))
			continue
		}
		products = append(products, p)
	}

	groups := s.matcher.Group(products)
	ranked := rank.Apply(groups, spec)

	res := &Result{
		Query:        query,
		Groups:       ranked,
		BestBySource: rank.BestBySource(ranked),
		Dropped:      dropped,
	}
	for name := range fan.Errors {
		res.Degraded = append(res.Degraded, name)
	}
	sort.Strings(res.Degraded)

	// A cancelled query records nothing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.store != nil {
		entry, err := s.store.Record(ctx, query, spec, ranked)
		if err != nil {
			// The search itself succeeded; losing the history append is
			// logged, not surfaced.
			log.Error("history record failed", zap.Error(err))
		} else {
			res.Entry = entry
		}
	}

	log.Info("search complete",
		zap.Int("listings", len(fan.Listings)),
		zap.Int("products", len(products)),
		zap.Int("groups", len(groups)),
		zap.Int("ranked", len(ranked)),
		zap.Int("degraded_sources", len(res.Degraded)),
	)
	return res, nil
}

// History lists recorded entries within the inclusive range.
func (s *Service) History(ctx context.Context, r model.TimeRange) ([]model.HistoryEntry, error) {
	return s.store.List(ctx, r)
}
