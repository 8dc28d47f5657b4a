// Package trend computes read-only analytics over recorded query
// history: price distributions, search volume over time, price drops,
// and most-searched terms.
package trend

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pricelens/pricelens/internal/history"
	"github.com/pricelens/pricelens/internal/model"
)

// ErrEmptyHistory is returned when a trend query's scope contains no
// recorded entries at all. Scopes with entries always return results,
// zero-filled where needed.
var ErrEmptyHistory = eris.New("no history in scope")

// Aggregator computes trend views over a history store.
type Aggregator struct {
	store history.Store
}

// New builds an aggregator over the given store.
func New(store history.Store) *Aggregator {
	return &Aggregator{store: store}
}

// PriceDistribution buckets the average result price of recorded entries
// into an equal-width histogram. An empty query matches all entries.
func (a *Aggregator) PriceDistribution(ctx context.Context, query string, r model.TimeRange, buckets int) (*model.Histogram, error) {
	if buckets <= 0 {
		buckets = 10
	}

	entries, err := a.store.List(ctx, r)
	if err != nil {
		return nil, eris.Wrap(err, "trend: list entries")
	}

	var prices []model.Price
	for _, e := range entries {
		if query != "" && e.Query != query {
			continue
		}
		if e.ResultCount == 0 {
			continue
		}
		prices = append(prices, e.Prices.Avg)
	}
	if len(prices) == 0 {
		return nil, eris.Wrapf(ErrEmptyHistory, "price distribution %q", query)
	}

	min, max := prices[0], prices[0]
	for _, p := range prices {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}

	if min == max {
		return &model.Histogram{
			Buckets: []model.HistogramBucket{{Low: min, High: max, Count: len(prices)}},
			Total:   len(prices),
		}, nil
	}

	width := (int64(max) - int64(min)) / int64(buckets)
	if width == 0 {
		width = 1
	}

	hist := &model.Histogram{Total: len(prices)}
	for i := 0; i < buckets; i++ {
		low := model.Price(int64(min) + int64(i)*width)
		high := model.Price(int64(min) + int64(i+1)*width)
		if i == buckets-1 {
			high = max
		}
		hist.Buckets = append(hist.Buckets, model.HistogramBucket{Low: low, High: high})
	}
	for _, p := range prices {
		idx := int((int64(p) - int64(min)) / width)
		if idx >= buckets {
			idx = buckets - 1
		}
		hist.Buckets[idx].Count++
	}
	return hist, nil
}

// SearchVolume counts recorded queries per time bucket across the range,
// materializing zero-count buckets for empty intervals so the series has
// no gaps. Unbounded range endpoints default to the first and last
// recorded entry.
func (a *Aggregator) SearchVolume(ctx context.Context, r model.TimeRange, bucket time.Duration) ([]model.VolumeBucket, error) {
	if bucket <= 0 {
		bucket = 24 * time.Hour
	}

	entries, err := a.store.List(ctx, r)
	if err != nil {
		return nil, eris.Wrap(err, "trend: list entries")
	}
	if len(entries) == 0 {
		return nil, eris.Wrap(ErrEmptyHistory, "search volume")
	}

	from := r.From
	if from.IsZero() {
		from = entries[0].Timestamp // entries are ordered ascending
	}
	to := r.To
	if to.IsZero() {
		to = entries[len(entries)-1].Timestamp
	}

	start := from.UTC().Truncate(bucket)
	var out []model.VolumeBucket
	for t := start; !t.After(to); t = t.Add(bucket) {
		out = append(out, model.VolumeBucket{Start: t})
	}

	for _, e := range entries {
		idx := int(e.Timestamp.Sub(start) / bucket)
		if idx < 0 || idx >= len(out) {
			continue
		}
		out[idx].Count++
	}
	return out, nil
}

// PriceDrops compares the earliest and latest recorded min price per
// product title in scope and reports drops of at least thresholdPct
// percent, largest first.
func (a *Aggregator) PriceDrops(ctx context.Context, thresholdPct float64, r model.TimeRange) ([]model.PriceDrop, error) {
	snaps, err := a.store.Snapshots(ctx, "", r)
	if err != nil {
		return nil, eris.Wrap(err, "trend: list snapshots")
	}
	if len(snaps) == 0 {
		return nil, eris.Wrap(ErrEmptyHistory, "price drops")
	}

	type span struct {
		first, last model.GroupSnapshot
	}
	byTitle := make(map[string]*span)
	for _, sn := range snaps { // snapshots are ordered ascending
		if sp, ok := byTitle[sn.Title]; ok {
			sp.last = sn
		} else {
			byTitle[sn.Title] = &span{first: sn, last: sn}
		}
	}

	var drops []model.PriceDrop
	for title, sp := range byTitle {
		prev, cur := sp.first.MinPrice, sp.last.MinPrice
		if prev <= 0 || cur >= prev {
			continue
		}
		pct := float64(prev-cur) / float64(prev) * 100
		if pct < thresholdPct {
			continue
		}
		drops = append(drops, model.PriceDrop{
			Title:       title,
			Query:       sp.last.Query,
			OldPrice:    prev,
			NewPrice:    cur,
			PercentDrop: pct,
			ObservedAt:  sp.last.Timestamp,
		})
	}
	sort.Slice(drops, func(i, j int) bool {
		if drops[i].PercentDrop != drops[j].PercentDrop {
			return drops[i].PercentDrop > drops[j].PercentDrop
		}
		return drops[i].Title < drops[j].Title
	})
	return drops, nil
}

// TopQueries returns the most frequently executed query strings.
func (a *Aggregator) TopQueries(ctx context.Context, limit int) ([]model.QueryCount, error) {
	counts, err := a.store.TopQueries(ctx, limit)
	if err != nil {
		return nil, eris.Wrap(err, "trend: top queries")
	}
	if len(counts) == 0 {
		return nil, eris.Wrap(ErrEmptyHistory, "top queries")
	}
	return counts, nil
}
