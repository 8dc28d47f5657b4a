package trend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelens/pricelens/internal/model"
)

// fakeStore serves canned history, pre-sorted ascending like the real
// stores return it.
type fakeStore struct {
	entries []model.HistoryEntry
	snaps   []model.GroupSnapshot
	top     []model.QueryCount
}

func (f *fakeStore) Record(ctx context.Context, query string, spec model.FilterSpec, groups []*model.ComparisonGroup) (*model.HistoryEntry, error) {
	panic("not used")
}

func (f *fakeStore) List(ctx context.Context, r model.TimeRange) ([]model.HistoryEntry, error) {
	var out []model.HistoryEntry
	for _, e := range f.entries {
		if r.Contains(e.Timestamp) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) Snapshots(ctx context.Context, query string, r model.TimeRange) ([]model.GroupSnapshot, error) {
	var out []model.GroupSnapshot
	for _, sn := range f.snaps {
		if query != "" && sn.Query != query {
			continue
		}
		if r.Contains(sn.Timestamp) {
			out = append(out, sn)
		}
	}
	return out, nil
}

func (f *fakeStore) TopQueries(ctx context.Context, limit int) ([]model.QueryCount, error) {
	if limit < len(f.top) {
		return f.top[:limit], nil
	}
	return f.top, nil
}

func (f *fakeStore) Prune(ctx context.Context, before time.Time) (int, error) { return 0, nil }
func (f *fakeStore) Migrate(ctx context.Context) error                        { return nil }
func (f *fakeStore) Close() error                                             { return nil }

func entry(query string, at time.Time, results int, avg model.Price) model.HistoryEntry {
	return model.HistoryEntry{
		Query:       query,
		Timestamp:   at,
		ResultCount: results,
		Prices:      model.PriceSummary{Min: avg, Max: avg, Avg: avg},
	}
}

var day = 24 * time.Hour

func at(dayOffset int) time.Time {
	return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, dayOffset)
}

func TestPriceDistribution_BucketsAveragePrices(t *testing.T) {
	store := &fakeStore{entries: []model.HistoryEntry{
		entry("shirt", at(0), 2, 1000),
		entry("shirt", at(1), 2, 1400),
		entry("shirt", at(2), 2, 3000),
	}}
	a := New(store)

	hist, err := a.PriceDistribution(context.Background(), "shirt", model.TimeRange{}, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, hist.Total)
	require.Len(t, hist.Buckets, 2)
	assert.Equal(t, model.Price(1000), hist.Buckets[0].Low)
	assert.Equal(t, 2, hist.Buckets[0].Count, "1000 and 1400 share the low bucket")
	assert.Equal(t, model.Price(3000), hist.Buckets[1].High, "last bucket reaches the max")
	assert.Equal(t, 1, hist.Buckets[1].Count)
}

func TestPriceDistribution_FiltersByQueryAndSkipsEmptyResults(t *testing.T) {
	store := &fakeStore{entries: []model.HistoryEntry{
		entry("shirt", at(0), 2, 1000),
		entry("jeans", at(1), 2, 9000),
		entry("shirt", at(2), 0, 0), // no results, no price signal
	}}
	a := New(store)

	hist, err := a.PriceDistribution(context.Background(), "shirt", model.TimeRange{}, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, hist.Total)
}

func TestPriceDistribution_UniformPricesCollapseToOneBucket(t *testing.T) {
	store := &fakeStore{entries: []model.HistoryEntry{
		entry("shirt", at(0), 1, 2000),
		entry("shirt", at(1), 1, 2000),
	}}
	a := New(store)

	hist, err := a.PriceDistribution(context.Background(), "shirt", model.TimeRange{}, 10)
	require.NoError(t, err)

	require.Len(t, hist.Buckets, 1)
	assert.Equal(t, 2, hist.Buckets[0].Count)
}

func TestPriceDistribution_EmptyScope(t *testing.T) {
	a := New(&fakeStore{})
	_, err := a.PriceDistribution(context.Background(), "shirt", model.TimeRange{}, 10)
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestSearchVolume_ZeroFillsEmptyBuckets(t *testing.T) {
	store := &fakeStore{entries: []model.HistoryEntry{
		entry("shirt", at(0), 1, 1000),
		entry("jeans", at(2), 1, 2000),
		entry("shirt", at(2), 1, 1000),
	}}
	a := New(store)

	buckets, err := a.SearchVolume(context.Background(), model.TimeRange{}, day)
	require.NoError(t, err)

	require.Len(t, buckets, 3)
	assert.Equal(t, 1, buckets[0].Count)
	assert.Equal(t, 0, buckets[1].Count, "empty day materialized, not skipped")
	assert.Equal(t, 2, buckets[2].Count)
	assert.Equal(t, at(0).Truncate(day), buckets[0].Start)
	assert.Equal(t, day, buckets[1].Start.Sub(buckets[0].Start))
}

func TestSearchVolume_ExplicitRangeExtendsSeries(t *testing.T) {
	store := &fakeStore{entries: []model.HistoryEntry{
		entry("shirt", at(1), 1, 1000),
	}}
	a := New(store)

	r := model.TimeRange{From: at(0), To: at(3)}
	buckets, err := a.SearchVolume(context.Background(), r, day)
	require.NoError(t, err)

	require.Len(t, buckets, 4, "range endpoints bound the series, not the data")
	assert.Equal(t, 0, buckets[0].Count)
	assert.Equal(t, 1, buckets[1].Count)
}

func TestSearchVolume_EmptyScope(t *testing.T) {
	a := New(&fakeStore{})
	_, err := a.SearchVolume(context.Background(), model.TimeRange{}, day)
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func snapshot(query, title string, price model.Price, ts time.Time) model.GroupSnapshot {
	return model.GroupSnapshot{Query: query, Title: title, MinPrice: price, Timestamp: ts}
}

func TestPriceDrops_ReportsDropsPastThreshold(t *testing.T) {
	store := &fakeStore{snaps: []model.GroupSnapshot{
		snapshot("shirt", "red cotton t-shirt", 2000, at(0)),
		snapshot("shirt", "blue denim jeans", 1000, at(0)),
		snapshot("shirt", "red cotton t-shirt", 1500, at(2)),
		snapshot("shirt", "blue denim jeans", 950, at(2)),
	}}
	a := New(store)

	drops, err := a.PriceDrops(context.Background(), 10, model.TimeRange{})
	require.NoError(t, err)

	require.Len(t, drops, 1, "5% drop is under the 10% threshold")
	d := drops[0]
	assert.Equal(t, "red cotton t-shirt", d.Title)
	assert.Equal(t, model.Price(2000), d.OldPrice)
	assert.Equal(t, model.Price(1500), d.NewPrice)
	assert.InDelta(t, 25.0, d.PercentDrop, 1e-9)
	assert.Equal(t, at(2), d.ObservedAt)
}

func TestPriceDrops_SortsLargestFirst(t *testing.T) {
	store := &fakeStore{snaps: []model.GroupSnapshot{
		snapshot("shirt", "a", 1000, at(0)),
		snapshot("shirt", "b", 1000, at(0)),
		snapshot("shirt", "a", 800, at(1)),
		snapshot("shirt", "b", 500, at(1)),
	}}
	a := New(store)

	drops, err := a.PriceDrops(context.Background(), 10, model.TimeRange{})
	require.NoError(t, err)

	require.Len(t, drops, 2)
	assert.Equal(t, "b", drops[0].Title)
	assert.Equal(t, "a", drops[1].Title)
}

func TestPriceDrops_IgnoresIncreases(t *testing.T) {
	store := &fakeStore{snaps: []model.GroupSnapshot{
		snapshot("shirt", "a", 1000, at(0)),
		snapshot("shirt", "a", 1200, at(1)),
	}}
	a := New(store)

	drops, err := a.PriceDrops(context.Background(), 10, model.TimeRange{})
	require.NoError(t, err)
	assert.Empty(t, drops)
}

func TestPriceDrops_EmptyScope(t *testing.T) {
	a := New(&fakeStore{})
	_, err := a.PriceDrops(context.Background(), 10, model.TimeRange{})
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestTopQueries(t *testing.T) {
	store := &fakeStore{top: []model.QueryCount{
		{Query: "shirt", Count: 3},
		{Query: "jeans", Count: 1},
	}}
	a := New(store)

	top, err := a.TopQueries(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	_, err = New(&fakeStore{}).TopQueries(context.Background(), 5)
	assert.ErrorIs(t, err, ErrEmptyHistory)
}
