package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelens/pricelens/internal/config"
	"github.com/pricelens/pricelens/internal/history"
	"github.com/pricelens/pricelens/internal/match"
	"github.com/pricelens/pricelens/internal/model"
	"github.com/pricelens/pricelens/internal/normalize"
	"github.com/pricelens/pricelens/internal/source"
)

type stubAdapter struct {
	name     string
	listings []model.RawListing
	err      error
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Fetch(ctx context.Context, query string) ([]model.RawListing, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.RawListing, len(s.listings))
	copy(out, s.listings)
	for i := range out {
		out[i].Source = s.name
	}
	return out, nil
}

// recordingStore captures Record calls; the read side is unused here.
type recordingStore struct {
	mu      sync.Mutex
	records []recordedCall
}

type recordedCall struct {
	query  string
	groups []*model.ComparisonGroup
}

func (r *recordingStore) Record(ctx context.Context, query string, spec model.FilterSpec, groups []*model.ComparisonGroup) (*model.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, recordedCall{query: query, groups: groups})
	return &model.HistoryEntry{ID: "entry-1", Query: query, ResultCount: len(groups)}, nil
}

func (r *recordingStore) List(ctx context.Context, tr model.TimeRange) ([]model.HistoryEntry, error) {
	return nil, nil
}

func (r *recordingStore) Snapshots(ctx context.Context, query string, tr model.TimeRange) ([]model.GroupSnapshot, error) {
	return nil, nil
}

func (r *recordingStore) TopQueries(ctx context.Context, limit int) ([]model.QueryCount, error) {
	return nil, nil
}

func (r *recordingStore) Prune(ctx context.Context, before time.Time) (int, error) { return 0, nil }
func (r *recordingStore) Migrate(ctx context.Context) error                        { return nil }
func (r *recordingStore) Close() error                                             { return nil }

var _ history.Store = (*recordingStore)(nil)

func newService(store history.Store, adapters ...source.Adapter) *Service {
	cfg := config.SourcesConfig{
		ReferenceCurrency: "USD",
		Rates:             map[string]float64{"USD": 1.0, "INR": 0.012},
		Formats: map[string]config.SourceFormat{
			"amazon":   {Currency: "USD", DecimalSeparator: ".", ThousandSeparator: ",", RatingScale: 5},
			"flipkart": {Currency: "INR", DecimalSeparator: ".", ThousandSeparator: ",", RatingScale: 10},
		},
	}
	n := normalize.New(cfg, nil)
	m := match.New(config.MatcherConfig{SimilarityThreshold: 0.6, PriceBandWidth: 0.10})
	return New(adapters, n, m, store, time.Second)
}

func TestSearch_EndToEnd(t *testing.T) {
	amazon := &stubAdapter{name: "amazon", listings: []model.RawListing{
		{Title: "Red Cotton T-Shirt", PriceText: "$19.99", RatingText: "4.2"},
	}}
	flipkart := &stubAdapter{name: "flipkart", listings: []model.RawListing{
		{Title: "Red Cotton Tee", PriceText: "₹1,650", RatingText: "8.9"},
	}}
	store := &recordingStore{}
	svc := newService(store, amazon, flipkart)

	res, err := svc.Search(context.Background(), "red cotton shirt", model.FilterSpec{})
	require.NoError(t, err)

	require.Len(t, res.Groups, 1, "equivalent listings merge across sources")
	g := res.Groups[0]
	assert.Equal(t, model.Price(1980), g.MinPrice, "INR price converted")
	assert.Equal(t, model.Price(1999), g.MaxPrice)
	require.True(t, g.BestRating.Known)
	assert.InDelta(t, 4.45, g.BestRating.Value, 1e-9, "10-scale rating rescaled")
	assert.Equal(t, []string{"amazon", "flipkart"}, g.Sources)

	assert.Empty(t, res.Degraded)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "entry-1", res.Entry.ID)
	require.Len(t, store.records, 1)
	assert.Equal(t, "red cotton shirt", store.records[0].query)
}

func TestSearch_DegradedSourceStillSucceeds(t *testing.T) {
	up := &stubAdapter{name: "amazon", listings: []model.RawListing{
		{Title: "Red Shirt", PriceText: "$10.00"},
	}}
	down := &stubAdapter{name: "flipkart", err: eris.Wrap(source.ErrUnavailable, "flipkart: down")}
	store := &recordingStore{}
	svc := newService(store, up, down)

	res, err := svc.Search(context.Background(), "red shirt", model.FilterSpec{})
	require.NoError(t, err)

	assert.Len(t, res.Groups, 1)
	assert.Equal(t, []string{"flipkart"}, res.Degraded)
	assert.Len(t, store.records, 1, "degraded queries still record history")
}

func TestSearch_AllSourcesDown(t *testing.T) {
	a := &stubAdapter{name: "amazon", err: eris.Wrap(source.ErrUnavailable, "amazon: down")}
	b := &stubAdapter{name: "flipkart", err: eris.Wrap(source.ErrUnavailable, "flipkart: down")}
	store := &recordingStore{}
	svc := newService(store, a, b)

	_, err := svc.Search(context.Background(), "red shirt", model.FilterSpec{})
	assert.ErrorIs(t, err, ErrAllSourcesUnavailable)
	assert.Empty(t, store.records, "failed queries record nothing")
}

func TestSearch_MalformedListingsDroppedNotFatal(t *testing.T) {
	a := &stubAdapter{name: "amazon", listings: []model.RawListing{
		{Title: "Good Shirt", PriceText: "$12.00"},
		{Title: "", PriceText: "$9.00"},
		{Title: "No Price Shirt", PriceText: "call us"},
	}}
	store := &recordingStore{}
	svc := newService(store, a)

	res, err := svc.Search(context.Background(), "shirt", model.FilterSpec{})
	require.NoError(t, err)

	assert.Len(t, res.Groups, 1)
	assert.Equal(t, 2, res.Dropped)
}

func TestSearch_FilterAppliedBeforeRecording(t *testing.T) {
	a := &stubAdapter{name: "amazon", listings: []model.RawListing{
		{Title: "Cheap Shirt", PriceText: "$5.00"},
		{Title: "Pricey Jacket", PriceText: "$500.00"},
	}}
	store := &recordingStore{}
	svc := newService(store, a)

	max := model.Price(1000)
	res, err := svc.Search(context.Background(), "clothes", model.FilterSpec{MaxPrice: &max})
	require.NoError(t, err)

	require.Len(t, res.Groups, 1)
	assert.Equal(t, "cheap shirt", res.Groups[0].Title)
	require.Len(t, store.records, 1)
	assert.Len(t, store.records[0].groups, 1, "history reflects the filtered result")
}

func TestSearch_CancelledQueryRecordsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &stubAdapter{name: "amazon", listings: []model.RawListing{
		{Title: "Shirt", PriceText: "$10.00"},
	}}
	store := &recordingStore{}
	svc := newService(store, a)

	_, err := svc.Search(ctx, "shirt", model.FilterSpec{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.records)
}

func TestSearch_BestBySource(t *testing.T) {
	amazon := &stubAdapter{name: "amazon", listings: []model.RawListing{
		{Title: "Red Cotton T-Shirt", PriceText: "$19.99", RatingText: "4.8"},
		{Title: "Blue Denim Jeans", PriceText: "$45.00", RatingText: "3.9"},
	}}
	store := &recordingStore{}
	svc := newService(store, amazon)

	res, err := svc.Search(context.Background(), "clothes", model.FilterSpec{})
	require.NoError(t, err)

	require.Contains(t, res.BestBySource, "amazon")
	assert.Equal(t, "red cotton t-shirt", res.BestBySource["amazon"].Title,
		"the source's highest ranked group wins")
}
