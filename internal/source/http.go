package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/pricelens/pricelens/internal/model"
	"github.com/pricelens/pricelens/internal/resilience"
)

// HTTPAdapter queries a marketplace's JSON search endpoint. Calls are
// rate limited per source, retried on transient failures, and guarded by
// a circuit breaker so a down marketplace stops being hammered.
type HTTPAdapter struct {
	name    string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
}

// HTTPAdapterOptions configures an HTTPAdapter.
type HTTPAdapterOptions struct {
	// RatePerSec caps request rate to the source. Zero disables limiting.
	RatePerSec float64
	// Timeout bounds a single HTTP request. Default 10s; the fan-out
	// applies the per-adapter query timeout on top via context.
	Timeout time.Duration
	// Retry overrides the default retry policy when non-zero.
	Retry resilience.RetryConfig
}

// NewHTTPAdapter builds an adapter for one source's search endpoint.
func NewHTTPAdapter(name, baseURL string, opts HTTPAdapterOptions) *HTTPAdapter {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}
	return &HTTPAdapter{
		name:    name,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		breaker: resilience.NewBreaker(5, 30*time.Second),
		retry:   opts.Retry,
	}
}

func (a *HTTPAdapter) Name() string {
	return a.name
}

// Fetch gets listings for a query. All transport, decode, and breaker
// failures surface as ErrUnavailable so the fan-out treats them as a
// degraded source.
func (a *HTTPAdapter) Fetch(ctx context.Context, query string) ([]model.RawListing, error) {
	if err := a.breaker.Allow(); err != nil {
		return nil, eris.Wrapf(ErrUnavailable, "%s: circuit open", a.name)
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrapf(ErrUnavailable, "%s: %v", a.name, err)
		}
	}

	listings, err := resilience.DoVal(ctx, a.retry, func(ctx context.Context) ([]model.RawListing, error) {
		return a.fetchOnce(ctx, query)
	})
	if err != nil {
		a.breaker.RecordFailure()
		return nil, eris.Wrapf(ErrUnavailable, "%s: %v", a.name, err)
	}

	a.breaker.RecordSuccess()

	// Stamp the source identifier; the endpoint does not repeat it.
	for i := range listings {
		listings[i].Source = a.name
	}
	return listings, nil
}

func (a *HTTPAdapter) fetchOnce(ctx context.Context, query string) ([]model.RawListing, error) {
	u := fmt.Sprintf("%s?q=%s", a.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "source %s: build request", a.name)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "source %s: request", a.name)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("source %s: status %d", a.name, resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var body struct {
		Listings []model.RawListing `json:"listings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, eris.Wrapf(err, "source %s: decode response", a.name)
	}
	return body.Listings, nil
}
