package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrCircuitOpen is returned when a source's breaker rejects a call.
var ErrCircuitOpen = eris.New("circuit open")

// Breaker is a per-source circuit breaker. After Threshold consecutive
// failures it opens for Cooldown; the first call after the cooldown runs
// as a probe, and its outcome decides whether the circuit closes again.
type Breaker struct {
	Threshold int
	Cooldown  time.Duration

	mu       sync.Mutex
	failures int
	openedAt time.Time
	open     bool
}

// NewBreaker builds a breaker. Non-positive arguments fall back to 5
// failures and a 30s cooldown.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{Threshold: threshold, Cooldown: cooldown}
}

// Allow reports whether a call may proceed. While open and cooling down
// it returns ErrCircuitOpen; after the cooldown a single probe passes.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return nil
	}
	if time.Since(b.openedAt) < b.Cooldown {
		return ErrCircuitOpen
	}
	// Half-open: let the probe through. A failure re-opens with a fresh
	// cooldown, a success closes the circuit.
	return nil
}

// RecordSuccess resets the failure count and closes the circuit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.open = false
}

// RecordFailure counts a failure and opens the circuit at the threshold.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures >= b.Threshold {
		b.open = true
		b.openedAt = time.Now()
	}
}

// Open reports whether the circuit is currently open.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}
