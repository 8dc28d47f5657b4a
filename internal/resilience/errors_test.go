package resilience

import (
	"fmt"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(eris.New("not found")))
	assert.True(t, IsTransient(NewTransientError(eris.New("overloaded"), 503)))
	assert.True(t, IsTransient(fmt.Errorf("fetch: %w", NewTransientError(eris.New("x"), 429))),
		"survives wrapping")
	assert.True(t, IsTransient(syscall.ECONNRESET))
	assert.True(t, IsTransient(eris.New("dial tcp: i/o timeout")), "message fallback")
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := eris.New("boom")
	te := NewTransientError(inner, 500)
	assert.ErrorIs(t, te, inner)
	assert.Equal(t, "boom", te.Error())
	assert.Equal(t, 500, te.StatusCode)
}
