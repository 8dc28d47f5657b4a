package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileAdapter_MatchesAllQueryTokens(t *testing.T) {
	path := writeFixture(t, `{"listings": [
		{"title": "Red Cotton T-Shirt", "price_text": "19.99"},
		{"title": "Blue Cotton T-Shirt", "price_text": "18.99"},
		{"title": "Red Leather Wallet", "price_text": "25.00"}
	]}`)
	a := NewFileAdapter("demo", path)

	got, err := a.Fetch(context.Background(), "red cotton")
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "Red Cotton T-Shirt", got[0].Title)
	assert.Equal(t, "demo", got[0].Source, "adapter stamps its source name")
}

func TestFileAdapter_EmptyQueryReturnsEverything(t *testing.T) {
	path := writeFixture(t, `{"listings": [
		{"title": "A", "price_text": "1"},
		{"title": "B", "price_text": "2"}
	]}`)
	a := NewFileAdapter("demo", path)

	got, err := a.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFileAdapter_MissingFixtureIsUnavailable(t *testing.T) {
	a := NewFileAdapter("demo", filepath.Join(t.TempDir(), "absent.json"))

	_, err := a.Fetch(context.Background(), "shirt")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFileAdapter_BadJSONIsUnavailable(t *testing.T) {
	a := NewFileAdapter("demo", writeFixture(t, "{not json"))

	_, err := a.Fetch(context.Background(), "shirt")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFileAdapter_CancelledContext(t *testing.T) {
	a := NewFileAdapter("demo", writeFixture(t, `{"listings": []}`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Fetch(ctx, "shirt")
	assert.ErrorIs(t, err, ErrUnavailable)
}
