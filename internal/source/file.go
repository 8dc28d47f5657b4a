package source

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pricelens/pricelens/internal/model"
)

// FileAdapter serves listings from a local JSON fixture. Useful for
// offline runs and demos; the fixture holds the source's full inventory
// and Fetch performs a naive token match against titles.
type FileAdapter struct {
	name string
	path string
}

// NewFileAdapter builds an adapter over a JSON fixture file of the form
// {"listings": [...]}.
func NewFileAdapter(name, path string) *FileAdapter {
	return &FileAdapter{name: name, path: path}
}

func (a *FileAdapter) Name() string {
	return a.name
}

// Fetch returns fixture listings whose title contains every query token.
func (a *FileAdapter) Fetch(ctx context.Context, query string) ([]model.RawListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrapf(ErrUnavailable, "%s: %v", a.name, err)
	}

	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, eris.Wrapf(ErrUnavailable, "%s: read fixture: %v", a.name, err)
	}

	var body struct {
		Listings []model.RawListing `json:"listings"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, eris.Wrapf(ErrUnavailable, "%s: parse fixture: %v", a.name, err)
	}

	tokens := strings.Fields(strings.ToLower(query))
	var out []model.RawListing
	for _, l := range body.Listings {
		title := strings.ToLower(l.Title)
		matched := true
		for _, tok := range tokens {
			if !strings.Contains(title, tok) {
				matched = false
				break
			}
		}
		if matched {
			l.Source = a.name
			out = append(out, l)
		}
	}
	return out, nil
}
