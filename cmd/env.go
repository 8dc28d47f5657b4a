package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pricelens/pricelens/internal/config"
	"github.com/pricelens/pricelens/internal/history"
	"github.com/pricelens/pricelens/internal/match"
	"github.com/pricelens/pricelens/internal/normalize"
	"github.com/pricelens/pricelens/internal/search"
	"github.com/pricelens/pricelens/internal/source"
	"github.com/pricelens/pricelens/internal/trend"
)

// env bundles the wired components a command needs.
type env struct {
	Store    history.Store
	Service  *search.Service
	Trends   *trend.Aggregator
	Synonyms *normalize.SynonymTable
}

// initEnv opens the store, migrates it, and wires the search pipeline
// from configuration. A non-empty sources list restricts which
// configured adapters participate in the fan-out.
func initEnv(ctx context.Context, sources ...string) (*env, error) {
	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	synonyms := normalize.DefaultSynonyms()
	if cfg.Sources.SynonymsPath != "" {
		synonyms, err = normalize.LoadSynonyms(cfg.Sources.SynonymsPath)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	adapters := buildAdapters(cfg.Sources, sources)
	normalizer := normalize.New(cfg.Sources, synonyms)
	matcher := match.New(cfg.Matcher)
	svc := search.New(adapters, normalizer, matcher, store, cfg.Sources.Timeout())

	return &env{
		Store:    store,
		Service:  svc,
		Trends:   trend.New(store),
		Synonyms: synonyms,
	}, nil
}

func (e *env) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

// openStore selects the history backend by driver.
func openStore(ctx context.Context) (history.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		return history.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return history.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// buildAdapters instantiates one adapter per configured source that has
// a transport. Sources with only a format table are parse-only entries
// and are skipped here. A non-empty only list restricts by source name.
func buildAdapters(sources config.SourcesConfig, only []string) []source.Adapter {
	allowed := make(map[string]bool, len(only))
	for _, name := range only {
		allowed[name] = true
	}

	var adapters []source.Adapter
	for name, format := range sources.Formats {
		if len(allowed) > 0 && !allowed[name] {
			continue
		}
		switch {
		case format.FixturePath != "":
			adapters = append(adapters, source.NewFileAdapter(name, format.FixturePath))
		case format.BaseURL != "":
			adapters = append(adapters, source.NewHTTPAdapter(name, format.BaseURL, source.HTTPAdapterOptions{
				RatePerSec: format.RatePerSec,
			}))
		default:
			zap.L().Debug("source has no transport configured", zap.String("source", name))
		}
	}
	return adapters
}
