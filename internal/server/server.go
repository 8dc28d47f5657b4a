// Package server exposes search, history, and trend aggregation over
// HTTP. The JSON surface mirrors the CLI commands one to one.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/pricelens/pricelens/internal/history"
	"github.com/pricelens/pricelens/internal/model"
	"github.com/pricelens/pricelens/internal/normalize"
	"github.com/pricelens/pricelens/internal/search"
	"github.com/pricelens/pricelens/internal/trend"
)

// Server holds the request handlers and their dependencies.
type Server struct {
	svc      *search.Service
	store    history.Store
	trends   *trend.Aggregator
	synonyms *normalize.SynonymTable

	defaultBuckets   int
	defaultThreshold float64
	defaultTopN      int
}

// Options carries the trend defaults the handlers fall back to when a
// request omits the corresponding parameter.
type Options struct {
	HistogramBuckets int
	DropThresholdPct float64
	TopQueriesLimit  int
}

// New wires the handlers. Synonyms canonicalize filter values the same
// way the normalizer canonicalizes listing attributes.
func New(svc *search.Service, store history.Store, trends *trend.Aggregator, synonyms *normalize.SynonymTable, opts Options) *Server {
	return &Server{
		svc:              svc,
		store:            store,
		trends:           trends,
		synonyms:         synonyms,
		defaultBuckets:   opts.HistogramBuckets,
		defaultThreshold: opts.DropThresholdPct,
		defaultTopN:      opts.TopQueriesLimit,
	}
}

// Router builds the chi mux with logging, recovery, and permissive CORS
// for browser clients.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/search", s.handleSearch)
	r.Get("/history", s.handleHistory)
	r.Route("/trends", func(r chi.Router) {
		r.Get("/prices", s.handleTrendPrices)
		r.Get("/volume", s.handleTrendVolume)
		r.Get("/drops", s.handleTrendDrops)
		r.Get("/queries", s.handleTrendQueries)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}
	spec, err := s.parseFilterSpec(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.svc.Search(r.Context(), q, spec)
	if err != nil {
		if errors.Is(err, search.ErrAllSourcesUnavailable) {
			writeError(w, http.StatusBadGateway, "all sources unavailable")
			return
		}
		zap.L().Error("search failed", zap.String("query", q), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	tr, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.store.List(r.Context(), tr)
	if err != nil {
		zap.L().Error("history list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleTrendPrices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}
	tr, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	buckets := intParam(r, "buckets", s.defaultBuckets)

	hist, err := s.trends.PriceDistribution(r.Context(), q, tr, buckets)
	if err != nil {
		if errors.Is(err, trend.ErrEmptyHistory) {
			writeError(w, http.StatusNotFound, "no history for query")
			return
		}
		zap.L().Error("price distribution failed", zap.String("query", q), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "trend aggregation failed")
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

func (s *Server) handleTrendVolume(w http.ResponseWriter, r *http.Request) {
	tr, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bucket := 24 * time.Hour
	if raw := r.URL.Query().Get("bucket"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "bad bucket duration")
			return
		}
		bucket = d
	}

	buckets, err := s.trends.SearchVolume(r.Context(), tr, bucket)
	if err != nil {
		if errors.Is(err, trend.ErrEmptyHistory) {
			writeJSON(w, http.StatusOK, map[string]any{"buckets": []model.VolumeBucket{}})
			return
		}
		zap.L().Error("search volume failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "trend aggregation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"buckets": buckets})
}

func (s *Server) handleTrendDrops(w http.ResponseWriter, r *http.Request) {
	tr, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	threshold := s.defaultThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f <= 0 {
			writeError(w, http.StatusBadRequest, "bad threshold")
			return
		}
		threshold = f
	}

	drops, err := s.trends.PriceDrops(r.Context(), threshold, tr)
	if err != nil {
		if errors.Is(err, trend.ErrEmptyHistory) {
			writeJSON(w, http.StatusOK, map[string]any{"drops": []model.PriceDrop{}})
			return
		}
		zap.L().Error("price drops failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "trend aggregation failed")
		return
	}
	if drops == nil {
		drops = []model.PriceDrop{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"drops": drops})
}

func (s *Server) handleTrendQueries(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", s.defaultTopN)
	top, err := s.trends.TopQueries(r.Context(), limit)
	if err != nil {
		if errors.Is(err, trend.ErrEmptyHistory) {
			writeJSON(w, http.StatusOK, map[string]any{"queries": []model.QueryCount{}})
			return
		}
		zap.L().Error("top queries failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "trend aggregation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"queries": top})
}

// parseFilterSpec reads the filter parameters shared with the CLI:
// min_price, max_price, min_rating, size, color, occasion. Attribute
// parameters repeat for multiple values.
func (s *Server) parseFilterSpec(r *http.Request) (model.FilterSpec, error) {
	var spec model.FilterSpec
	q := r.URL.Query()

	if raw := q.Get("min_price"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 {
			return spec, errors.New("bad min_price")
		}
		p := model.PriceFromFloat(f)
		spec.MinPrice = &p
	}
	if raw := q.Get("max_price"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 {
			return spec, errors.New("bad max_price")
		}
		p := model.PriceFromFloat(f)
		spec.MaxPrice = &p
	}
	if raw := q.Get("min_rating"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 || f > 5 {
			return spec, errors.New("bad min_rating")
		}
		spec.MinRating = &f
	}
	for _, v := range q["size"] {
		spec.Sizes = append(spec.Sizes, s.synonyms.CanonicalSize(v))
	}
	for _, v := range q["color"] {
		spec.Colors = append(spec.Colors, s.synonyms.CanonicalColor(v))
	}
	for _, v := range q["occasion"] {
		spec.Occasions = append(spec.Occasions, s.synonyms.CanonicalOccasion(v))
	}
	return spec, nil
}

func parseRange(r *http.Request) (model.TimeRange, error) {
	var tr model.TimeRange
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			return tr, errors.New("bad from")
		}
		tr.From = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			return tr, errors.New("bad to")
		}
		tr.To = t
	}
	return tr, nil
}

func parseTimeParam(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
