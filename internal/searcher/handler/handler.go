// Package handler exposes the search API over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/docrank/docrank/internal/analytics"
	"github.com/docrank/docrank/internal/document"
	"github.com/docrank/docrank/internal/searcher/cache"
	"github.com/docrank/docrank/internal/searcher/processor"
	apperrors "github.com/docrank/docrank/pkg/errors"
	"github.com/docrank/docrank/pkg/logger"
	"github.com/docrank/docrank/pkg/metrics"
)

// Searcher is the query-processing dependency of the HTTP handler.
type Searcher interface {
	TopK(ctx context.Context, query string, k int) ([]processor.Match, error)
}

// SearchResponse is the JSON body returned by GET /api/v1/search.
type SearchResponse struct {
	Query      string            `json:"query"`
	Matches    []processor.Match `json:"matches"`
	NoMatch    bool              `json:"no_match"`
	CacheHit   bool              `json:"cache_hit"`
	TookMillis int64             `json:"took_ms"`
}

// Handler serves search and document lookup requests.
type Handler struct {
	searcher     Searcher
	collection   document.Collection
	cache        *cache.QueryCache
	collector    *analytics.Collector
	defaultLimit int
	maxResults   int
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// New creates a Handler. cache, collector, and m may be nil.
func New(
	searcher Searcher,
	collection document.Collection,
	queryCache *cache.QueryCache,
	collector *analytics.Collector,
	defaultLimit, maxResults int,
	m *metrics.Metrics,
) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = 1
	}
	if maxResults <= 0 {
		maxResults = 100
	}
	return &Handler{
		searcher:     searcher,
		collection:   collection,
		cache:        queryCache,
		collector:    collector,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		metrics:      m,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /api/v1/search?q=...&limit=N. A query with no matching
// document is a normal 200 response with no_match set, never an error.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "missing query parameter q"))
		return
	}
	limit := h.defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	if limit > h.maxResults {
		limit = h.maxResults
	}

	result, cacheHit, err := h.execute(ctx, query, limit)
	took := time.Since(start)
	if err != nil {
		h.recordQuery(query, "error", nil, took, cacheHit)
		log.Error("search failed", "query", query, "error", err)
		h.writeError(w, err)
		return
	}

	outcome := "match"
	if result.NoMatch {
		outcome = "no_match"
	}
	h.recordQuery(query, outcome, result.Matches, took, cacheHit)

	resp := SearchResponse{
		Query:      query,
		Matches:    result.Matches,
		NoMatch:    result.NoMatch,
		CacheHit:   cacheHit,
		TookMillis: took.Milliseconds(),
	}
	if resp.Matches == nil {
		resp.Matches = []processor.Match{}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Document handles GET /api/v1/documents/{id}.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "missing document id"))
		return
	}
	doc, err := h.collection.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

// execute runs the query through the cache when available.
func (h *Handler) execute(ctx context.Context, query string, limit int) (*cache.Result, bool, error) {
	compute := func() (*cache.Result, error) {
		matches, err := h.searcher.TopK(ctx, query, limit)
		if errors.Is(err, apperrors.ErrNoMatch) {
			return &cache.Result{NoMatch: true}, nil
		}
		if err != nil {
			return nil, err
		}
		return &cache.Result{Matches: matches}, nil
	}
	if h.cache == nil {
		result, err := compute()
		return result, false, err
	}
	return h.cache.GetOrCompute(ctx, query, limit, compute)
}

func (h *Handler) recordQuery(query, outcome string, matches []processor.Match, took time.Duration, cacheHit bool) {
	if h.metrics != nil {
		h.metrics.SearchQueriesTotal.WithLabelValues(outcome).Inc()
		cacheStatus := "miss"
		if cacheHit {
			cacheStatus = "hit"
		}
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(took.Seconds())
	}
	if h.collector != nil {
		event := analytics.QueryEvent{
			Query:      query,
			Outcome:    outcome,
			NumResults: len(matches),
			TookMillis: took.Milliseconds(),
			CacheHit:   cacheHit,
			Timestamp:  time.Now().UTC(),
		}
		if len(matches) > 0 {
			event.BestDocID = matches[0].DocID
		}
		h.collector.Record(event)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encoding response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
