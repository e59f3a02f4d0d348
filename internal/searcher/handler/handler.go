// Package handler serves the solver over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/solver"
	apperrors "github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/tracing"
)

// EventTracker receives one event per solve request.
type EventTracker interface {
	Track(event analytics.SolveEvent)
}

// Options configures a Handler. Zero values disable the corresponding
// feature.
type Options struct {
	// Source names where the dictionary was loaded from.
	Source         string
	MaxQueryLength int
	Timeout        time.Duration
	Cache          *cache.QueryCache
	Tracker        EventTracker
	Metrics        *metrics.Metrics
}

type Handler struct {
	idx    *index.Index
	solver *solver.Solver
	opts   Options
	logger *slog.Logger
}

func New(idx *index.Index, s *solver.Solver, opts Options) *Handler {
	return &Handler{
		idx:    idx,
		solver: s,
		opts:   opts,
		logger: slog.Default().With("component", "solve-handler"),
	}
}

type solveResponse struct {
	Query   string   `json:"query"`
	Matches []string `json:"matches"`
	Count   int      `json:"count"`
	Subsets int      `json:"subsets"`
	// InDictionary is true when the query is itself a known word. It is
	// never among the matches.
	InDictionary bool    `json:"in_dictionary"`
	CacheHit     bool    `json:"cache_hit"`
	LatencyMs    float64 `json:"latency_ms"`
}

// Solve answers GET /api/v1/solve?word=W with the sub-anagrams of W, sorted.
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := tracing.Start(r.Context(), "http.solve")
	defer span.End()
	log := logger.FromContext(ctx)

	word := r.URL.Query().Get("word")
	span.SetAttr("query", word)
	if err := h.validate(word); err != nil {
		h.finish(ctx, word, nil, false, start, err)
		h.writeError(w, err)
		return
	}

	var (
		result   *solver.Result
		cacheHit bool
		err      error
	)
	if h.opts.Cache != nil {
		result, cacheHit, err = h.opts.Cache.GetOrCompute(ctx, word, func(ctx context.Context) (*solver.Result, error) {
			return h.compute(ctx, word)
		})
	} else {
		result, err = h.compute(ctx, word)
	}
	span.SetAttr("cache_hit", cacheHit)
	h.finish(ctx, word, result, cacheHit, start, err)
	if err != nil {
		log.Error("solve failed", "query", word, "error", err)
		h.writeError(w, err)
		return
	}

	latency := time.Since(start)
	log.Info("solve completed",
		"query", word,
		"matches", len(result.Matches),
		"subsets", result.Subsets,
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, solveResponse{
		Query:        word,
		Matches:      result.Matches,
		Count:        len(result.Matches),
		Subsets:      result.Subsets,
		InDictionary: h.idx.Contains(word),
		CacheHit:     cacheHit,
		LatencyMs:    float64(latency.Microseconds()) / 1000,
	})
}

func (h *Handler) validate(word string) error {
	if word == "" {
		return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'word' is required")
	}
	if !utf8.ValidString(word) {
		return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "word must be valid UTF-8")
	}
	if n := utf8.RuneCountInString(word); h.opts.MaxQueryLength > 0 && n > h.opts.MaxQueryLength {
		return apperrors.Newf(apperrors.ErrQueryTooLong, http.StatusBadRequest,
			"word has %d letters, limit is %d", n, h.opts.MaxQueryLength)
	}
	return nil
}

// compute runs one bounded solve and sorts its matches.
func (h *Handler) compute(ctx context.Context, word string) (*solver.Result, error) {
	return resilience.WithTimeout(ctx, h.opts.Timeout, "solve", func(ctx context.Context) (*solver.Result, error) {
		ctx, span := tracing.Start(ctx, "solver.collect")
		defer span.End()
		res, err := h.solver.Collect(ctx, word)
		if err != nil {
			return nil, err
		}
		slices.Sort(res.Matches)
		span.SetAttr("subsets", res.Subsets)
		span.SetAttr("matches", len(res.Matches))
		return res, nil
	})
}

// finish records metrics and the analytics event for one request.
func (h *Handler) finish(ctx context.Context, word string, result *solver.Result, cacheHit bool, start time.Time, err error) {
	latency := time.Since(start)
	outcome := outcomeOf(err)
	event := analytics.SolveEvent{
		Query:     word,
		Length:    utf8.RuneCountInString(word),
		LatencyMs: float64(latency.Microseconds()) / 1000,
		CacheHit:  cacheHit,
		Outcome:   outcome,
		RequestID: middleware.GetRequestID(ctx),
		Timestamp: time.Now().UTC(),
	}
	if result != nil {
		event.Matches = len(result.Matches)
		event.Subsets = result.Subsets
	}

	if m := h.opts.Metrics; m != nil {
		m.SolveQueriesTotal.WithLabelValues(resultLabel(outcome, result, cacheHit)).Inc()
		if outcome == analytics.OutcomeOK {
			status := "miss"
			if cacheHit {
				status = "hit"
				m.CacheHitsTotal.Inc()
			} else if h.opts.Cache != nil {
				m.CacheMissesTotal.Inc()
			}
			m.SolveLatency.WithLabelValues(status).Observe(latency.Seconds())
			m.SolveMatchesCount.Observe(float64(event.Matches))
			m.SubsetsExamined.Observe(float64(event.Subsets))
		}
	}
	if h.opts.Tracker != nil {
		h.opts.Tracker.Track(event)
	}
}

func outcomeOf(err error) analytics.Outcome {
	switch {
	case err == nil:
		return analytics.OutcomeOK
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrQueryTooLong):
		return analytics.OutcomeInvalid
	case errors.Is(err, apperrors.ErrTimeout):
		return analytics.OutcomeTimeout
	default:
		return analytics.OutcomeError
	}
}

func resultLabel(outcome analytics.Outcome, result *solver.Result, cacheHit bool) string {
	switch {
	case outcome != analytics.OutcomeOK:
		return string(outcome)
	case len(result.Matches) == 0:
		return "zero_result"
	case cacheHit:
		return "hit"
	default:
		return "miss"
	}
}

type dictionaryResponse struct {
	index.Stats
	Source         string `json:"source"`
	MaxQueryLength int    `json:"max_query_length"`
}

func (h *Handler) Dictionary(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, dictionaryResponse{
		Stats:          h.idx.Stats(),
		Source:         h.opts.Source,
		MaxQueryLength: h.opts.MaxQueryLength,
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.opts.Cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.opts.Cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":      hits,
		"misses":    misses,
		"total":     total,
		"hit_rate":  fmt.Sprintf("%.1f%%", hitRate),
		"available": h.opts.Cache.Available(),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.opts.Cache == nil {
		h.writeError(w, apperrors.New(apperrors.ErrCacheUnavailable, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	deleted, err := h.opts.Cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, fmt.Errorf("%w: %w", apperrors.ErrCacheUnavailable, err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err to a status code. Only AppError messages and
// sentinel texts reach the client.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := http.StatusText(status)
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		message = appErr.Message
	case errors.Is(err, apperrors.ErrTimeout):
		message = apperrors.ErrTimeout.Error()
	case errors.Is(err, apperrors.ErrCacheUnavailable):
		message = apperrors.ErrCacheUnavailable.Error()
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
