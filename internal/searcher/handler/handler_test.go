package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/solver"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/metrics"
)

type recorder struct {
	mu     sync.Mutex
	events []analytics.SolveEvent
}

func (r *recorder) Track(e analytics.SolveEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, goredis.Nil
	}
	return v, nil
}

func (m *mapStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapStore) FlushByPattern(context.Context, string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.data))
	m.data = map[string][]byte{}
	return n, nil
}

func buildIndex(words ...string) *index.Index {
	b := index.NewBuilder()
	for _, w := range words {
		b.Add(w)
	}
	return b.Build()
}

func solve(t *testing.T, h *Handler, word string) (*httptest.ResponseRecorder, solveResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Solve(rec, httptest.NewRequest(http.MethodGet, "/api/v1/solve?word="+url.QueryEscape(word), nil))
	var resp solveResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	}
	return rec, resp
}

func TestSolve(t *testing.T) {
	idx := buildIndex("dog", "god", "go", "do", "good", "cat")
	tracker := &recorder{}
	h := New(idx, solver.New(idx), Options{MaxQueryLength: 10, Tracker: tracker})

	rec, resp := solve(t, h, "dog")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "dog", resp.Query)
	assert.Equal(t, []string{"do", "go", "god"}, resp.Matches)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, 4, resp.Subsets)
	assert.True(t, resp.InDictionary)
	assert.False(t, resp.CacheHit)

	require.Len(t, tracker.events, 1)
	ev := tracker.events[0]
	assert.Equal(t, analytics.OutcomeOK, ev.Outcome)
	assert.Equal(t, 3, ev.Matches)
	assert.Equal(t, 3, ev.Length)
}

func TestSolveNoMatchesReturnsEmptyArray(t *testing.T) {
	idx := buildIndex("cat")
	h := New(idx, solver.New(idx), Options{})
	rec := httptest.NewRecorder()
	h.Solve(rec, httptest.NewRequest(http.MethodGet, "/api/v1/solve?word=xyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"matches":[]`)
	assert.Contains(t, rec.Body.String(), `"in_dictionary":false`)
}

func TestSolveRejectsBadInput(t *testing.T) {
	idx := buildIndex("dog")
	tracker := &recorder{}
	h := New(idx, solver.New(idx), Options{MaxQueryLength: 5, Tracker: tracker})

	tests := []struct {
		name   string
		target string
		errMsg string
	}{
		{"missing", "/api/v1/solve", "required"},
		{"empty", "/api/v1/solve?word=", "required"},
		{"too long", "/api/v1/solve?word=abcdef", "limit is 5"},
		{"invalid utf8", "/api/v1/solve?word=%ff", "UTF-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Solve(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.errMsg)
		})
	}
	for _, ev := range tracker.events {
		assert.Equal(t, analytics.OutcomeInvalid, ev.Outcome)
	}
}

func TestSolveLimitCountsRunes(t *testing.T) {
	idx := buildIndex("été")
	h := New(idx, solver.New(idx), Options{MaxQueryLength: 4})
	rec, resp := solve(t, h, "tété")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"été"}, resp.Matches)
}

func TestSolveTimeout(t *testing.T) {
	words := []string{"ab"}
	idx := buildIndex(words...)
	h := New(idx, solver.New(idx, solver.WithPruning(false)), Options{Timeout: time.Nanosecond})

	rec, _ := solve(t, h, "abcdefghijklmnopqrstuv")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "timed out")
}

func TestSolveUsesCache(t *testing.T) {
	idx := buildIndex("dog", "god", "go")
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	qc := cache.New(&mapStore{data: map[string][]byte{}}, time.Minute, idx.Fingerprint(), nil)
	h := New(idx, solver.New(idx), Options{Cache: qc, Metrics: m})

	_, first := solve(t, h, "dgo")
	_, second := solve(t, h, "dgo")
	assert.False(t, first.CacheHit)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Matches, second.Matches)
	assert.Equal(t, []string{"dog", "go", "god"}, second.Matches)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SolveQueriesTotal.WithLabelValues("hit")))

	rec := httptest.NewRecorder()
	h.CacheStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))
	assert.Contains(t, rec.Body.String(), `"hit_rate":"50.0%"`)
	assert.Contains(t, rec.Body.String(), `"available":true`)

	rec = httptest.NewRecorder()
	h.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"keys_deleted":1`)
}

func TestCacheEndpointsWhenDisabled(t *testing.T) {
	idx := buildIndex("dog")
	h := New(idx, solver.New(idx), Options{})

	rec := httptest.NewRecorder()
	h.CacheStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))
	assert.JSONEq(t, `{"status":"disabled"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDictionary(t *testing.T) {
	idx := buildIndex("dog", "god", "cat")
	h := New(idx, solver.New(idx), Options{Source: "words", MaxQueryLength: 24})

	rec := httptest.NewRecorder()
	h.Dictionary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dictionary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 3.0, got["words"])
	assert.Equal(t, 2.0, got["keys"])
	assert.Equal(t, "words", got["source"])
	assert.Equal(t, idx.Fingerprint(), got["fingerprint"])
}
