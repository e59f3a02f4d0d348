package analytics

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/kafka"
)

const maxLatencySamples = 10000

type AggregatedStats struct {
	TotalSolves       int64        `json:"total_solves"`
	CacheHits         int64        `json:"cache_hits"`
	CacheMisses       int64        `json:"cache_misses"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	InvalidCount      int64        `json:"invalid_count"`
	TimeoutCount      int64        `json:"timeout_count"`
	ErrorCount        int64        `json:"error_count"`
	AvgMatches        float64      `json:"avg_matches"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      float64      `json:"p50_latency_ms"`
	P95LatencyMs      float64      `json:"p95_latency_ms"`
	P99LatencyMs      float64      `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`
	CapturedAt        time.Time    `json:"captured_at"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds solve events into running statistics. Latency
// percentiles are computed over the most recent samples only.
type Aggregator struct {
	mu           sync.Mutex
	stats        AggregatedStats
	totalMatches int64
	latencies    []float64
	next         int
	queryCounts  map[string]int64
	zeroResults  map[string]int64
	startTime    time.Time
	now          func() time.Time
	logger       *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:   make([]float64, 0, 1024),
		queryCounts: make(map[string]int64),
		zeroResults: make(map[string]int64),
		startTime:   time.Now(),
		now:         time.Now,
		logger:      slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent returns a Kafka message handler feeding agg. Undecodable
// messages are logged and skipped so they do not block the partition.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[SolveEvent](value)
		if err != nil {
			agg.logger.Error("failed to decode solve event", "key", string(key), "error", err)
			return nil
		}
		agg.Record(event)
		return nil
	}
}

func (a *Aggregator) Record(event SolveEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.TotalSolves++
	switch event.Outcome {
	case OutcomeInvalid:
		a.stats.InvalidCount++
		return
	case OutcomeTimeout:
		a.stats.TimeoutCount++
		a.recordLatency(event.LatencyMs)
		return
	case OutcomeError:
		a.stats.ErrorCount++
		return
	}

	if event.CacheHit {
		a.stats.CacheHits++
	} else {
		a.stats.CacheMisses++
	}
	a.totalMatches += int64(event.Matches)
	a.queryCounts[event.Query]++
	if event.Matches == 0 {
		a.stats.ZeroResultCount++
		a.zeroResults[event.Query]++
	}
	a.recordLatency(event.LatencyMs)
}

func (a *Aggregator) recordLatency(ms float64) {
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, ms)
		return
	}
	a.latencies[a.next] = ms
	a.next = (a.next + 1) % maxLatencySamples
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.Lock()
	stats := a.stats
	latencies := slices.Clone(a.latencies)
	stats.TopQueries = topN(a.queryCounts, 10)
	stats.ZeroResultQueries = topN(a.zeroResults, 10)
	answered := stats.CacheHits + stats.CacheMisses
	if answered > 0 {
		stats.AvgMatches = float64(a.totalMatches) / float64(answered)
	}
	now := a.now()
	elapsed := now.Sub(a.startTime).Minutes()
	a.mu.Unlock()

	if len(latencies) > 0 {
		slices.Sort(latencies)
		var sum float64
		for _, l := range latencies {
			sum += l
		}
		stats.AvgLatencyMs = sum / float64(len(latencies))
		stats.P50LatencyMs = percentile(latencies, 50)
		stats.P95LatencyMs = percentile(latencies, 95)
		stats.P99LatencyMs = percentile(latencies, 99)
	}
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSolves) / elapsed
	}
	stats.CapturedAt = now.UTC()
	return stats
}

func percentile(sorted []float64, pct int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN returns the n most frequent queries, ties broken alphabetically.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
