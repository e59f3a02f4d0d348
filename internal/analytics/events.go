// Package analytics publishes solve events to Kafka and aggregates them on
// the consuming side into query statistics.
package analytics

import "time"

// Outcome classifies how a solve request ended.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeInvalid Outcome = "invalid"
	OutcomeTimeout Outcome = "timeout"
	OutcomeError   Outcome = "error"
)

// SolveEvent is emitted once per solve request.
type SolveEvent struct {
	Query     string    `json:"query"`
	Length    int       `json:"length"`
	Matches   int       `json:"matches"`
	Subsets   int       `json:"subsets"`
	LatencyMs float64   `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Outcome   Outcome   `json:"outcome"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
