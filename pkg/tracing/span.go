// Package tracing records in-process span trees for a request and logs them
// through slog when the root span finishes. The trace ID is the request ID.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/logger"
)

type contextKey struct{}

type Span struct {
	Name     string
	TraceID  string
	Start    time.Time
	Duration time.Duration
	Children []*Span
	Attrs    map[string]any

	parent *Span
	mu     sync.Mutex
}

// Start opens a span. If ctx already carries one the new span becomes its
// child; otherwise it is a root span traced under the request ID in ctx.
func Start(ctx context.Context, name string) (context.Context, *Span) {
	span := &Span{
		Name:  name,
		Start: time.Now(),
		Attrs: make(map[string]any),
	}
	if parent := FromContext(ctx); parent != nil {
		span.parent = parent
		span.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.Children = append(parent.Children, span)
		parent.mu.Unlock()
	} else {
		span.TraceID = logger.RequestID(ctx)
	}
	return context.WithValue(ctx, contextKey{}, span), span
}

func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(contextKey{}).(*Span)
	return span
}

func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.Attrs[key] = value
	s.mu.Unlock()
}

// End records the duration. Ending a root span logs the whole tree at
// debug level.
func (s *Span) End() {
	s.mu.Lock()
	s.Duration = time.Since(s.Start)
	s.mu.Unlock()
	if s.parent == nil {
		s.log(slog.Default(), 0)
	}
}

func (s *Span) log(l *slog.Logger, depth int) {
	s.mu.Lock()
	attrs := []any{
		"trace_id", s.TraceID,
		"span", s.Name,
		"duration_us", s.Duration.Microseconds(),
		"depth", depth,
	}
	for k, v := range s.Attrs {
		attrs = append(attrs, k, v)
	}
	children := append([]*Span(nil), s.Children...)
	s.mu.Unlock()

	l.Debug("span", attrs...)
	for _, child := range children {
		child.log(l, depth+1)
	}
}
