package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/kafka"
)

// Publisher writes a batch of events to the message bus.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector buffers solve events off the request path and publishes them in
// batches, flushing when a batch fills or the flush interval passes. Track
// never blocks: when the buffer is full the event is dropped.
type Collector struct {
	publisher     Publisher
	eventCh       chan SolveEvent
	batchSize     int
	flushInterval time.Duration
	dropped       atomic.Int64
	published     atomic.Int64
	logger        *slog.Logger
	done          chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewCollector(publisher Publisher, bufferSize, batchSize int, flushInterval time.Duration) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &Collector{
		publisher:     publisher,
		eventCh:       make(chan SolveEvent, bufferSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the publish loop. It runs until Close is called or ctx is
// cancelled, flushing what is buffered before it exits.
func (c *Collector) Start(ctx context.Context) {
	go c.loop(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

func (c *Collector) loop(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := c.publisher.PublishBatch(ctx, batch); err != nil {
			c.logger.Error("failed to publish solve events", "count", len(batch), "error", err)
		} else {
			c.published.Add(int64(len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				c.finalFlush(flush)
				return
			}
			batch = append(batch, kafka.Event{Key: event.Query, Value: event})
			if len(batch) >= c.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			c.drain(&batch)
			c.finalFlush(flush)
			return
		}
	}
}

func (c *Collector) drain(batch *[]kafka.Event) {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			*batch = append(*batch, kafka.Event{Key: event.Query, Value: event})
		default:
			return
		}
	}
}

func (c *Collector) finalFlush(flush func(context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	flush(ctx)
}

// Track queues event for publishing. Events tracked after Close are counted
// as dropped.
func (c *Collector) Track(event SolveEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.dropped.Add(1)
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.dropped.Add(1)
		c.logger.Warn("solve event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the final flush. It is safe to
// call more than once.
func (c *Collector) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
	c.mu.Unlock()
	<-c.done
}

func (c *Collector) Counts() (published, dropped int64) {
	return c.published.Load(), c.dropped.Load()
}
