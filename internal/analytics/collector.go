// Package analytics collects query events and publishes them to Kafka in
// the background. Recording an event never blocks a search: when the buffer
// is full the event is dropped and counted.
package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/docrank/docrank/pkg/kafka"
	"github.com/docrank/docrank/pkg/metrics"
)

// QueryEvent describes a single processed search query.
type QueryEvent struct {
	Query      string    `json:"query"`
	Outcome    string    `json:"outcome"` // match, no_match, error
	BestDocID  string    `json:"best_doc_id,omitempty"`
	NumResults int       `json:"num_results"`
	TookMillis int64     `json:"took_ms"`
	CacheHit   bool      `json:"cache_hit"`
	Timestamp  time.Time `json:"timestamp"`
}

// Collector buffers query events and publishes them asynchronously.
type Collector struct {
	producer *kafka.Producer
	events   chan QueryEvent
	metrics  *metrics.Metrics
	logger   *slog.Logger
	done     chan struct{}
	started  bool
}

// NewCollector creates a Collector with the given buffer size. m may be nil.
func NewCollector(producer *kafka.Producer, bufferSize int, m *metrics.Metrics) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		producer: producer,
		events:   make(chan QueryEvent, bufferSize),
		metrics:  m,
		logger:   slog.Default().With("component", "analytics-collector"),
		done:     make(chan struct{}),
	}
}

// Record enqueues an event, dropping it if the buffer is full.
func (c *Collector) Record(event QueryEvent) {
	select {
	case c.events <- event:
	default:
		if c.metrics != nil {
			c.metrics.QueryEventsDroppedTotal.Inc()
		}
		c.logger.Debug("query event dropped, buffer full")
	}
}

// Start launches the publish loop, batching buffered events every flush
// interval until ctx is cancelled.
func (c *Collector) Start(ctx context.Context) {
	c.started = true
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				c.flush(context.Background())
				return
			case <-ticker.C:
				c.flush(ctx)
			}
		}
	}()
}

// Close waits for the publish loop to drain and exit. It returns immediately
// if Start was never called.
func (c *Collector) Close() {
	if !c.started {
		return
	}
	<-c.done
}

// flush drains the buffer and publishes one batch.
func (c *Collector) flush(ctx context.Context) {
	var batch []kafka.Event
	for {
		select {
		case event := <-c.events:
			batch = append(batch, kafka.Event{
				Key:   event.Query,
				Value: event,
			})
		default:
			if len(batch) == 0 {
				return
			}
			publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := c.producer.PublishBatch(publishCtx, batch); err != nil {
				c.logger.Error("publishing query events failed", "count", len(batch), "error", err)
			}
			cancel()
			return
		}
	}
}
