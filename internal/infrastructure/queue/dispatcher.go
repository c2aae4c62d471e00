package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/userdesk/admin-console/internal/api/metrics"
	"github.com/userdesk/admin-console/internal/core/domain"
	"github.com/userdesk/admin-console/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher hands session events to the underlying publisher off the request
// path. Events are sharded by account ID onto a fixed set of workers, so the
// events of one account are published in the order they were enqueued.
type Dispatcher struct {
	workers   []chan domain.SessionEvent
	publisher ports.SessionPublisher
	log       zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, publisher ports.SessionPublisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan domain.SessionEvent, numWorkers),
		publisher: publisher,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.SessionEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Publish enqueues the event on the worker owning its account. It blocks only
// when that worker's buffer is full, and gives up when ctx is done.
func (d *Dispatcher) Publish(ctx context.Context, event domain.SessionEvent) error {
	idx := d.shardIndex(event.UserID)
	select {
	case d.workers[idx] <- event:
		metrics.SessionEventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps an account ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.SessionEvent) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.SessionEventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := d.publisher.Publish(ctx, event); err != nil {
				metrics.SessionEventsPublishedTotal.WithLabelValues(string(event.Kind), "error").Inc()
				d.log.Error().Err(err).
					Str("account_id", event.UserID).
					Str("kind", string(event.Kind)).
					Int("worker_id", id).
					Msg("session event publish failed")
				continue
			}
			metrics.SessionEventsPublishedTotal.WithLabelValues(string(event.Kind), "ok").Inc()
		}
	}
}
