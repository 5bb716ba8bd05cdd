package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/offset-service/internal/events"
	"github.com/spec-kit/offset-service/internal/service"
)

// StartNotificationWorker registers the audit handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// EventRelay moves events off the request path: Enqueue never blocks, and a single
// goroutine hands events to the sink in order. Events are dropped when the buffer is full.
type EventRelay struct {
	sink   events.EventHandler
	queue  chan events.Event
	logger *zap.Logger
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewEventRelay builds a relay with the given buffer size.
func NewEventRelay(sink events.EventHandler, buffer int, logger *zap.Logger) *EventRelay {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventRelay{sink: sink, queue: make(chan events.Event, buffer), logger: logger}
}

// Attach subscribes the relay to every event on d and starts the drain loop.
func (r *EventRelay) Attach(d events.Dispatcher) {
	d.SubscribeAll(r.Enqueue)
	r.wg.Add(1)
	go r.run()
}

// Enqueue satisfies events.EventHandler.
func (r *EventRelay) Enqueue(_ context.Context, event events.Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil
	}
	select {
	case r.queue <- event:
	default:
		r.logger.Warn("event relay full; dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
	}
	return nil
}

func (r *EventRelay) run() {
	defer r.wg.Done()
	for event := range r.queue {
		if err := r.sink(context.Background(), event); err != nil {
			r.logger.Warn("event relay delivery failed", zap.String("event_id", event.ID), zap.Error(err))
		}
	}
}

// Stop closes the queue and waits for pending events until ctx is done.
func (r *EventRelay) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
