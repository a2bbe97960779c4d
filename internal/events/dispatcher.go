package events

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/logger"
	"github.com/feral-file/ff-ticket-market/internal/messaging"
)

// Sink receives the events of an operation after it has committed
type Sink interface {
	Dispatch(ctx context.Context, events []domain.Event)
}

// Hook is a best-effort side effect run after an operation commits.
// A failing hook is logged and never affects settlement.
//
//go:generate mockgen -source=dispatcher.go -destination=../mocks/hook.go -package=mocks -mock_names=Hook=MockHook,Sink=MockSink
type Hook interface {
	Name() string
	Handle(ctx context.Context, event domain.Event) error
}

// Config holds the dispatcher worker and retry settings
type Config struct {
	Workers        int
	QueueSize      int
	PublishRetries uint64
	RetryInterval  time.Duration
}

// Dispatcher publishes committed events and runs hooks on a worker pool
type Dispatcher struct {
	publisher messaging.Publisher
	hooks     []Hook
	pool      pond.Pool
	config    Config
}

// NewDispatcher creates a dispatcher; Close must be called to drain it
func NewDispatcher(publisher messaging.Publisher, cfg Config, hooks ...Hook) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}

	return &Dispatcher{
		publisher: publisher,
		hooks:     hooks,
		pool:      pond.NewPool(cfg.Workers, pond.WithQueueSize(cfg.QueueSize)),
		config:    cfg,
	}
}

// Dispatch queues the events of one operation. Events of a batch are
// published in order by a single task; the caller never blocks on delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, events []domain.Event) {
	if len(events) == 0 {
		return
	}

	batch := make([]domain.Event, len(events))
	copy(batch, events)
	ctx = context.WithoutCancel(ctx)

	d.pool.Submit(func() {
		for i := range batch {
			d.publish(ctx, &batch[i])
			d.runHooks(ctx, batch[i])
		}
	})
}

func (d *Dispatcher) publish(ctx context.Context, event *domain.Event) {
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(d.config.RetryInterval), d.config.PublishRetries)

	var attempt int
	operation := func() error {
		attempt++
		return d.publisher.PublishEvent(ctx, event)
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to publish event: %w", err),
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Int("attempts", attempt),
		)
	}
}

func (d *Dispatcher) runHooks(ctx context.Context, event domain.Event) {
	for _, hook := range d.hooks {
		if err := hook.Handle(ctx, event); err != nil {
			logger.WarnCtx(ctx, "Post-commit hook failed",
				zap.String("hook", hook.Name()),
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
		}
	}
}

// Close waits for queued events to be delivered and stops the pool
func (d *Dispatcher) Close() {
	d.pool.StopAndWait()
}
