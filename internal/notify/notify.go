// Package notify delivers user notifications on a best-effort basis.
// Delivery never blocks or fails the operation that triggered it.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"promptmart/internal/messaging"
	"promptmart/internal/model"
	"promptmart/internal/repository"
	"promptmart/internal/telemetry"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sink accepts notifications for asynchronous delivery.
type Sink interface {
	Notify(ctx context.Context, userID uuid.UUID, message string, orderID *uuid.UUID)
}

// Options tune the dispatcher.
type Options struct {
	QueueSize      int
	Workers        int
	DeliverTimeout time.Duration
}

// DefaultOptions returns the dispatcher defaults.
func DefaultOptions() Options {
	return Options{
		QueueSize:      256,
		Workers:        2,
		DeliverTimeout: 5 * time.Second,
	}
}

type job struct {
	ctx          context.Context
	notification model.Notification
}

// Dispatcher is a Sink backed by a bounded queue drained by worker goroutines.
// Each notification is persisted and then published when a publisher is set.
type Dispatcher struct {
	repo      repository.NotificationRepository
	publisher messaging.Publisher
	metrics   *telemetry.Metrics
	opts      Options
	logger    zerolog.Logger
	now       func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. publisher and metrics may be nil.
func NewDispatcher(
	repo repository.NotificationRepository,
	publisher messaging.Publisher,
	metrics *telemetry.Metrics,
	opts Options,
	logger zerolog.Logger,
) *Dispatcher {
	defaults := DefaultOptions()
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaults.QueueSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaults.Workers
	}
	if opts.DeliverTimeout <= 0 {
		opts.DeliverTimeout = defaults.DeliverTimeout
	}

	return &Dispatcher{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		opts:      opts,
		logger:    logger.With().Str("component", "notifier").Logger(),
		now:       time.Now,
		queue:     make(chan job, opts.QueueSize),
	}
}

// Start launches the workers. They exit once Close has drained the queue.
func (d *Dispatcher) Start() {
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for j := range d.queue {
				d.deliver(j)
			}
		}()
	}

	d.logger.Info().
		Int("workers", d.opts.Workers).
		Int("queue_size", d.opts.QueueSize).
		Msg("notification dispatcher started")
}

// Notify enqueues a notification without blocking. When the queue is full or
// the dispatcher is closed the notification is dropped and logged.
func (d *Dispatcher) Notify(ctx context.Context, userID uuid.UUID, message string, orderID *uuid.UUID) {
	n := model.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Message:   message,
		OrderID:   orderID,
		CreatedAt: d.now().UTC(),
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(ctx, n, "dispatcher closed")
		return
	}

	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), notification: n}:
	default:
		d.drop(ctx, n, "queue full")
	}
}

func (d *Dispatcher) drop(ctx context.Context, n model.Notification, reason string) {
	d.metrics.NotificationDropped(ctx)
	d.logger.Error().
		Str("user_id", n.UserID.String()).
		Str("reason", reason).
		Str("message", n.Message).
		Msg("notification dropped")
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.DeliverTimeout)
	defer cancel()

	n := j.notification
	if err := d.repo.Create(ctx, &n); err != nil {
		d.logger.Error().Err(err).Str("user_id", n.UserID.String()).Msg("failed to persist notification")
		return
	}

	if d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(ctx, n.UserID.String(), n.Event()); err != nil {
		d.logger.Error().Err(err).Str("notification_id", n.ID.String()).Msg("failed to publish notification event")
	}
}

// Close stops accepting notifications and waits for queued ones to be
// delivered, or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info().Msg("notification dispatcher drained")
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("notification queue not drained"), ctx.Err())
	}
}
