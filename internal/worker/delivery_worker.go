// Package worker delivers queued notifications and moves them from pending to sent.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/oncall-service/internal/domain"
	"github.com/spec-kit/oncall-service/internal/events"
	"github.com/spec-kit/oncall-service/internal/observability"
	"github.com/spec-kit/oncall-service/internal/repository"
)

// DeliveryWorker polls pending notifications and hands them to channel senders.
// Failed deliveries stay pending and are retried on the next pass.
type DeliveryWorker struct {
	notifications repository.NotificationRepository
	people        repository.PersonRepository
	senders       map[domain.NotificationChannel]Sender
	interval      time.Duration
	batchSize     int
	metrics       *observability.Metrics
	logger        *zap.Logger
	now           func() time.Time
	wake          chan struct{}
}

// DeliveryDependencies bundles collaborators.
type DeliveryDependencies struct {
	Notifications repository.NotificationRepository
	People        repository.PersonRepository
	Senders       map[domain.NotificationChannel]Sender
	Interval      time.Duration
	BatchSize     int
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

// NewDeliveryWorker creates the worker.
func NewDeliveryWorker(deps DeliveryDependencies) *DeliveryWorker {
	w := &DeliveryWorker{
		notifications: deps.Notifications,
		people:        deps.People,
		senders:       deps.Senders,
		interval:      deps.Interval,
		batchSize:     deps.BatchSize,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		now:           time.Now,
		wake:          make(chan struct{}, 1),
	}
	if w.interval <= 0 {
		w.interval = 10 * time.Second
	}
	if w.batchSize <= 0 {
		w.batchSize = 50
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	return w
}

// Subscribe nudges the worker whenever a notification is queued.
func (w *DeliveryWorker) Subscribe(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventNotificationQueued, func(context.Context, events.Event) error {
		w.Nudge()
		return nil
	})
}

// Nudge schedules an immediate pass without blocking.
func (w *DeliveryWorker) Nudge() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run loops until ctx is cancelled.
func (w *DeliveryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("notification delivery worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("notification delivery worker stopped")
			return
		case <-ticker.C:
		case <-w.wake:
		}
		if _, err := w.DeliverPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Warn("delivery pass failed", zap.Error(err))
		}
	}
}

// DeliverPending runs one pass over at most batchSize pending notifications and
// returns how many were marked sent.
func (w *DeliveryWorker) DeliverPending(ctx context.Context) (int, error) {
	pending, err := w.notifications.ListPending(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending notifications: %w", err)
	}

	delivered := 0
	for _, n := range pending {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		if err := w.deliver(ctx, n); err != nil {
			w.metrics.RecordNotification(string(n.Channel), "failed")
			w.logger.Warn("notification delivery failed",
				zap.String("notification_id", n.ID),
				zap.String("person_id", n.PersonID),
				zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered, nil
}

func (w *DeliveryWorker) deliver(ctx context.Context, n domain.Notification) error {
	sender, ok := w.senders[n.Channel]
	if !ok {
		return fmt.Errorf("no sender for channel %q", n.Channel)
	}
	recipient, err := w.people.GetByID(ctx, n.PersonID)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}
	if err := sender.Send(ctx, recipient, n); err != nil {
		return err
	}
	if err := w.notifications.MarkSent(ctx, n.ID, w.now()); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	w.metrics.RecordNotification(string(n.Channel), "sent")
	return nil
}
