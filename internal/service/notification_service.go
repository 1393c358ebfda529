package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/oncall-service/internal/domain"
	"github.com/spec-kit/oncall-service/internal/events"
	"github.com/spec-kit/oncall-service/internal/observability"
	"github.com/spec-kit/oncall-service/internal/repository"
	apperrors "github.com/spec-kit/oncall-service/pkg/util"
)

// NotificationService queues notifications and exposes them to their recipients.
// Delivery and the pending -> sent transition belong to the worker.
type NotificationService struct {
	repo       repository.NotificationRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	Repo       repository.NotificationRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		repo:       deps.Repo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// RegisterHandlers subscribes to shift events for audit logging.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventShiftAssigned, n.logShiftEvent)
	n.dispatcher.Subscribe(events.EventShiftRescheduled, n.logShiftEvent)
}

func (n *NotificationService) logShiftEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("person_id", event.PersonID), zap.Any("payload", event.Payload))
	return nil
}

// Emit persists a pending notification and announces it to the delivery worker.
func (n *NotificationService) Emit(ctx context.Context, personID, message string, channel domain.NotificationChannel) (*domain.Notification, error) {
	if !channel.Valid() {
		return nil, apperrors.NewValidationError("unknown notification channel", map[string]any{"channel": channel})
	}
	notification := &domain.Notification{
		PersonID: personID,
		Message:  message,
		Channel:  channel,
		Status:   domain.NotificationStatusPending,
	}
	if err := n.repo.Create(ctx, notification); err != nil {
		return nil, err
	}
	n.metrics.RecordNotification(string(channel), "queued")

	if n.dispatcher != nil {
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventNotificationQueued,
			PersonID:  personID,
			Timestamp: n.now(),
			Payload: events.NotificationQueuedPayload{
				NotificationID: notification.ID,
				Channel:        string(channel),
			},
		}
		if err := n.dispatcher.Publish(ctx, event); err != nil {
			n.logger.Warn("notification_queued handlers failed", zap.String("notification_id", notification.ID), zap.Error(err))
		}
	}
	return notification, nil
}

// ListForPerson returns the caller's notifications, newest first.
func (n *NotificationService) ListForPerson(ctx context.Context, actor *domain.Person) ([]domain.Notification, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("person required")
	}
	list, err := n.repo.ListByPerson(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// MarkSent flips a notification to sent. Repeating the call is a no-op.
func (n *NotificationService) MarkSent(ctx context.Context, actor *domain.Person, id string) (*domain.Notification, error) {
	notification, err := n.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if notification.Status == domain.NotificationStatusSent {
		return notification, nil
	}
	sentAt := n.now()
	if err := n.repo.MarkSent(ctx, id, sentAt); err != nil {
		return nil, apperrors.MapError(err)
	}
	notification.Status = domain.NotificationStatusSent
	notification.SentAt = &sentAt
	return notification, nil
}

// Delete removes one of the caller's notifications.
func (n *NotificationService) Delete(ctx context.Context, actor *domain.Person, id string) error {
	if _, err := n.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := n.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (n *NotificationService) owned(ctx context.Context, actor *domain.Person, id string) (*domain.Notification, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("person required")
	}
	notification, err := n.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("notification", map[string]any{"notification_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	// other people's notifications are reported as missing
	if notification.PersonID != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.NewNotFound("notification", map[string]any{"notification_id": id})
	}
	return notification, nil
}
