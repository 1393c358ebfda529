package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/oncall-service/internal/domain"
)

// NotificationRepository persists queued notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	ListByPerson(ctx context.Context, personID string) ([]domain.Notification, error)
	ListPending(ctx context.Context, limit int) ([]domain.Notification, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository builds repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationColumns = `id, person_id, message, channel, status, created_at, sent_at`

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (person_id, message, channel, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, n.PersonID, n.Message, n.Channel, n.Status).Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id=$1`
	return scanNotification(r.pool.QueryRow(ctx, query, id))
}

func (r *notificationRepository) ListByPerson(ctx context.Context, personID string) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE person_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, personID)
}

func (r *notificationRepository) ListPending(ctx context.Context, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE status=$1 ORDER BY created_at ASC LIMIT $2`
	return r.list(ctx, query, domain.NotificationStatusPending, limit)
}

func (r *notificationRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE notifications SET status=$1, sent_at=$2 WHERE id=$3`,
		domain.NotificationStatusSent, sentAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Notification, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	return result, rows.Err()
}

func scanNotification(row rowScanner) (*domain.Notification, error) {
	var n domain.Notification
	if err := row.Scan(&n.ID, &n.PersonID, &n.Message, &n.Channel, &n.Status, &n.CreatedAt, &n.SentAt); err != nil {
		return nil, err
	}
	return &n, nil
}
