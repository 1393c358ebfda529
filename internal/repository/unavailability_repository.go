package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/oncall-service/internal/domain"
)

// UnavailabilityRepository stores per-person exclusions and answers availability checks.
type UnavailabilityRepository interface {
	Create(ctx context.Context, record *domain.Unavailability) error
	Delete(ctx context.Context, personID string, date time.Time) (bool, error)
	ListByPerson(ctx context.Context, personID string, filter UnavailabilityFilter) ([]domain.Unavailability, error)
	IsExcluded(ctx context.Context, personID string, date time.Time) (bool, error)
}

// UnavailabilityFilter narrows listings to one month when both fields are set.
type UnavailabilityFilter struct {
	Year  int
	Month int
}

type unavailabilityRepository struct {
	pool *pgxpool.Pool
}

// NewUnavailabilityRepository builds repository.
func NewUnavailabilityRepository(pool *pgxpool.Pool) UnavailabilityRepository {
	return &unavailabilityRepository{pool: pool}
}

func (r *unavailabilityRepository) Create(ctx context.Context, record *domain.Unavailability) error {
	const query = `
        INSERT INTO unavailability (person_id, day)
        VALUES ($1, $2)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query, record.PersonID, record.Date).Scan(&record.ID, &record.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateUnavailability
	}
	return err
}

func (r *unavailabilityRepository) Delete(ctx context.Context, personID string, date time.Time) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM unavailability WHERE person_id=$1 AND day=$2`, personID, date)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *unavailabilityRepository) ListByPerson(ctx context.Context, personID string, filter UnavailabilityFilter) ([]domain.Unavailability, error) {
	query := `SELECT id, person_id, day, created_at FROM unavailability WHERE person_id=$1`
	args := []any{personID}
	if filter.Year > 0 && filter.Month > 0 {
		args = append(args, filter.Year, filter.Month)
		query += fmt.Sprintf(" AND EXTRACT(YEAR FROM day)=$%d AND EXTRACT(MONTH FROM day)=$%d", len(args)-1, len(args))
	}
	query += " ORDER BY day ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Unavailability
	for rows.Next() {
		var rec domain.Unavailability
		if err := rows.Scan(&rec.ID, &rec.PersonID, &rec.Date, &rec.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *unavailabilityRepository) IsExcluded(ctx context.Context, personID string, date time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM unavailability WHERE person_id=$1 AND day=$2)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, personID, date).Scan(&exists)
	return exists, err
}
