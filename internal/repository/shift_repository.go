package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/oncall-service/internal/domain"
)

// ShiftRepository is the durable sink for shift assignments.
type ShiftRepository interface {
	// Create stores the shift or fails with ErrDuplicateAssignment.
	Create(ctx context.Context, shift *domain.ShiftAssignment) error
	GetByID(ctx context.Context, id string) (*domain.ShiftAssignment, error)
	List(ctx context.Context, filter ShiftFilter) ([]domain.ShiftAssignment, error)
	// LatestBefore returns, per person, the most recent shift date strictly before the given date.
	LatestBefore(ctx context.Context, personIDs []string, before time.Time) (map[string]time.Time, error)
	UpdateDate(ctx context.Context, id string, date time.Time) error
}

// ShiftFilter defines query params for shift listing.
type ShiftFilter struct {
	PersonID *string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type shiftRepository struct {
	pool *pgxpool.Pool
}

// NewShiftRepository instantiates the repository.
func NewShiftRepository(pool *pgxpool.Pool) ShiftRepository {
	return &shiftRepository{pool: pool}
}

const shiftColumns = `id, person_id, day, start_time, end_time, created_at, updated_at`

func (r *shiftRepository) Create(ctx context.Context, shift *domain.ShiftAssignment) error {
	const query = `
        INSERT INTO shift_assignments (person_id, day, start_time, end_time)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		shift.PersonID,
		shift.Date,
		shift.StartTime,
		shift.EndTime,
	).Scan(&shift.ID, &shift.CreatedAt, &shift.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateAssignment
	}
	return err
}

func (r *shiftRepository) GetByID(ctx context.Context, id string) (*domain.ShiftAssignment, error) {
	query := `SELECT ` + shiftColumns + ` FROM shift_assignments WHERE id=$1`
	return scanShift(r.pool.QueryRow(ctx, query, id))
}

func (r *shiftRepository) List(ctx context.Context, filter ShiftFilter) ([]domain.ShiftAssignment, error) {
	query := `SELECT ` + shiftColumns + ` FROM shift_assignments`
	args := []any{}
	clauses := []string{}

	if filter.PersonID != nil {
		args = append(args, *filter.PersonID)
		clauses = append(clauses, fmt.Sprintf("person_id=$%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("day>=$%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("day<=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY day ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ShiftAssignment
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *shift)
	}
	return result, rows.Err()
}

func (r *shiftRepository) LatestBefore(ctx context.Context, personIDs []string, before time.Time) (map[string]time.Time, error) {
	result := make(map[string]time.Time, len(personIDs))
	if len(personIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT person_id, MAX(day) FROM shift_assignments
        WHERE person_id = ANY($1::uuid[]) AND day < $2
        GROUP BY person_id`
	rows, err := r.pool.Query(ctx, query, personIDs, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var personID string
		var day time.Time
		if err := rows.Scan(&personID, &day); err != nil {
			return nil, err
		}
		result[personID] = day
	}
	return result, rows.Err()
}

func (r *shiftRepository) UpdateDate(ctx context.Context, id string, date time.Time) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE shift_assignments SET day=$1, updated_at=NOW() WHERE id=$2`, date, id)
	if isUniqueViolation(err) {
		return ErrDuplicateAssignment
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanShift(row rowScanner) (*domain.ShiftAssignment, error) {
	var shift domain.ShiftAssignment
	if err := row.Scan(
		&shift.ID,
		&shift.PersonID,
		&shift.Date,
		&shift.StartTime,
		&shift.EndTime,
		&shift.CreatedAt,
		&shift.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &shift, nil
}
