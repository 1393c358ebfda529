package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/oncall-service/internal/domain"
)

// WorkloadRepository is the per-person workload ledger.
type WorkloadRepository interface {
	// Get returns the statistic for the person, zero-valued when absent.
	Get(ctx context.Context, personID string) (domain.WorkloadStatistic, error)
	// IncrementForDate atomically bumps the total and the weekday counter of date.
	IncrementForDate(ctx context.Context, personID string, date time.Time) (domain.WorkloadStatistic, error)
	List(ctx context.Context) ([]domain.WorkloadStatistic, error)
}

type workloadRepository struct {
	pool *pgxpool.Pool
}

// NewWorkloadRepository builds repository.
func NewWorkloadRepository(pool *pgxpool.Pool) WorkloadRepository {
	return &workloadRepository{pool: pool}
}

const workloadColumns = `person_id, total, monday, tuesday, wednesday, thursday, friday, saturday, sunday`

func (r *workloadRepository) Get(ctx context.Context, personID string) (domain.WorkloadStatistic, error) {
	query := `SELECT ` + workloadColumns + ` FROM workload_statistics WHERE person_id=$1`
	stat, err := scanWorkload(r.pool.QueryRow(ctx, query, personID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WorkloadStatistic{PersonID: personID}, nil
	}
	return stat, err
}

func (r *workloadRepository) IncrementForDate(ctx context.Context, personID string, date time.Time) (domain.WorkloadStatistic, error) {
	column := domain.WeekdayNames[domain.WeekdayIndex(date)]
	// column comes from a fixed list, never from input
	query := fmt.Sprintf(`
        INSERT INTO workload_statistics (person_id, total, %[1]s)
        VALUES ($1, 1, 1)
        ON CONFLICT (person_id) DO UPDATE
        SET total = workload_statistics.total + 1, %[1]s = workload_statistics.%[1]s + 1
        RETURNING %[2]s`, column, workloadColumns)
	return scanWorkload(r.pool.QueryRow(ctx, query, personID))
}

func (r *workloadRepository) List(ctx context.Context) ([]domain.WorkloadStatistic, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+workloadColumns+` FROM workload_statistics ORDER BY total DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkloadStatistic
	for rows.Next() {
		stat, err := scanWorkload(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, stat)
	}
	return result, rows.Err()
}

func scanWorkload(row rowScanner) (domain.WorkloadStatistic, error) {
	var stat domain.WorkloadStatistic
	err := row.Scan(
		&stat.PersonID,
		&stat.Total,
		&stat.Weekdays[0],
		&stat.Weekdays[1],
		&stat.Weekdays[2],
		&stat.Weekdays[3],
		&stat.Weekdays[4],
		&stat.Weekdays[5],
		&stat.Weekdays[6],
	)
	return stat, err
}
