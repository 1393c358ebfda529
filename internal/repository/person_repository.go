package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/oncall-service/internal/domain"
)

// PersonRepository reads and maintains roster members.
type PersonRepository interface {
	Create(ctx context.Context, person *domain.Person) error
	Update(ctx context.Context, person *domain.Person) error
	GetByID(ctx context.Context, id string) (*domain.Person, error)
	GetByUsername(ctx context.Context, username string) (*domain.Person, error)
	ListActive(ctx context.Context) ([]domain.Person, error)
}

type personRepository struct {
	pool *pgxpool.Pool
}

// NewPersonRepository returns a Postgres-backed implementation.
func NewPersonRepository(pool *pgxpool.Pool) PersonRepository {
	return &personRepository{pool: pool}
}

const personColumns = `id, username, name, email, password_hash, role, active_flag, created_at, updated_at`

func (r *personRepository) Create(ctx context.Context, person *domain.Person) error {
	const query = `
        INSERT INTO people (username, name, email, password_hash, role, active_flag)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		person.Username,
		person.Name,
		person.Email,
		person.PasswordHash,
		person.Role,
		person.Active,
	).Scan(&person.ID, &person.CreatedAt, &person.UpdatedAt)
}

func (r *personRepository) Update(ctx context.Context, person *domain.Person) error {
	const query = `
        UPDATE people SET name=$1, email=$2, password_hash=$3, role=$4, active_flag=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		person.Name,
		person.Email,
		person.PasswordHash,
		person.Role,
		person.Active,
		person.ID,
	).Scan(&person.UpdatedAt)
}

func (r *personRepository) GetByID(ctx context.Context, id string) (*domain.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people WHERE id=$1`
	return scanPerson(r.pool.QueryRow(ctx, query, id))
}

func (r *personRepository) GetByUsername(ctx context.Context, username string) (*domain.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people WHERE username=$1`
	return scanPerson(r.pool.QueryRow(ctx, query, username))
}

func (r *personRepository) ListActive(ctx context.Context) ([]domain.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people WHERE active_flag ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *person)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*domain.Person, error) {
	var person domain.Person
	if err := row.Scan(
		&person.ID,
		&person.Username,
		&person.Name,
		&person.Email,
		&person.PasswordHash,
		&person.Role,
		&person.Active,
		&person.CreatedAt,
		&person.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &person, nil
}
