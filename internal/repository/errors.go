package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicateAssignment is returned when a person already holds a shift on the date.
	ErrDuplicateAssignment = errors.New("shift already assigned for person and date")
	// ErrDuplicateUnavailability is returned when the person already marked the date.
	ErrDuplicateUnavailability = errors.New("unavailability already recorded for person and date")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
