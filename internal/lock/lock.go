// Package lock serializes writes that touch one person's workload.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when a lock could not be taken before the context ended.
var ErrNotAcquired = errors.New("person lock not acquired")

// PersonLocker guards the shift-create and ledger-increment pair for one person.
type PersonLocker interface {
	// Lock blocks until the person's lock is held or ctx is done.
	// The returned function releases it.
	Lock(ctx context.Context, personID string) (func(), error)
}
