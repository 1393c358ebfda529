package lock

import (
	"context"

	"github.com/puzpuzpuz/xsync/v4"
)

// LocalLocker keeps one channel-based mutex per person inside the process.
type LocalLocker struct {
	slots *xsync.Map[string, chan struct{}]
}

// NewLocalLocker creates a process-local locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: xsync.NewMap[string, chan struct{}]()}
}

// Lock acquires the person's slot, honoring ctx cancellation while waiting.
func (l *LocalLocker) Lock(ctx context.Context, personID string) (func(), error) {
	slot, _ := l.slots.LoadOrStore(personID, make(chan struct{}, 1))
	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ErrNotAcquired
	}
}
