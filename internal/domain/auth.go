package domain

import "time"

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Role      PersonRole
	ExpiresAt time.Time
	IssuedAt  time.Time
}
