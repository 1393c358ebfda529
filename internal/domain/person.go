package domain

import "time"

// PersonRole enumerates roster roles.
type PersonRole string

const (
	PersonRoleMember PersonRole = "MEMBER"
	PersonRoleAdmin  PersonRole = "ADMIN"
)

// Person is a roster member eligible for on-call duty.
type Person struct {
	ID           string
	Username     string
	Name         string
	Email        string
	PasswordHash string
	Role         PersonRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the person may override shifts.
func (p *Person) IsAdmin() bool {
	return p != nil && p.Role == PersonRoleAdmin
}
