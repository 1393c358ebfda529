package domain

import "time"

// Unavailability excludes a person from assignment on one date.
type Unavailability struct {
	ID        string
	PersonID  string
	Date      time.Time
	CreatedAt time.Time
}
