package domain

import (
	"fmt"
	"time"
)

// ShiftAssignment is one on-call duty for one person on one date.
type ShiftAssignment struct {
	ID        string
	PersonID  string
	Date      time.Time
	StartTime string
	EndTime   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShiftTemplate is the fixed clock window applied to every assignment.
type ShiftTemplate struct {
	Start string
	End   string
}

// DefaultShiftTemplate starts in the afternoon and ends the next morning.
var DefaultShiftTemplate = ShiftTemplate{Start: "15:00", End: "09:00"}

// Validate ensures both ends parse as HH:MM.
func (t ShiftTemplate) Validate() error {
	if _, err := time.Parse("15:04", t.Start); err != nil {
		return fmt.Errorf("invalid shift start %q", t.Start)
	}
	if _, err := time.Parse("15:04", t.End); err != nil {
		return fmt.Errorf("invalid shift end %q", t.End)
	}
	return nil
}
