package scheduler

import (
	"time"

	"github.com/spec-kit/oncall-service/internal/domain"
)

// minRestDays is the smallest gap, in days, between two shifts of one person.
const minRestDays = 1

// RunState is the rest tracking owned by a single Assign call.
type RunState struct {
	LastAssigned map[string]time.Time
}

// NewRunState returns an empty state.
func NewRunState() *RunState {
	return &RunState{LastAssigned: make(map[string]time.Time)}
}

// Seed records prior shift dates, keeping the most recent per person.
func (s *RunState) Seed(last map[string]time.Time) {
	for personID, date := range last {
		date = domain.TruncateDate(date)
		if prev, ok := s.LastAssigned[personID]; ok && !date.After(prev) {
			continue
		}
		s.LastAssigned[personID] = date
	}
}

// Rested reports whether the person may work on date.
func (s *RunState) Rested(personID string, date time.Time) bool {
	last, ok := s.LastAssigned[personID]
	if !ok {
		return true
	}
	return domain.DaysBetween(last, date) > minRestDays
}

// Record marks the person as assigned on date.
func (s *RunState) Record(personID string, date time.Time) {
	s.LastAssigned[personID] = domain.TruncateDate(date)
}
