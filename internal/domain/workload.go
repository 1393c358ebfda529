package domain

import (
	"errors"
	"fmt"
)

// ErrLedgerInvariant signals that a statistic's total no longer matches its weekday counters.
var ErrLedgerInvariant = errors.New("workload total does not match weekday counters")

// WeekdayNames lists weekday labels indexed by WeekdayIndex.
var WeekdayNames = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// WorkloadStatistic is the cumulative shift count for a person.
// A missing record is equivalent to the zero value.
type WorkloadStatistic struct {
	PersonID string
	Total    int
	Weekdays [7]int
}

// ForWeekday returns the counter for the weekday index (Monday=0).
func (w WorkloadStatistic) ForWeekday(idx int) int {
	if idx < 0 || idx > 6 {
		return 0
	}
	return w.Weekdays[idx]
}

// Sum adds up the weekday counters.
func (w WorkloadStatistic) Sum() int {
	sum := 0
	for _, c := range w.Weekdays {
		sum += c
	}
	return sum
}

// Validate checks the total/weekday invariant.
func (w WorkloadStatistic) Validate() error {
	if w.Total < 0 || w.Total != w.Sum() {
		return fmt.Errorf("%w: person %s total=%d sum=%d", ErrLedgerInvariant, w.PersonID, w.Total, w.Sum())
	}
	return nil
}

// Increment bumps the total and the weekday counter in place.
func (w *WorkloadStatistic) Increment(idx int) {
	w.Total++
	w.Weekdays[idx]++
}
