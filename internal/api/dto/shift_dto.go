package dto

import (
	"time"

	"github.com/spec-kit/oncall-service/internal/domain"
)

// AssignRangeRequest payload for POST /shifts/assign.
type AssignRangeRequest struct {
	StartDate string `json:"start_date" validate:"required,isodate"`
	EndDate   string `json:"end_date" validate:"required,isodate"`
}

// AssignRangeResponse acknowledges a completed allocation run.
type AssignRangeResponse struct {
	Status     string `json:"status"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Assigned   int    `json:"assigned"`
	Unassigned int    `json:"unassigned"`
}

// RescheduleShiftRequest payload for PATCH /shifts/:id/date.
type RescheduleShiftRequest struct {
	Date string `json:"date" validate:"required,isodate"`
}

// ShiftResponse is the wire form of a shift assignment.
type ShiftResponse struct {
	ID        string    `json:"id"`
	PersonID  string    `json:"person_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}

// NewShiftResponse converts a domain shift.
func NewShiftResponse(s domain.ShiftAssignment) ShiftResponse {
	return ShiftResponse{
		ID:        s.ID,
		PersonID:  s.PersonID,
		Date:      domain.FormatDate(s.Date),
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		CreatedAt: s.CreatedAt,
	}
}

// UnavailabilityRequest payload for POST /unavailability.
type UnavailabilityRequest struct {
	Date string `json:"date" validate:"required,isodate"`
}

// UnavailabilityResponse is the wire form of an exclusion.
type UnavailabilityResponse struct {
	ID       string `json:"id"`
	PersonID string `json:"person_id"`
	Date     string `json:"date"`
}

// NewUnavailabilityResponse converts a domain record.
func NewUnavailabilityResponse(u domain.Unavailability) UnavailabilityResponse {
	return UnavailabilityResponse{ID: u.ID, PersonID: u.PersonID, Date: domain.FormatDate(u.Date)}
}
