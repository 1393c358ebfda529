package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventShiftAssigned      EventType = "shift_assigned"
	EventShiftRescheduled   EventType = "shift_rescheduled"
	EventNotificationQueued EventType = "notification_queued"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	PersonID  string      `json:"person_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ShiftAssignedPayload payload.
type ShiftAssignedPayload struct {
	ShiftID string `json:"shift_id"`
	Date    string `json:"date"`
}

// ShiftRescheduledPayload payload.
type ShiftRescheduledPayload struct {
	ShiftID string `json:"shift_id"`
	OldDate string `json:"old_date"`
	NewDate string `json:"new_date"`
}

// NotificationQueuedPayload payload.
type NotificationQueuedPayload struct {
	NotificationID string `json:"notification_id"`
	Channel        string `json:"channel"`
}
