package dto

import (
	"time"

	"github.com/spec-kit/oncall-service/internal/domain"
)

// StatisticResponse reports a person's workload, with per-weekday counts keyed by name.
type StatisticResponse struct {
	PersonID string         `json:"person_id"`
	Total    int            `json:"total"`
	Weekdays map[string]int `json:"weekdays"`
}

// NewStatisticResponse converts a ledger row.
func NewStatisticResponse(s domain.WorkloadStatistic) StatisticResponse {
	weekdays := make(map[string]int, len(domain.WeekdayNames))
	for i, name := range domain.WeekdayNames {
		weekdays[name] = s.ForWeekday(i)
	}
	return StatisticResponse{PersonID: s.PersonID, Total: s.Total, Weekdays: weekdays}
}

// NotificationResponse is the wire form of a queued notification.
type NotificationResponse struct {
	ID        string  `json:"id"`
	Message   string  `json:"message"`
	Channel   string  `json:"channel"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
	SentAt    *string `json:"sent_at,omitempty"`
}

// NewNotificationResponse converts a domain notification.
func NewNotificationResponse(n domain.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID,
		Message:   n.Message,
		Channel:   string(n.Channel),
		Status:    string(n.Status),
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
	if n.SentAt != nil {
		sent := n.SentAt.UTC().Format(time.RFC3339)
		resp.SentAt = &sent
	}
	return resp
}
