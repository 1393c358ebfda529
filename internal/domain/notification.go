package domain

import "time"

// NotificationChannel is the delivery medium.
type NotificationChannel string

const (
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelPush  NotificationChannel = "push"
)

// NotificationStatus tracks delivery.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
)

// Notification is a message queued for a person.
type Notification struct {
	ID        string
	PersonID  string
	Message   string
	Channel   NotificationChannel
	Status    NotificationStatus
	CreatedAt time.Time
	SentAt    *time.Time
}

// Valid reports whether the channel is supported.
func (c NotificationChannel) Valid() bool {
	return c == NotificationChannelEmail || c == NotificationChannelPush
}
