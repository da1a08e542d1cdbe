// internal/models/notification.go
package models

import "time"

// NotificationStatus values reported by the notification worker.
const (
	NotificationSent     = "sent"
	NotificationFailed   = "failed"
	NotificationDisabled = "disabled"
)

// Notification records one delivery attempt to an applicant.
type Notification struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	Type          string    `json:"type"`    // "application_finalized"
	Channel       string    `json:"channel"` // "email", "sms"
	Recipient     string    `json:"recipient"`
	Status        string    `json:"status"`
	MessageID     string    `json:"messageId,omitempty"`
	Error         string    `json:"error,omitempty"`
	SentAt        time.Time `json:"sentAt"`
}
