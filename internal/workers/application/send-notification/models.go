// internal/workers/application/send-notification/models.go
package sendnotification

import "loan-intake/internal/models"

type Input struct {
	ApplicationID    string `json:"applicationId"`
	NotificationType string `json:"notificationType,omitempty"` // defaults to application_finalized
}

type Output struct {
	ApplicationID string                `json:"applicationId"`
	Status        string                `json:"status"` // "sent", "failed", "disabled"
	Notifications []models.Notification `json:"notifications"`
	SentAt        string                `json:"sentAt"` // ISO 8601
}

// Notification types
const (
	TypeApplicationFinalized = "application_finalized"
	TypeApplicationRejected  = "application_rejected"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
