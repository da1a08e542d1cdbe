// internal/workers/application/send-notification/handler.go
package sendnotification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"loan-intake/internal/common/camunda"
	apperrors "loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/metrics"
	"loan-intake/internal/models"
)

const (
	TaskType = "send-notification"
)

type ApplicationReader interface {
	Get(ctx context.Context, id string) (*models.Application, error)
}

type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) (string, error)
}

type Texter interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config *Config
	apps   ApplicationReader
	mailer Mailer
	texter Texter
	logger logger.Logger
	runner *camunda.JobRunner
	now    func() time.Time
}

// NewHandler wires the delivery channels. A nil mailer or texter disables that channel.
func NewHandler(config *Config, apps ApplicationReader, mailer Mailer, texter Texter, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		apps:   apps,
		mailer: mailer,
		texter: texter,
		logger: log,
		runner: camunda.NewJobRunner(TaskType, config.Timeout, log),
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context, variables string) (interface{}, error) {
		var input Input
		if err := json.Unmarshal([]byte(variables), &input); err != nil {
			return nil, apperrors.NewInputParsingFailedError(err)
		}
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	notificationType := input.NotificationType
	if notificationType == "" {
		notificationType = TypeApplicationFinalized
	}

	tmpl, exists := templates[notificationType]
	if !exists {
		return nil, apperrors.NewValidationFailedError([]apperrors.Violation{
			{Field: "notificationType", Reason: "unknown notification type " + notificationType},
		})
	}

	app, err := h.apps.Get(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	data := templateData(app)
	sentAt := h.now().UTC()

	var contact models.ContactInfo
	if app.ContactInfo != nil {
		contact = *app.ContactInfo
	}

	results := make([]models.Notification, 0, 2)

	emailEnabled := h.config.EmailEnabled && h.mailer != nil
	email := h.deliver(ctx, app.ID, notificationType, ChannelEmail, contact.Email, emailEnabled, sentAt,
		func(ctx context.Context) (string, error) {
			return h.mailer.SendEmail(ctx, contact.Email,
				renderTemplate(tmpl.Subject, data), renderTemplate(tmpl.Body, data))
		})
	results = append(results, email)

	smsEnabled := h.config.SMSEnabled && h.texter != nil
	sms := h.deliver(ctx, app.ID, notificationType, ChannelSMS, contact.Phone, smsEnabled, sentAt,
		func(ctx context.Context) (string, error) {
			return h.texter.SendSMS(ctx, contact.Phone, renderTemplate(tmpl.SMS, data))
		})
	results = append(results, sms)

	if h.config.Strict {
		for _, n := range results {
			if n.Status == models.NotificationFailed {
				return nil, apperrors.NewNotificationSendFailedError(n.Channel, errors.New(n.Error))
			}
		}
	}

	return &Output{
		ApplicationID: app.ID,
		Status:        overallStatus(results),
		Notifications: results,
		SentAt:        sentAt.Format(time.RFC3339),
	}, nil
}

func (h *Handler) deliver(
	ctx context.Context,
	applicationID, notificationType, channel, recipient string,
	enabled bool,
	sentAt time.Time,
	send func(context.Context) (string, error),
) models.Notification {
	n := models.Notification{
		ID:            uuid.New().String(),
		ApplicationID: applicationID,
		Type:          notificationType,
		Channel:       channel,
		Recipient:     recipient,
		Status:        models.NotificationDisabled,
		SentAt:        sentAt,
	}

	if enabled && recipient != "" {
		messageID, err := send(ctx)
		if err != nil {
			h.logger.Error(channel+" send failed", map[string]interface{}{
				"error":         err,
				"applicationId": applicationID,
			})
			n.Status = models.NotificationFailed
			n.Error = err.Error()
		} else {
			n.Status = models.NotificationSent
			n.MessageID = messageID
		}
	}

	metrics.NotificationsSent.WithLabelValues(channel, n.Status).Inc()
	return n
}

// overallStatus is "failed" if any channel failed, "sent" if any delivered, else "disabled".
func overallStatus(results []models.Notification) string {
	status := models.NotificationDisabled
	for _, n := range results {
		switch n.Status {
		case models.NotificationFailed:
			return models.NotificationFailed
		case models.NotificationSent:
			status = models.NotificationSent
		}
	}
	return status
}

func templateData(app *models.Application) map[string]interface{} {
	data := map[string]interface{}{"applicationId": app.ID}
	if app.PersonalInfo != nil {
		data["firstName"] = app.PersonalInfo.FirstName
		data["lastName"] = app.PersonalInfo.LastName
	}
	if app.LoanInfo != nil {
		data["amount"] = app.LoanInfo.Amount
		data["terms"] = app.LoanInfo.Terms
	}
	return data
}
