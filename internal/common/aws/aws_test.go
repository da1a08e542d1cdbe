package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSES struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type mockSNS struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func TestEmailSender_SendEmail(t *testing.T) {
	client := &mockSES{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			assert.Equal(t, []string{"max@example.com"}, params.Destination.ToAddresses)
			assert.Equal(t, "loans@example.com", awssdk.ToString(params.Source))
			assert.Equal(t, "Subject", awssdk.ToString(params.Message.Subject.Data))
			assert.Equal(t, "Body", awssdk.ToString(params.Message.Body.Text.Data))
			return &ses.SendEmailOutput{MessageId: awssdk.String("ses-1")}, nil
		},
	}

	id, err := NewEmailSender(client, "loans@example.com").SendEmail(context.Background(), "max@example.com", "Subject", "Body")

	require.NoError(t, err)
	assert.Equal(t, "ses-1", id)
}

func TestEmailSender_Error(t *testing.T) {
	client := &mockSES{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	}

	_, err := NewEmailSender(client, "loans@example.com").SendEmail(context.Background(), "a@b.de", "s", "b")

	assert.ErrorContains(t, err, "throttled")
}

func TestSMSSender_SendSMS(t *testing.T) {
	tests := []struct {
		name       string
		senderID   string
		wantSender bool
	}{
		{name: "with sender id", senderID: "LOANS", wantSender: true},
		{name: "without sender id", senderID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockSNS{
				PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
					assert.Equal(t, "+4915112345678", awssdk.ToString(params.PhoneNumber))
					assert.Equal(t, "hello", awssdk.ToString(params.Message))
					_, ok := params.MessageAttributes["AWS.SNS.SMS.SenderID"]
					assert.Equal(t, tt.wantSender, ok)
					return &sns.PublishOutput{MessageId: awssdk.String("sns-1")}, nil
				},
			}

			id, err := NewSMSSender(client, tt.senderID).SendSMS(context.Background(), "+4915112345678", "hello")

			require.NoError(t, err)
			assert.Equal(t, "sns-1", id)
		})
	}
}
