package submitcontactinfo

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/intake/engine"
	"loan-intake/internal/intake/repository"
	"loan-intake/internal/intake/rules"
)

func setup(t *testing.T) (*Handler, string) {
	t.Helper()
	repo := repository.NewMemory()
	eng := engine.New(repo)
	app, err := eng.SubmitPersonal(context.Background(), rules.PersonalInput{
		FirstName: "Lena", LastName: "Vogel", DateOfBirth: "1988-03-02",
	}, "")
	require.NoError(t, err)

	return NewHandler(&Config{Timeout: 5 * time.Second}, eng, logger.NewTestLogger(t)), app.ID
}

func TestHandler_Execute_Success(t *testing.T) {
	h, id := setup(t)

	out, err := h.Execute(context.Background(), &Input{
		ApplicationID: id,
		ContactInfo:   json.RawMessage(`{"email":"lena.vogel@example.de","phone":"+4915112345678"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, id, out.ApplicationID)
	require.NotNil(t, out.Application.ContactInfo)
	assert.Equal(t, "lena.vogel@example.de", out.Application.ContactInfo.Email)
	assert.Equal(t, "+4915112345678", out.Application.ContactInfo.Phone)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name         string
		id           string
		contact      string
		expectedCode apperrors.ErrorCode
		field        string
	}{
		{"invalid email", "", `{"email":"not-an-email","phone":"+4915112345678"}`, apperrors.ErrCodeValidationFailed, "email"},
		{"invalid phone", "", `{"email":"lena@example.de","phone":"015112345678"}`, apperrors.ErrCodeValidationFailed, "phone"},
		{"missing phone", "", `{"email":"lena@example.de"}`, apperrors.ErrCodeValidationFailed, "phone"},
		{"unknown application", "nope", `{"email":"lena@example.de","phone":"+4915112345678"}`, apperrors.ErrCodeApplicationNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, id := setup(t)
			if tt.id != "" {
				id = tt.id
			}

			_, err := h.Execute(context.Background(), &Input{ApplicationID: id, ContactInfo: json.RawMessage(tt.contact)})

			stdErr, ok := apperrors.AsStandard(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.expectedCode, stdErr.Code)
			if tt.field != "" {
				require.NotEmpty(t, stdErr.Violations)
				assert.Equal(t, tt.field, stdErr.Violations[0].Field)
			}
		})
	}
}
