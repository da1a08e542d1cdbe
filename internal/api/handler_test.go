package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/intake/engine"
	"loan-intake/internal/intake/repository"
	"loan-intake/internal/intake/rules"
	"loan-intake/internal/models"
)

type fakeCheck struct {
	name string
	err  error
}

func (f fakeCheck) Name() string                   { return f.name }
func (f fakeCheck) Ping(ctx context.Context) error { return f.err }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	now := func() time.Time { return time.Date(2026, time.June, 15, 9, 0, 0, 0, time.UTC) }
	eng := engine.New(repository.NewMemory(),
		engine.WithRules(rules.New(rules.WithClock(now))),
		engine.WithClock(now),
	)
	log := logger.NewTestLogger(t)
	return NewRouter(NewHandler(eng, log), log)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeApp(t *testing.T, rec *httptest.ResponseRecorder) models.Application {
	t.Helper()
	var app models.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &app), rec.Body.String())
	return app
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

const (
	personalBody  = `{"firstName":"Lena","lastName":"Vogel","dateOfBirth":"1988-03-02"}`
	contactBody   = `{"email":"lena.vogel@example.de","phone":"+4915112345678"}`
	loanBody      = `{"amount":10000,"upfront":0,"terms":12}`
	financialBody = `{"monthlySalary":2000,"hasAdditionalIncome":false,"hasMortgage":false,"hasOtherCredits":false}`
)

func TestAPI_FullFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/customer/personal-info", personalBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	uid := decodeApp(t, rec).ID
	require.NotEmpty(t, uid)

	for _, step := range []struct{ path, body string }{
		{"/contact-info", contactBody},
		{"/loan-info", loanBody},
		{"/financial-info", financialBody},
	} {
		rec = do(t, router, http.MethodPatch, "/api/customer/"+uid+step.path, step.body)
		require.Equal(t, http.StatusOK, rec.Code, "%s: %s", step.path, rec.Body.String())
	}

	rec = do(t, router, http.MethodPatch, "/api/customer/"+uid+"/finalize", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	app := decodeApp(t, rec)
	assert.True(t, app.Finalized)
	assert.Contains(t, rec.Body.String(), `"isFinalized":true`)
	assert.Contains(t, rec.Body.String(), `"uid":"`+uid+`"`)

	rec = do(t, router, http.MethodGet, "/api/customer/"+uid, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "lena.vogel@example.de", decodeApp(t, rec).ContactInfo.Email)

	rec = do(t, router, http.MethodGet, "/api/customer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []models.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	rec = do(t, router, http.MethodPatch, "/api/customer/"+uid+"/contact-info", contactBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_UpdatePersonalInfo(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/customer/personal-info", personalBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	uid := decodeApp(t, rec).ID

	rec = do(t, router, http.MethodPost, "/api/customer/personal-info?uid="+uid,
		`{"firstName":"Lena","lastName":"Krause-Vogel","dateOfBirth":"1988-03-02"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	app := decodeApp(t, rec)
	assert.Equal(t, uid, app.ID)
	assert.Equal(t, "Krause-Vogel", app.PersonalInfo.LastName)
}

func TestAPI_ErrorStatuses(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/customer/personal-info", personalBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	uid := decodeApp(t, rec).ID

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   apperrors.ErrorCode
	}{
		{"invalid first name", http.MethodPost, "/api/customer/personal-info", `{"firstName":"Lena Marie","lastName":"Vogel","dateOfBirth":"1988-03-02"}`, http.StatusBadRequest, apperrors.ErrCodeValidationFailed},
		{"empty body", http.MethodPatch, "/api/customer/" + uid + "/contact-info", ``, http.StatusBadRequest, apperrors.ErrCodeValidationFailed},
		{"malformed JSON", http.MethodPatch, "/api/customer/" + uid + "/loan-info", `{"amount":`, http.StatusBadRequest, apperrors.ErrCodeInputParsingFailed},
		{"unknown uid", http.MethodGet, "/api/customer/nope", ``, http.StatusNotFound, apperrors.ErrCodeApplicationNotFound},
		{"invalid personal info for unknown uid", http.MethodPost, "/api/customer/personal-info?uid=nope", `{"firstName":"Lena Marie","lastName":"Vogel","dateOfBirth":"1988-03-02"}`, http.StatusNotFound, apperrors.ErrCodeApplicationNotFound},
		{"unknown uid on update", http.MethodPatch, "/api/customer/nope/contact-info", contactBody, http.StatusNotFound, apperrors.ErrCodeApplicationNotFound},
		{"finalize incomplete", http.MethodPatch, "/api/customer/" + uid + "/finalize", ``, http.StatusConflict, apperrors.ErrCodePreconditionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, string(tt.wantCode), decodeErr(t, rec).Error)
		})
	}
}

func TestAPI_Unaffordable(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/customer/personal-info", personalBody)
	uid := decodeApp(t, rec).ID

	do(t, router, http.MethodPatch, "/api/customer/"+uid+"/loan-info", `{"amount":10000,"upfront":0,"terms":10}`)
	do(t, router, http.MethodPatch, "/api/customer/"+uid+"/financial-info",
		`{"monthlySalary":100,"hasAdditionalIncome":false,"hasMortgage":false,"hasOtherCredits":false}`)

	rec = do(t, router, http.MethodPatch, "/api/customer/"+uid+"/finalize", "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeErr(t, rec)
	assert.Equal(t, string(apperrors.ErrCodeLoanUnaffordable), resp.Error)
	assert.Contains(t, resp.Message, "Insufficient income")
	assert.Equal(t, 500.0, resp.Metadata["maxAffordableLoan"])
}

func TestAPI_LoanInfoWholeNumbers(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/customer/personal-info", personalBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	uid := decodeApp(t, rec).ID

	rec = do(t, router, http.MethodPatch, "/api/customer/"+uid+"/loan-info", `{"amount":10000.0,"upfront":0,"terms":12.0}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, &models.LoanInfo{Amount: 10000, Terms: 12}, decodeApp(t, rec).LoanInfo)

	rec = do(t, router, http.MethodPatch, "/api/customer/"+uid+"/loan-info", `{"amount":10000.5,"upfront":0,"terms":12}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeErr(t, rec)
	assert.Equal(t, string(apperrors.ErrCodeValidationFailed), resp.Error)
	require.Len(t, resp.Violations, 1)
	assert.Equal(t, "amount", resp.Violations[0].Field)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor(apperrors.ErrCodeDatabaseWriteFailed))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(apperrors.ErrCodeInternal))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(apperrors.ErrCodeNotificationSendFailed))
}

func TestProbes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.NewNoOpLogger()
	h := NewHandler(engine.New(repository.NewMemory()), log)

	router := NewRouter(h, log, fakeCheck{name: "postgres"})
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/metrics", "").Code)

	router = NewRouter(h, log, fakeCheck{name: "postgres"}, fakeCheck{name: "redis", err: errors.New("dial tcp: refused")})
	rec := do(t, router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "dial tcp: refused")
}
