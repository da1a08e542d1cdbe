// Package errors provides the standardized failure taxonomy shared by the intake engine,
// the Zeebe workers and the REST API.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Domain failures. All of them are terminal and user-visible.
const (
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeApplicationNotFound ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodePreconditionFailed  ErrorCode = "PRECONDITION_FAILED"
	ErrCodeLoanUnaffordable    ErrorCode = "LOAN_UNAFFORDABLE"
)

// Infrastructure failures.
const (
	ErrCodeInputParsingFailed     ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeDatabaseQueryFailed    ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeDatabaseWriteFailed    ErrorCode = "DATABASE_WRITE_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// Violation is a single field-level constraint failure.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// StandardError represents a structured application error.
type StandardError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Retryable  bool                   `json:"retryable"`
	Violations []Violation            `json:"violations,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches another StandardError by code, so callers can compare against a bare
// &StandardError{Code: ...} target.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// AsStandard unwraps err to a *StandardError.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewValidationFailedError reports one or more field-level violations. Violations are
// sorted by field so the output is stable.
func NewValidationFailedError(violations []Violation) *StandardError {
	sorted := make([]Violation, len(violations))
	copy(sorted, violations)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Field < sorted[j].Field })

	fields := make([]string, 0, len(sorted))
	for _, v := range sorted {
		fields = append(fields, v.Field)
	}

	return &StandardError{
		Code:       ErrCodeValidationFailed,
		Message:    "Submitted data failed validation",
		Details:    fmt.Sprintf("invalid fields: %s", strings.Join(fields, ", ")),
		Retryable:  false,
		Violations: sorted,
		Timestamp:  time.Now().UTC(),
	}
}

// NewApplicationNotFoundError reports an unknown application identifier.
func NewApplicationNotFoundError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationNotFound,
		Message:   "Application not found",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Metadata:  map[string]interface{}{"applicationId": applicationID},
		Timestamp: time.Now().UTC(),
	}
}

// NewPreconditionFailedError reports an operation invoked on a record in the wrong state.
func NewPreconditionFailedError(message string, missing ...string) *StandardError {
	err := &StandardError{
		Code:      ErrCodePreconditionFailed,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
	if len(missing) > 0 {
		err.Details = fmt.Sprintf("missing: %s", strings.Join(missing, ", "))
		err.Metadata = map[string]interface{}{"missing": missing}
	}
	return err
}

// NewLoanUnaffordableError carries the computed figures so the caller can explain the rejection.
func NewLoanUnaffordableError(netMonthlyIncome, maxAffordableLoan float64, requestedAmount int) *StandardError {
	return &StandardError{
		Code: ErrCodeLoanUnaffordable,
		Message: fmt.Sprintf(
			"Insufficient income. Your net monthly income (€%.2f) is too low for this loan amount. "+
				"Please reduce the loan amount or restart with a new person.", netMonthlyIncome),
		Details:   fmt.Sprintf("maxAffordableLoan: %.2f, requestedAmount: %d", maxAffordableLoan, requestedAmount),
		Retryable: false,
		Metadata: map[string]interface{}{
			"netMonthlyIncome":  netMonthlyIncome,
			"maxAffordableLoan": maxAffordableLoan,
			"requestedAmount":   requestedAmount,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewInputParsingFailedError reports job variables or request bodies that could not be decoded.
func NewInputParsingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputParsingFailed,
		Message:   "Failed to parse input",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewDatabaseQueryFailedError creates a retryable read error.
func NewDatabaseQueryFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseQueryFailed,
		Message:   "Database query failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewDatabaseWriteFailedError creates a retryable write error.
func NewDatabaseWriteFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseWriteFailed,
		Message:   "Database write failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNotificationSendFailedError creates a retryable delivery error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Retry & BPMN Mapping
// ==========================

// GetRetryCount returns how many times a worker job may be retried for the code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseQueryFailed,
		ErrCodeDatabaseWriteFailed,
		ErrCodeNotificationSendFailed:
		return 3
	default:
		return 0 // business errors: no retry
	}
}

// ConvertToBPMNError maps a StandardError onto the error the workflow engine receives.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if len(stdErr.Violations) > 0 {
		vars["violations"] = stdErr.Violations
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// GetErrorCategory groups codes for log aggregation.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeValidationFailed, ErrCodeInputParsingFailed:
		return "VALIDATION"
	case ErrCodeApplicationNotFound, ErrCodePreconditionFailed, ErrCodeLoanUnaffordable:
		return "BUSINESS_RULE"
	case ErrCodeDatabaseQueryFailed, ErrCodeDatabaseWriteFailed:
		return "DATABASE"
	case ErrCodeNotificationSendFailed:
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
