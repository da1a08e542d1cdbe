package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "loan-intake/internal/common/errors"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error      string                 `json:"error"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Violations []apperrors.Violation  `json:"violations,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// StatusFor maps an error code onto its HTTP status.
func StatusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidationFailed, apperrors.ErrCodeInputParsingFailed:
		return http.StatusBadRequest
	case apperrors.ErrCodeApplicationNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodePreconditionFailed:
		return http.StatusConflict
	case apperrors.ErrCodeLoanUnaffordable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	stdErr := apperrors.Normalize(err)
	status := StatusFor(stdErr.Code)

	fields := map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"path":      c.FullPath(),
		"status":    status,
	}
	if status >= http.StatusInternalServerError {
		fields["error"] = err
		h.logger.Error("request failed", fields)
	} else {
		h.logger.Debug("request rejected", fields)
	}

	resp := ErrorResponse{
		Error:      string(stdErr.Code),
		Message:    stdErr.Message,
		Violations: stdErr.Violations,
		Metadata:   stdErr.Metadata,
	}
	// internal details stay in the logs
	if status < http.StatusInternalServerError {
		resp.Details = stdErr.Details
	}
	c.AbortWithStatusJSON(status, resp)
}
