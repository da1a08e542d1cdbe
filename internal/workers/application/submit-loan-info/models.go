package submitloaninfo

import (
	"encoding/json"

	"loan-intake/internal/models"
)

type Input struct {
	ApplicationID string          `json:"applicationId"`
	LoanInfo      json.RawMessage `json:"loanInfo"`
}

type Output struct {
	ApplicationID string              `json:"applicationId"`
	Application   *models.Application `json:"application"`
}
