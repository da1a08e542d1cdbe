package submitfinancialinfo

import (
	"encoding/json"

	"loan-intake/internal/models"
)

type Input struct {
	ApplicationID string          `json:"applicationId"`
	FinancialInfo json.RawMessage `json:"financialInfo"`
}

type Output struct {
	ApplicationID string              `json:"applicationId"`
	Application   *models.Application `json:"application"`
}
