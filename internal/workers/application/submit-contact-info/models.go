package submitcontactinfo

import (
	"encoding/json"

	"loan-intake/internal/models"
)

type Input struct {
	ApplicationID string          `json:"applicationId"`
	ContactInfo   json.RawMessage `json:"contactInfo"`
}

type Output struct {
	ApplicationID string              `json:"applicationId"`
	Application   *models.Application `json:"application"`
}
