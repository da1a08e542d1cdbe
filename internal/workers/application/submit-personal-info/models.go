package submitpersonalinfo

import (
	"encoding/json"

	"loan-intake/internal/models"
)

// Input carries the raw personalInfo object. An empty ApplicationID starts a new application.
type Input struct {
	ApplicationID string          `json:"applicationId,omitempty"`
	PersonalInfo  json.RawMessage `json:"personalInfo"`
}

type Output struct {
	ApplicationID string              `json:"applicationId"`
	Application   *models.Application `json:"application"`
}
