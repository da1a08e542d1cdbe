package finalizeapplication

import "loan-intake/internal/models"

type Input struct {
	ApplicationID string `json:"applicationId"`
}

// Output is only produced for an accepted application. A rejected one fails the job with
// LOAN_UNAFFORDABLE and carries the figures in the error variables.
type Output struct {
	ApplicationID     string              `json:"applicationId"`
	Finalized         bool                `json:"finalized"`
	NetMonthlyIncome  float64             `json:"netMonthlyIncome"`
	MaxAffordableLoan float64             `json:"maxAffordableLoan"`
	Application       *models.Application `json:"application"`
}
