package repository

import (
	"time"

	"loan-intake/internal/models"
)

var created = time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)

func sampleApplication(id string) *models.Application {
	return &models.Application{
		ID: id,
		PersonalInfo: &models.PersonalInfo{
			FirstName:   "Lena",
			LastName:    "Schäfer",
			DateOfBirth: "1988-11-04",
		},
		LoanInfo: &models.LoanInfo{Amount: 25000, Upfront: 2000, Terms: 24},
		FinancialInfo: &models.FinancialInfo{
			MonthlySalary:    3200,
			AdditionalIncome: models.NotDisclosed(),
			Mortgage:         models.Disclosed(650),
			OtherCredits:     models.NotDisclosed(),
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
}
