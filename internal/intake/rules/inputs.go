package rules

import (
	"encoding/json"
	"math"

	apperrors "loan-intake/internal/common/errors"
)

// PersonalInput is a raw personal-information submission.
type PersonalInput struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
}

type ContactInput struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type LoanInput struct {
	Amount  int     `json:"amount"`
	Upfront float64 `json:"upfront"`
	Terms   int     `json:"terms"`
}

// UnmarshalJSON accepts whole numbers written with a fraction part (10000.0) for
// amount and terms. Fractional values are reported as field violations.
func (in *LoanInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount  json.Number `json:"amount"`
		Upfront float64     `json:"upfront"`
		Terms   json.Number `json:"terms"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var violations []apperrors.Violation
	amount, ok := wholeNumber(raw.Amount)
	if !ok {
		violations = append(violations, apperrors.Violation{Field: "amount", Reason: msgAmountWhole})
	}
	terms, ok := wholeNumber(raw.Terms)
	if !ok {
		violations = append(violations, apperrors.Violation{Field: "terms", Reason: msgTermsWhole})
	}
	if len(violations) > 0 {
		return apperrors.NewValidationFailedError(violations)
	}

	*in = LoanInput{Amount: amount, Upfront: raw.Upfront, Terms: terms}
	return nil
}

// wholeNumber converts n to an int when it has no fractional part. An absent value is zero.
func wholeNumber(n json.Number) (int, bool) {
	if n == "" {
		return 0, true
	}
	if i, err := n.Int64(); err == nil {
		return int(i), true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// FinancialInput mirrors the wire form: each disclosure is a flag plus an optional amount.
type FinancialInput struct {
	MonthlySalary       float64  `json:"monthlySalary"`
	HasAdditionalIncome bool     `json:"hasAdditionalIncome"`
	AdditionalIncome    *float64 `json:"additionalIncome,omitempty"`
	HasMortgage         bool     `json:"hasMortgage"`
	Mortgage            *float64 `json:"mortgage,omitempty"`
	HasOtherCredits     bool     `json:"hasOtherCredits"`
	OtherCredits        *float64 `json:"otherCredits,omitempty"`
}
