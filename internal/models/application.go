// internal/models/application.go
package models

import "time"

// Application is one applicant's intake record. Category fields are nil until the
// category has been accepted, and are always fully populated once set.
type Application struct {
	ID            string         `json:"uid"`
	PersonalInfo  *PersonalInfo  `json:"personalInfo,omitempty"`
	ContactInfo   *ContactInfo   `json:"contactInfo,omitempty"`
	LoanInfo      *LoanInfo      `json:"loanInfo,omitempty"`
	FinancialInfo *FinancialInfo `json:"financialInfo,omitempty"`
	Finalized     bool           `json:"isFinalized"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

type PersonalInfo struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"` // YYYY-MM-DD
}

// BirthDate parses DateOfBirth. ok is false when the value is not a calendar date.
func (p *PersonalInfo) BirthDate() (t time.Time, ok bool) {
	if p == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, p.DateOfBirth)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DateLayout is the normalized storage form of a date of birth.
const DateLayout = "2006-01-02"

type ContactInfo struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type LoanInfo struct {
	Amount  int     `json:"amount"`
	Upfront float64 `json:"upfront"`
	Terms   int     `json:"terms"`
}

// FinancialInfo serializes to the flat has<X>/<x> pair form; see disclosure.go.
type FinancialInfo struct {
	MonthlySalary    float64
	AdditionalIncome Disclosure
	Mortgage         Disclosure
	OtherCredits     Disclosure
}

// Clone returns a deep copy so stored records are never aliased by callers.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	out := *a
	if a.PersonalInfo != nil {
		p := *a.PersonalInfo
		out.PersonalInfo = &p
	}
	if a.ContactInfo != nil {
		c := *a.ContactInfo
		out.ContactInfo = &c
	}
	if a.LoanInfo != nil {
		l := *a.LoanInfo
		out.LoanInfo = &l
	}
	if a.FinancialInfo != nil {
		f := *a.FinancialInfo
		out.FinancialInfo = &f
	}
	return &out
}

// MissingForFinalize lists the categories that must be present before finalization.
func (a *Application) MissingForFinalize() []string {
	var missing []string
	if a.LoanInfo == nil {
		missing = append(missing, "loanInfo")
	}
	if a.FinancialInfo == nil {
		missing = append(missing, "financialInfo")
	}
	return missing
}
