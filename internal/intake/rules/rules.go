// Package rules holds the stateless acceptance checks for each intake category.
package rules

import (
	"errors"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	apperrors "loan-intake/internal/common/errors"
	"loan-intake/internal/models"
)

const (
	MinLoanAmount = 10000
	MaxLoanAmount = 70000
	MinTerms      = 10
	MaxTerms      = 30
	// MaxAge is the oldest accepted applicant, and the exclusive bound for age plus loan years.
	MaxAge = 79
)

var (
	firstNamePattern = regexp.MustCompile(`^[A-Za-zÄÖÜäöüß]+$`)
	lastNamePattern  = regexp.MustCompile(`^[A-Za-zÄÖÜäöüß]+(?:[ \-][A-Za-zÄÖÜäöüß]+)*$`)
	e164Pattern      = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
)

const (
	msgFirstName        = "First name must contain only Latin/German letters and be a single name"
	msgLastName         = "Last name must contain only Latin/German letters, may include spaces or hyphens"
	msgDateOfBirth      = "dateOfBirth must be an ISO date string"
	msgBirthInFuture    = "Date of birth cannot be in the future"
	msgAge              = "Age must be less than 80 years old"
	msgEmail            = "Email must be a valid email address"
	msgPhone            = "Phone must be in E.164 format (e.g. +1234567890)"
	msgAmountMin        = "Loan amount must be at least 10,000"
	msgAmountMax        = "Loan amount must be at most 70,000"
	msgAmountWhole      = "Loan amount must be a whole number"
	msgUpfrontNegative  = "Upfront payment cannot be negative"
	msgUpfront          = "Upfront payment must be less than loan amount"
	msgTermsMin         = "Terms must be at least 10 months"
	msgTermsMax         = "Terms must be at most 30 months"
	msgTermsWhole       = "Terms must be a whole number of months"
	msgTermsAge         = "Terms divided by 12 plus your age must be less than 80"
	msgSalary           = "Monthly salary must be provided and greater than 0"
	msgAdditionalIncome = "Additional income cannot be negative"
	msgMortgage         = "Mortgage amount cannot be negative"
	msgOtherCredits     = "Other credits amount cannot be negative"
	msgAmountRequired   = "Amount is required when the flag is set"
)

// Rules validates category submissions. The zero value is not usable; call New.
type Rules struct {
	now func() time.Time
}

type Option func(*Rules)

// WithClock overrides the reference time used for age calculations.
func WithClock(now func() time.Time) Option {
	return func(r *Rules) { r.now = now }
}

func New(opts ...Option) *Rules {
	r := &Rules{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Age is the number of full years between birthDate and the rules clock.
func (r *Rules) Age(birthDate time.Time) int {
	return Age(birthDate, r.now())
}

// Age is the full-year difference, less one when now's month/day precedes the birthday.
func Age(birthDate, now time.Time) int {
	age := now.Year() - birthDate.Year()
	if now.Month() < birthDate.Month() ||
		(now.Month() == birthDate.Month() && now.Day() < birthDate.Day()) {
		age--
	}
	return age
}

// ParseBirthDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func ParseBirthDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func (r *Rules) Personal(in PersonalInput) (models.PersonalInfo, error) {
	var birth time.Time
	err := validation.ValidateStruct(&in,
		validation.Field(&in.FirstName,
			validation.Required.Error(msgFirstName),
			validation.Match(firstNamePattern).Error(msgFirstName),
		),
		validation.Field(&in.LastName,
			validation.Required.Error(msgLastName),
			validation.Match(lastNamePattern).Error(msgLastName),
		),
		validation.Field(&in.DateOfBirth,
			validation.Required.Error(msgDateOfBirth),
			validation.By(func(interface{}) error {
				t, err := ParseBirthDate(in.DateOfBirth)
				if err != nil {
					return errors.New(msgDateOfBirth)
				}
				if t.After(r.now()) {
					return errors.New(msgBirthInFuture)
				}
				if r.Age(t) > MaxAge {
					return errors.New(msgAge)
				}
				birth = t
				return nil
			}),
		),
	)
	if err != nil {
		return models.PersonalInfo{}, toStandard(err)
	}

	return models.PersonalInfo{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		DateOfBirth: birth.Format(models.DateLayout),
	}, nil
}

func (r *Rules) Contact(in ContactInput) (models.ContactInfo, error) {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Email,
			validation.Required.Error(msgEmail),
			is.EmailFormat.Error(msgEmail),
		),
		validation.Field(&in.Phone,
			validation.Required.Error(msgPhone),
			validation.Match(e164Pattern).Error(msgPhone),
		),
	)
	if err != nil {
		return models.ContactInfo{}, toStandard(err)
	}
	return models.ContactInfo{Email: in.Email, Phone: in.Phone}, nil
}

// Loan validates the loan terms. birthDate is the date of birth already on record; the
// terms/age cross-check is skipped when it is nil.
func (r *Rules) Loan(in LoanInput, birthDate *time.Time) (models.LoanInfo, error) {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Amount,
			validation.Required.Error(msgAmountMin),
			validation.Min(MinLoanAmount).Error(msgAmountMin),
			validation.Max(MaxLoanAmount).Error(msgAmountMax),
		),
		validation.Field(&in.Upfront,
			validation.Min(0.0).Error(msgUpfrontNegative),
			validation.Max(float64(in.Amount)).Exclusive().Error(msgUpfront),
		),
		validation.Field(&in.Terms,
			validation.Required.Error(msgTermsMin),
			validation.Min(MinTerms).Error(msgTermsMin),
			validation.Max(MaxTerms).Error(msgTermsMax),
			validation.By(func(interface{}) error {
				if birthDate == nil {
					return nil
				}
				if float64(in.Terms)/12+float64(r.Age(*birthDate)) >= MaxAge+1 {
					return errors.New(msgTermsAge)
				}
				return nil
			}),
		),
	)
	if err != nil {
		return models.LoanInfo{}, toStandard(err)
	}
	return models.LoanInfo{Amount: in.Amount, Upfront: in.Upfront, Terms: in.Terms}, nil
}

func (r *Rules) Financial(in FinancialInput) (models.FinancialInfo, error) {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.MonthlySalary,
			validation.Required.Error(msgSalary),
			validation.Min(0.0).Exclusive().Error(msgSalary),
		),
		validation.Field(&in.AdditionalIncome, disclosureRules(in.HasAdditionalIncome, msgAdditionalIncome)...),
		validation.Field(&in.Mortgage, disclosureRules(in.HasMortgage, msgMortgage)...),
		validation.Field(&in.OtherCredits, disclosureRules(in.HasOtherCredits, msgOtherCredits)...),
	)
	if err != nil {
		return models.FinancialInfo{}, toStandard(err)
	}

	return models.FinancialInfo{
		MonthlySalary:    in.MonthlySalary,
		AdditionalIncome: disclosure(in.HasAdditionalIncome, in.AdditionalIncome),
		Mortgage:         disclosure(in.HasMortgage, in.Mortgage),
		OtherCredits:     disclosure(in.HasOtherCredits, in.OtherCredits),
	}, nil
}

// disclosureRules only apply when the flag is set; an unflagged amount is ignored.
func disclosureRules(flag bool, negativeMsg string) []validation.Rule {
	return []validation.Rule{
		validation.When(flag,
			validation.NotNil.Error(msgAmountRequired),
			validation.Min(0.0).Error(negativeMsg),
		),
	}
}

func disclosure(flag bool, amount *float64) models.Disclosure {
	if !flag || amount == nil {
		return models.NotDisclosed()
	}
	return models.Disclosed(*amount)
}

func toStandard(err error) error {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return apperrors.NewInputParsingFailedError(err)
	}

	violations := make([]apperrors.Violation, 0, len(errs))
	for field, fieldErr := range errs {
		violations = append(violations, apperrors.Violation{Field: field, Reason: fieldErr.Error()})
	}
	return apperrors.NewValidationFailedError(violations)
}
