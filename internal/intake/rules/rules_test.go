package rules

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "loan-intake/internal/common/errors"
	"loan-intake/internal/models"
)

var fixedNow = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func newRules() *Rules {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func ptr(f float64) *float64 { return &f }

func date(s string) *time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

// violationFields returns the failing fields, or nil when err is nil.
func violationFields(t *testing.T, err error) []string {
	t.Helper()
	if err == nil {
		return nil
	}
	stdErr, ok := apperrors.AsStandard(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	require.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)
	fields := make([]string, 0, len(stdErr.Violations))
	for _, v := range stdErr.Violations {
		fields = append(fields, v.Field)
	}
	return fields
}

func TestAge(t *testing.T) {
	tests := []struct {
		birth string
		want  int
	}{
		{"2000-06-15", 26},
		{"2000-06-16", 25},
		{"2000-05-31", 26},
		{"2000-07-01", 25},
		{"1947-01-01", 79},
	}
	for _, tt := range tests {
		t.Run(tt.birth, func(t *testing.T) {
			assert.Equal(t, tt.want, Age(*date(tt.birth), fixedNow))
		})
	}
}

func TestPersonal(t *testing.T) {
	r := newRules()

	tests := []struct {
		name   string
		in     PersonalInput
		fields []string
	}{
		{"valid", PersonalInput{"Jürgen", "Groß", "1985-03-02"}, nil},
		{"hyphenated and spaced last name", PersonalInput{"Anna", "von Müller-Schmidt", "1985-03-02"}, nil},
		{"rfc3339 date", PersonalInput{"Anna", "Weber", "1985-03-02T00:00:00.000Z"}, nil},
		{"first name with space", PersonalInput{"Anna Lena", "Weber", "1985-03-02"}, []string{"firstName"}},
		{"first name with digit", PersonalInput{"Anna1", "Weber", "1985-03-02"}, []string{"firstName"}},
		{"last name trailing hyphen", PersonalInput{"Anna", "Weber-", "1985-03-02"}, []string{"lastName"}},
		{"empty names", PersonalInput{"", "", "1985-03-02"}, []string{"firstName", "lastName"}},
		{"not a date", PersonalInput{"Anna", "Weber", "02.03.1985"}, []string{"dateOfBirth"}},
		{"impossible date", PersonalInput{"Anna", "Weber", "1985-02-30"}, []string{"dateOfBirth"}},
		{"exactly 79", PersonalInput{"Anna", "Weber", "1946-06-16"}, nil},
		{"turned 80 today", PersonalInput{"Anna", "Weber", "1946-06-15"}, []string{"dateOfBirth"}},
		{"future", PersonalInput{"Anna", "Weber", "2030-01-01"}, []string{"dateOfBirth"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := r.Personal(tt.in)
			assert.ElementsMatch(t, tt.fields, violationFields(t, err))
			if tt.fields == nil {
				assert.Equal(t, tt.in.FirstName, info.FirstName)
				assert.Equal(t, tt.in.LastName, info.LastName)
				assert.Len(t, info.DateOfBirth, len(models.DateLayout))
			}
		})
	}
}

func TestPersonal_ReasonText(t *testing.T) {
	_, err := newRules().Personal(PersonalInput{"Anna", "Weber", "1900-01-01"})
	stdErr, ok := apperrors.AsStandard(err)
	require.True(t, ok)
	require.Len(t, stdErr.Violations, 1)
	assert.Equal(t, "Age must be less than 80 years old", stdErr.Violations[0].Reason)
}

func TestContact(t *testing.T) {
	r := newRules()

	tests := []struct {
		name   string
		in     ContactInput
		fields []string
	}{
		{"valid", ContactInput{"anna@example.de", "+4915112345678"}, nil},
		{"minimal e164", ContactInput{"anna@example.de", "+12"}, nil},
		{"bad email", ContactInput{"anna.example.de", "+4915112345678"}, []string{"email"}},
		{"missing plus", ContactInput{"anna@example.de", "4915112345678"}, []string{"phone"}},
		{"leading zero", ContactInput{"anna@example.de", "+0151123"}, []string{"phone"}},
		{"too long", ContactInput{"anna@example.de", "+1234567890123456"}, []string{"phone"}},
		{"both empty", ContactInput{}, []string{"email", "phone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := r.Contact(tt.in)
			assert.ElementsMatch(t, tt.fields, violationFields(t, err))
			if tt.fields == nil {
				assert.Equal(t, models.ContactInfo{Email: tt.in.Email, Phone: tt.in.Phone}, info)
			}
		})
	}
}

func TestLoan_Bounds(t *testing.T) {
	r := newRules()
	birth := date("1990-01-01")

	tests := []struct {
		name   string
		in     LoanInput
		fields []string
	}{
		{"lower bound", LoanInput{Amount: 10000, Terms: 12}, nil},
		{"upper bound", LoanInput{Amount: 70000, Terms: 30}, nil},
		{"below minimum", LoanInput{Amount: 9999, Terms: 12}, []string{"amount"}},
		{"above maximum", LoanInput{Amount: 70001, Terms: 12}, []string{"amount"}},
		{"zero amount", LoanInput{Amount: 0, Terms: 12}, []string{"amount"}},
		{"upfront equal to amount", LoanInput{Amount: 20000, Upfront: 20000, Terms: 12}, []string{"upfront"}},
		{"upfront one less", LoanInput{Amount: 20000, Upfront: 19999, Terms: 12}, nil},
		{"negative upfront", LoanInput{Amount: 20000, Upfront: -1, Terms: 12}, []string{"upfront"}},
		{"terms below", LoanInput{Amount: 20000, Terms: 9}, []string{"terms"}},
		{"terms above", LoanInput{Amount: 20000, Terms: 31}, []string{"terms"}},
		{"everything wrong", LoanInput{Amount: 70001, Upfront: 80000, Terms: 31}, []string{"amount", "upfront", "terms"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := r.Loan(tt.in, birth)
			assert.ElementsMatch(t, tt.fields, violationFields(t, err))
			if tt.fields == nil {
				assert.Equal(t, models.LoanInfo{Amount: tt.in.Amount, Upfront: tt.in.Upfront, Terms: tt.in.Terms}, info)
			}
		})
	}
}

func TestLoan_AgeAndTerms(t *testing.T) {
	r := newRules()
	in := LoanInput{Amount: 20000, Terms: 30}

	// 77 + 2.5 = 79.5
	_, err := r.Loan(in, date("1949-01-01"))
	assert.NoError(t, err)

	// 78 + 2.5 = 80.5
	_, err = r.Loan(in, date("1948-01-01"))
	assert.Equal(t, []string{"terms"}, violationFields(t, err))

	// 78 + 1 = 79
	_, err = r.Loan(LoanInput{Amount: 20000, Terms: 12}, date("1948-01-01"))
	assert.NoError(t, err)
}

func TestLoan_WithoutBirthDate(t *testing.T) {
	r := newRules()

	loan, err := r.Loan(LoanInput{Amount: 20000, Terms: 30}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.LoanInfo{Amount: 20000, Terms: 30}, loan)

	// bounds still apply
	_, err = r.Loan(LoanInput{Amount: 20000, Terms: 31}, nil)
	assert.Equal(t, []string{"terms"}, violationFields(t, err))
}

func TestLoanInput_WholeNumbers(t *testing.T) {
	var in LoanInput
	require.NoError(t, json.Unmarshal([]byte(`{"amount":10000.0,"upfront":500.5,"terms":12.0}`), &in))
	assert.Equal(t, LoanInput{Amount: 10000, Upfront: 500.5, Terms: 12}, in)

	require.NoError(t, json.Unmarshal([]byte(`{"amount":15000,"upfront":0,"terms":24}`), &in))
	assert.Equal(t, LoanInput{Amount: 15000, Terms: 24}, in)

	err := json.Unmarshal([]byte(`{"amount":10000.5,"upfront":0,"terms":12.25}`), &in)
	assert.ElementsMatch(t, []string{"amount", "terms"}, violationFields(t, err))

	err = json.Unmarshal([]byte(`{"amount":"lots"}`), &in)
	assert.Error(t, err)
}

func TestFinancial(t *testing.T) {
	r := newRules()

	tests := []struct {
		name   string
		in     FinancialInput
		fields []string
	}{
		{"salary only", FinancialInput{MonthlySalary: 2000}, nil},
		{"zero salary", FinancialInput{MonthlySalary: 0}, []string{"monthlySalary"}},
		{"negative salary", FinancialInput{MonthlySalary: -5}, []string{"monthlySalary"}},
		{"flagged without amount", FinancialInput{MonthlySalary: 2000, HasMortgage: true}, []string{"mortgage"}},
		{"flagged zero amount", FinancialInput{MonthlySalary: 2000, HasMortgage: true, Mortgage: ptr(0)}, nil},
		{"flagged negative", FinancialInput{MonthlySalary: 2000, HasOtherCredits: true, OtherCredits: ptr(-1)}, []string{"otherCredits"}},
		{"unflagged negative ignored", FinancialInput{MonthlySalary: 2000, AdditionalIncome: ptr(-50)}, nil},
		{
			"all disclosed",
			FinancialInput{
				MonthlySalary:       3000,
				HasAdditionalIncome: true, AdditionalIncome: ptr(200),
				HasMortgage: true, Mortgage: ptr(500),
				HasOtherCredits: true, OtherCredits: ptr(1200),
			},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Financial(tt.in)
			assert.ElementsMatch(t, tt.fields, violationFields(t, err))
		})
	}
}

func TestFinancial_BuildsDisclosures(t *testing.T) {
	info, err := newRules().Financial(FinancialInput{
		MonthlySalary:    3000,
		AdditionalIncome: ptr(999), // not flagged
		HasOtherCredits:  true,
		OtherCredits:     ptr(1200),
	})
	require.NoError(t, err)

	assert.Equal(t, models.NotDisclosed(), info.AdditionalIncome)
	assert.Equal(t, models.NotDisclosed(), info.Mortgage)
	assert.Equal(t, models.Disclosed(1200), info.OtherCredits)
}
