package engine

import (
	"github.com/shopspring/decimal"

	"loan-intake/internal/models"
)

// affordableShare is the part of net monthly income that may go to principal.
var affordableShare = decimal.NewFromFloat(0.5)

// Assessment is the outcome of the affordability check for one application.
type Assessment struct {
	RequestedAmount     int
	Terms               int
	MonthlyOtherCredits decimal.Decimal
	NetMonthlyIncome    decimal.Decimal
	MaxAffordableLoan   decimal.Decimal
	// Affordable is true only when MaxAffordableLoan strictly exceeds RequestedAmount.
	Affordable bool
}

// Assess computes net monthly income and the maximum affordable loan. Other credits are
// a lump sum amortized over the loan term.
func Assess(loan models.LoanInfo, financial models.FinancialInfo) Assessment {
	terms := decimal.NewFromInt(int64(loan.Terms))

	monthlyOtherCredits := decimal.Zero
	if loan.Terms > 0 {
		monthlyOtherCredits = decimal.NewFromFloat(financial.OtherCredits.Amount()).Div(terms)
	}

	net := decimal.NewFromFloat(financial.MonthlySalary).
		Add(decimal.NewFromFloat(financial.AdditionalIncome.Amount())).
		Sub(decimal.NewFromFloat(financial.Mortgage.Amount())).
		Sub(monthlyOtherCredits)

	maxLoan := net.Mul(terms).Mul(affordableShare)

	return Assessment{
		RequestedAmount:     loan.Amount,
		Terms:               loan.Terms,
		MonthlyOtherCredits: monthlyOtherCredits,
		NetMonthlyIncome:    net,
		MaxAffordableLoan:   maxLoan,
		Affordable:          maxLoan.GreaterThan(decimal.NewFromInt(int64(loan.Amount))),
	}
}
