package models

import (
	"encoding/json"
	"fmt"
)

// Disclosure is an optional financial figure: either Disclosed with an amount or
// NotDisclosed, which always reads as zero.
type Disclosure struct {
	disclosed bool
	amount    float64
}

func Disclosed(amount float64) Disclosure {
	return Disclosure{disclosed: true, amount: amount}
}

func NotDisclosed() Disclosure {
	return Disclosure{}
}

func (d Disclosure) IsDisclosed() bool { return d.disclosed }

// Amount is zero for NotDisclosed.
func (d Disclosure) Amount() float64 {
	if !d.disclosed {
		return 0
	}
	return d.amount
}

func (d Disclosure) String() string {
	if !d.disclosed {
		return "NotDisclosed"
	}
	return fmt.Sprintf("Disclosed(%g)", d.amount)
}

type financialInfoJSON struct {
	MonthlySalary       float64  `json:"monthlySalary"`
	HasAdditionalIncome bool     `json:"hasAdditionalIncome"`
	AdditionalIncome    *float64 `json:"additionalIncome,omitempty"`
	HasMortgage         bool     `json:"hasMortgage"`
	Mortgage            *float64 `json:"mortgage,omitempty"`
	HasOtherCredits     bool     `json:"hasOtherCredits"`
	OtherCredits        *float64 `json:"otherCredits,omitempty"`
}

func flatten(d Disclosure) (bool, *float64) {
	if !d.disclosed {
		return false, nil
	}
	amount := d.amount
	return true, &amount
}

func lift(field string, flag bool, amount *float64) (Disclosure, error) {
	if !flag {
		return NotDisclosed(), nil
	}
	if amount == nil {
		return Disclosure{}, fmt.Errorf("%s is flagged but has no amount", field)
	}
	return Disclosed(*amount), nil
}

func (f FinancialInfo) MarshalJSON() ([]byte, error) {
	out := financialInfoJSON{MonthlySalary: f.MonthlySalary}
	out.HasAdditionalIncome, out.AdditionalIncome = flatten(f.AdditionalIncome)
	out.HasMortgage, out.Mortgage = flatten(f.Mortgage)
	out.HasOtherCredits, out.OtherCredits = flatten(f.OtherCredits)
	return json.Marshal(out)
}

func (f *FinancialInfo) UnmarshalJSON(data []byte) error {
	var in financialInfoJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	additional, err := lift("additionalIncome", in.HasAdditionalIncome, in.AdditionalIncome)
	if err != nil {
		return err
	}
	mortgage, err := lift("mortgage", in.HasMortgage, in.Mortgage)
	if err != nil {
		return err
	}
	otherCredits, err := lift("otherCredits", in.HasOtherCredits, in.OtherCredits)
	if err != nil {
		return err
	}

	*f = FinancialInfo{
		MonthlySalary:    in.MonthlySalary,
		AdditionalIncome: additional,
		Mortgage:         mortgage,
		OtherCredits:     otherCredits,
	}
	return nil
}
