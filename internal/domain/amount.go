package domain

import "github.com/shopspring/decimal"

// Amount units used by the savings backend
const (
	UnitWholeCurrency = "WHOLE_CURRENCY"
	UnitWholeCent     = "WHOLE_CENT"
	UnitHundredthCent = "HUNDREDTH_CENT"
)

type Amount struct {
	Amount   int64  `json:"amount"`
	Unit     string `json:"unit"`
	Currency string `json:"currency"`
}

// Major returns the amount in whole currency units, e.g. 2000 WHOLE_CENT -> 20.
func (a Amount) Major() decimal.Decimal {
	d := decimal.NewFromInt(a.Amount)
	switch a.Unit {
	case UnitWholeCent:
		return d.Shift(-2)
	case UnitHundredthCent:
		return d.Shift(-4)
	default:
		return d
	}
}

// Display formats the amount for result screens: "ZAR 20.00".
func (a Amount) Display() string {
	return a.Currency + " " + a.Major().StringFixed(2)
}

// Balance is the account balance handed back after a refresh.
type Balance struct {
	CurrentBalance Amount `json:"currentBalance"`
}
