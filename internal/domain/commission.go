package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fraction digits kept for currency amounts.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// MaxMoney is the largest amount a ledger column holds (NUMERIC(14,2)).
var MaxMoney = decimal.RequireFromString("999999999999.99")

// CommissionEntry is an immutable ledger record of one attributed purchase.
type CommissionEntry struct {
	ID              string
	ProfessionalID  string
	Date            time.Time
	ClientName      string
	PurchaseValue   decimal.Decimal
	CommissionRate  decimal.Decimal
	CommissionValue decimal.Decimal
	AddedBy         string
	CreatedAt       time.Time
}

// ComputeCommission applies ratePercent to purchase and rounds half-to-even
// to two fraction digits.
func ComputeCommission(purchase, ratePercent decimal.Decimal) decimal.Decimal {
	return purchase.Mul(ratePercent).Div(hundred).RoundBank(MoneyPlaces)
}

// SumCommissions totals the commission values of entries.
func SumCommissions(entries []CommissionEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.CommissionValue)
	}
	return total
}

// IsMoney reports whether v is representable with two fraction digits.
func IsMoney(v decimal.Decimal) bool {
	return v.Equal(v.Round(MoneyPlaces))
}
