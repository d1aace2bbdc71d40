package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeCommission(t *testing.T) {
	rate := decimal.NewFromInt(1)

	cases := []struct {
		purchase string
		want     string
	}{
		{"12500.00", "125.00"},
		{"8500.00", "85.00"},
		{"1000", "10.00"},
		{"3550.00", "35.50"},
		{"100.50", "1.00"}, // 1.005 rounds to even
		{"101.50", "1.02"}, // 1.015 rounds to even
		{"100.70", "1.01"},
		{"0.01", "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.purchase, func(t *testing.T) {
			got := ComputeCommission(decimal.RequireFromString(tc.purchase), rate)
			assert.Equal(t, tc.want, got.StringFixed(MoneyPlaces))
		})
	}
}

func TestComputeCommissionCustomRate(t *testing.T) {
	got := ComputeCommission(decimal.RequireFromString("200.00"), decimal.RequireFromString("2.5"))
	assert.Equal(t, "5.00", got.StringFixed(MoneyPlaces))
}

func TestSumCommissions(t *testing.T) {
	entries := []CommissionEntry{
		{CommissionValue: decimal.RequireFromString("125.00")},
		{CommissionValue: decimal.RequireFromString("85.00")},
		{CommissionValue: decimal.RequireFromString("35.50")},
	}
	assert.Equal(t, "245.50", SumCommissions(entries).StringFixed(MoneyPlaces))
	assert.True(t, SumCommissions(nil).IsZero())
}

func TestIsMoney(t *testing.T) {
	assert.True(t, IsMoney(decimal.RequireFromString("10.25")))
	assert.True(t, IsMoney(decimal.RequireFromString("10.250")))
	assert.False(t, IsMoney(decimal.RequireFromString("10.255")))
}
