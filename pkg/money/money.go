// Package money converts servicing-system currency amounts to stored minor units.
package money

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToMinorUnits floors amount*100. Truncation keeps a stored balance from ever
// exceeding what the servicing system reports.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Floor().IntPart()
}

// FromMinorUnits converts cents back to a currency amount.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Format renders cents for documents and messages, e.g. $1,234.56.
func Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s$%s.%02d", sign, humanize.Comma(cents/100), cents%100)
}
