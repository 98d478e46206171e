package analysis

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatCurrency renders an amount as dollars with thousands separators,
// for example $12,345.67 or -$1,234.00.
func FormatCurrency(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.IsNegative() && fixed != "0.00" {
		b.WriteString("-")
	}
	b.WriteString("$")
	b.WriteString(groupThousands(whole))
	b.WriteString(".")
	b.WriteString(cents)
	return b.String()
}

// FormatPercent renders a percentage with two decimals.
func FormatPercent(value decimal.Decimal) string {
	return value.StringFixed(2)
}

func groupThousands(whole string) string {
	n, err := decimal.NewFromString(whole)
	if err != nil {
		return whole
	}
	return humanize.BigComma(n.BigInt())
}
