// Package money formats and carries monetary amounts without floating point.
package money

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

const currencySymbol = "$"

var hundred = decimal.NewFromInt(100)

// Amount is a decimal that travels over JSON as a bare number.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// MustParse builds an Amount from a literal and panics on malformed input.
func MustParse(value string) Amount {
	return Amount{Decimal: decimal.RequireFromString(value)}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	return a.Decimal.UnmarshalJSON(data)
}

// Equal compares two amounts by value.
func (a Amount) Equal(other Amount) bool {
	return a.Decimal.Equal(other.Decimal)
}

// Format renders a dollar amount: whole values drop the cents ("$40"),
// fractional values keep two places ("$40.50"), thousands are grouped.
func Format(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	rounded := d.Round(2)
	whole := rounded.Truncate(0)
	text := groupThousands(whole.String())
	if !rounded.Equal(whole) {
		cents := rounded.StringFixed(2)
		text += cents[strings.IndexByte(cents, '.'):]
	}
	return sign + currencySymbol + text
}

// Discounted applies a whole-number percentage discount and rounds to cents.
func Discounted(price decimal.Decimal, percent int) decimal.Decimal {
	if percent <= 0 {
		return price.Round(2)
	}
	if percent >= 100 {
		return decimal.Zero
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(percent))).Div(hundred)
	return price.Mul(factor).Round(2)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
