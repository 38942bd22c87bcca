package utils

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Armin-kho/price-tracker-bot/internal/currency"
)

var persianDigits = map[rune]rune{
	'0': '۰',
	'1': '۱',
	'2': '۲',
	'3': '۳',
	'4': '۴',
	'5': '۵',
	'6': '۶',
	'7': '۷',
	'8': '۸',
	'9': '۹',
}

func ToPersianDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		if pr, ok := persianDigits[r]; ok {
			b.WriteRune(pr)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Digits applies the digit style ("en" or "fa") to s.
func Digits(s, style string) string {
	if style == "fa" {
		return ToPersianDigits(s)
	}
	return s
}

// FormatAmount renders an amount with its currency symbol, thousands
// separators and the currency's usual number of decimals, e.g. "$1,234.50",
// "¥3,980", "1,234.50 CHF".
func FormatAmount(amount decimal.Decimal, code, digits string) string {
	num := formatDecimalWithCommas(amount.Abs(), currency.Digits(code))
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	var out string
	if sym := currency.Symbol(code); sym != strings.ToUpper(code) {
		out = sign + sym + num
	} else {
		out = sign + num + " " + strings.ToUpper(code)
	}
	return Digits(out, digits)
}

// FormatDelta is FormatAmount with an explicit "+" for increases.
func FormatDelta(delta decimal.Decimal, code, digits string) string {
	s := FormatAmount(delta, code, digits)
	if delta.IsPositive() {
		return "+" + s
	}
	return s
}

// FormatPercent renders a signed percentage with two decimals.
func FormatPercent(pct decimal.Decimal, digits string) string {
	s := pct.StringFixed(2) + "%"
	if pct.IsPositive() {
		s = "+" + s
	}
	return Digits(s, digits)
}

func formatDecimalWithCommas(d decimal.Decimal, decimals int) string {
	s := d.StringFixed(int32(decimals))
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.Grow(len(s) + len(s)/3 + 1)
	if len(intPart) <= 3 {
		b.WriteString(intPart)
	} else {
		rem := len(intPart) % 3
		if rem == 0 {
			rem = 3
		}
		b.WriteString(intPart[:rem])
		for i := rem; i < len(intPart); i += 3 {
			b.WriteByte(',')
			b.WriteString(intPart[i : i+3])
		}
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
