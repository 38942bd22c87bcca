package price

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Armin-kho/price-tracker-bot/internal/currency"
)

// Parsed is a normalized money value. Two values are the same price when both
// the amount and the currency match.
type Parsed struct {
	Amount   decimal.Decimal
	Currency string
}

func (p Parsed) Equal(o Parsed) bool {
	return p.Currency == o.Currency && p.Amount.Equal(o.Amount)
}

func (p Parsed) String() string {
	return p.Currency + " " + p.Amount.String()
}

// maxBareDigits bounds integers written without any separator. Longer digit
// runs are SKUs, phone numbers or timestamps rather than prices.
const maxBareDigits = 7

var (
	// Either space-grouped thousands ("1 234,56") or digits joined by . , '
	numberRegex = regexp.MustCompile(`\d{1,3}(?:[ \x{00A0}\x{202F}]\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,']\d+)*`)
	isoRegex    = regexp.MustCompile(`^[A-Z]{3}$`)

	// Machine-written amounts: plain digits with an optional fraction.
	plainAmountRegex = regexp.MustCompile(`^\d{1,15}(?:\.\d{1,10})?$`)
	exponentRegex    = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)[eE][+-]?\d+$`)
)

// Parse extracts the first plausible price from a text fragment. The boolean
// is false when nothing in the fragment looks like a price; that is an
// ordinary outcome, not an error.
func Parse(text string) (Parsed, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Parsed{}, false
	}

	for _, loc := range numberRegex.FindAllStringIndex(text, -1) {
		token := text[loc[0]:loc[1]]
		if isPercent(text[loc[1]:]) {
			continue
		}
		amount, ok := normalizeNumber(token)
		if !ok {
			continue
		}
		return Parsed{Amount: amount, Currency: detectCurrency(text, loc[0], loc[1])}, true
	}
	return Parsed{}, false
}

// ParseStructured reads a machine-written amount such as a schema.org price,
// where "." is always the decimal point. Numbers in any other notation
// (exponents, signs, more than 15 integer digits) are not prices. Free text
// falls back to Parse.
func ParseStructured(amount, code string) (Parsed, bool) {
	amount = strings.TrimSpace(amount)
	// Exponent forms expand to arbitrarily many digits once formatted.
	if exponentRegex.MatchString(amount) {
		return Parsed{}, false
	}
	if d, err := decimal.NewFromString(amount); err == nil {
		if !plainAmountRegex.MatchString(amount) || !d.IsPositive() {
			return Parsed{}, false
		}
		return Parsed{Amount: d, Currency: currency.Normalize(code)}, true
	}
	p, ok := Parse(amount)
	if !ok {
		return Parsed{}, false
	}
	if strings.TrimSpace(code) != "" {
		p.Currency = currency.Normalize(code)
	}
	return p, true
}

func isPercent(rest string) bool {
	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	return strings.HasPrefix(rest, "%")
}

// normalizeNumber resolves thousands separators against the decimal point.
// The last separator is the decimal point when 1-2 digits follow it; exactly
// three digits mark it as a thousands separator.
func normalizeNumber(token string) (decimal.Decimal, bool) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\'':
			return -1
		}
		return r
	}, token)

	last := strings.LastIndexAny(s, ".,")
	var digits string
	switch {
	case last < 0:
		if len(s) > maxBareDigits {
			return decimal.Decimal{}, false
		}
		digits = s
	case len(s)-last-1 == 3:
		digits = stripSeparators(s)
	default:
		digits = stripSeparators(s[:last]) + "." + s[last+1:]
	}

	d, err := decimal.NewFromString(digits)
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, false
	}
	return d, true
}

func stripSeparators(s string) string {
	return strings.NewReplacer(".", "", ",", "").Replace(s)
}

// detectCurrency prefers an ISO code written right next to the number, then
// any trusted symbol in the fragment, then the default.
func detectCurrency(text string, start, end int) string {
	before := strings.TrimRightFunc(text[:start], unicode.IsSpace)
	if len(before) >= 3 {
		if code := before[len(before)-3:]; isoRegex.MatchString(code) && currency.IsISO(code) && wordBoundaryBefore(before, len(before)-3) {
			return code
		}
	}
	after := strings.TrimLeftFunc(text[end:], unicode.IsSpace)
	if len(after) >= 3 {
		if code := after[:3]; isoRegex.MatchString(code) && currency.IsISO(code) && wordBoundaryAfter(after, 3) {
			return code
		}
	}
	if code, ok := currency.FromSymbol(text); ok {
		return code
	}
	return currency.Default
}

func wordBoundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(r)
}

func wordBoundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r)
}
