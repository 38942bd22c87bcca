package currency

import "strings"

// Default is used when a page names no currency at all.
const Default = "USD"

type Currency struct {
	Code   string
	Symbol string
	Emoji  string
	// Digits is the number of minor-unit digits shown when formatting.
	Digits int
}

var All = []Currency{
	{Code: "USD", Symbol: "$", Emoji: "💵", Digits: 2},
	{Code: "EUR", Symbol: "€", Emoji: "💶", Digits: 2},
	{Code: "GBP", Symbol: "£", Emoji: "💷", Digits: 2},
	{Code: "JPY", Symbol: "¥", Emoji: "💴", Digits: 0},
	{Code: "CNY", Symbol: "CN¥", Emoji: "💱", Digits: 2},
	{Code: "CAD", Symbol: "CA$", Emoji: "💱", Digits: 2},
	{Code: "AUD", Symbol: "A$", Emoji: "💱", Digits: 2},
	{Code: "NZD", Symbol: "NZ$", Emoji: "💱", Digits: 2},
	{Code: "HKD", Symbol: "HK$", Emoji: "💱", Digits: 2},
	{Code: "SGD", Symbol: "S$", Emoji: "💱", Digits: 2},
	{Code: "CHF", Symbol: "CHF", Emoji: "💱", Digits: 2},
	{Code: "SEK", Symbol: "kr", Emoji: "💱", Digits: 2},
	{Code: "NOK", Symbol: "kr", Emoji: "💱", Digits: 2},
	{Code: "DKK", Symbol: "kr", Emoji: "💱", Digits: 2},
	{Code: "PLN", Symbol: "zł", Emoji: "💱", Digits: 2},
	{Code: "CZK", Symbol: "Kč", Emoji: "💱", Digits: 2},
	{Code: "HUF", Symbol: "Ft", Emoji: "💱", Digits: 0},
	{Code: "RUB", Symbol: "₽", Emoji: "💱", Digits: 2},
	{Code: "UAH", Symbol: "₴", Emoji: "💱", Digits: 2},
	{Code: "TRY", Symbol: "₺", Emoji: "💱", Digits: 2},
	{Code: "INR", Symbol: "₹", Emoji: "💱", Digits: 2},
	{Code: "KRW", Symbol: "₩", Emoji: "💱", Digits: 0},
	{Code: "BRL", Symbol: "R$", Emoji: "💱", Digits: 2},
	{Code: "MXN", Symbol: "MX$", Emoji: "💱", Digits: 2},
	{Code: "ZAR", Symbol: "R", Emoji: "💱", Digits: 2},
	{Code: "AED", Symbol: "AED", Emoji: "💱", Digits: 2},
	{Code: "SAR", Symbol: "SAR", Emoji: "💱", Digits: 2},
	{Code: "ILS", Symbol: "₪", Emoji: "💱", Digits: 2},
	{Code: "IRR", Symbol: "﷼", Emoji: "💱", Digits: 0},
	{Code: "THB", Symbol: "฿", Emoji: "💱", Digits: 2},
	{Code: "MYR", Symbol: "RM", Emoji: "💱", Digits: 2},
	{Code: "IDR", Symbol: "Rp", Emoji: "💱", Digits: 0},
	{Code: "PHP", Symbol: "₱", Emoji: "💱", Digits: 2},
	{Code: "VND", Symbol: "₫", Emoji: "💱", Digits: 0},
}

// symbolMarks maps the price-tag symbols we trust to an ISO code. Ambiguous
// marks ("kr", "R") are left out on purpose: they collide with ordinary words.
// Order matters: longer marks must come before their suffixes.
var symbolMarks = []struct {
	Mark string
	Code string
}{
	{"US$", "USD"},
	{"CA$", "CAD"},
	{"AU$", "AUD"},
	{"NZ$", "NZD"},
	{"HK$", "HKD"},
	{"MX$", "MXN"},
	{"CN¥", "CNY"},
	{"R$", "BRL"},
	{"C$", "CAD"},
	{"A$", "AUD"},
	{"S$", "SGD"},
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"₹", "INR"},
	{"₽", "RUB"},
	{"₴", "UAH"},
	{"₺", "TRY"},
	{"₩", "KRW"},
	{"₪", "ILS"},
	{"₱", "PHP"},
	{"₫", "VND"},
	{"฿", "THB"},
	{"zł", "PLN"},
	{"Kč", "CZK"},
}

var byCode map[string]Currency

func init() {
	byCode = map[string]Currency{}
	for _, c := range All {
		byCode[c.Code] = c
	}
}

func ByCode(code string) (Currency, bool) {
	c, ok := byCode[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// IsISO reports whether code is a catalogued ISO 4217 code (case-insensitive).
func IsISO(code string) bool {
	_, ok := ByCode(code)
	return ok
}

// FromSymbol returns the ISO code of the first trusted symbol found in s.
// Longer symbols win over their suffixes, so "CA$ 10" is CAD and not USD.
func FromSymbol(s string) (string, bool) {
	best := -1
	code := ""
	for _, m := range symbolMarks {
		idx := strings.Index(s, m.Mark)
		if idx < 0 {
			continue
		}
		// A "$" inside "CA$" starts later than the longer mark, so the
		// earliest start position wins and ties keep the longer mark.
		if best == -1 || idx < best {
			best = idx
			code = m.Code
		}
	}
	return code, best >= 0
}

// Normalize upper-cases a currency code and falls back to Default when empty.
func Normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Default
	}
	return code
}

// Symbol returns the display symbol for code, or the code itself.
func Symbol(code string) string {
	if c, ok := ByCode(code); ok && c.Symbol != "" {
		return c.Symbol
	}
	return strings.ToUpper(code)
}

// Digits returns the display precision for code (2 for unknown codes).
func Digits(code string) int {
	if c, ok := ByCode(code); ok {
		return c.Digits
	}
	return 2
}
