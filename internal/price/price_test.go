package price

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParse(t *testing.T) {
	cases := []struct {
		in       string
		amount   string
		currency string
	}{
		{"$1,234.56", "1234.56", "USD"},
		{"1.234,56 €", "1234.56", "EUR"},
		{"£19.99", "19.99", "GBP"},
		{"19.99", "19.99", "USD"},
		{"EUR 1 234,50", "1234.50", "EUR"},
		{"Price: 49,90 EUR", "49.90", "EUR"},
		{"CA$ 1,299.00", "1299", "CAD"},
		{"$25 CAD", "25", "CAD"},
		{"1.234", "1234", "USD"},
		{"1,5 €", "1.5", "EUR"},
		{"1'234.50 CHF", "1234.50", "CHF"},
		{"Save 20% now only $15.00", "15", "USD"},
		{"\n\t  ¥ 3,980  \n", "3980", "JPY"},
		{"199", "199", "USD"},
	}
	for _, tc := range cases {
		got, ok := Parse(tc.in)
		if !ok {
			t.Errorf("Parse(%q): no price found", tc.in)
			continue
		}
		if !got.Amount.Equal(dec(tc.amount)) || got.Currency != tc.currency {
			t.Errorf("Parse(%q) = %s, want %s %s", tc.in, got, tc.currency, tc.amount)
		}
	}
}

func TestParseNoPrice(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"Out of stock",
		"Add to cart",
		"25%",
		"SKU 123456789012",
		"0.00",
		"€",
	} {
		if got, ok := Parse(in); ok {
			t.Errorf("Parse(%q) = %s, want no price", in, got)
		}
	}
}

func TestParseIgnoresLowercaseWords(t *testing.T) {
	got, ok := Parse("19.99 try it today")
	if !ok {
		t.Fatal("no price found")
	}
	if got.Currency != "USD" {
		t.Errorf("currency = %s, want USD", got.Currency)
	}
}

func TestParseStructured(t *testing.T) {
	got, ok := ParseStructured("1.234", "eur")
	if !ok {
		t.Fatal("no price found")
	}
	if !got.Amount.Equal(dec("1.234")) || got.Currency != "EUR" {
		t.Errorf("got %s, want EUR 1.234", got)
	}

	got, ok = ParseStructured("$ 12.50", "")
	if !ok || !got.Amount.Equal(dec("12.5")) || got.Currency != "USD" {
		t.Errorf("got %s (%v), want USD 12.5", got, ok)
	}

	if _, ok := ParseStructured("0", "USD"); ok {
		t.Error("zero price accepted")
	}
	if _, ok := ParseStructured("", "USD"); ok {
		t.Error("empty price accepted")
	}
}

func TestParseStructuredRejectsNonPlainNumbers(t *testing.T) {
	for _, in := range []string{
		"1e400",
		"1E9999999",
		"1e200000000",
		"2.5e3",
		"1e99999999999",
		"-5",
		"+5",
		".5",
		"1234567890123456",
		"1.12345678901",
	} {
		if got, ok := ParseStructured(in, "USD"); ok {
			t.Errorf("ParseStructured(%q) = %s, want no price", in, got)
		}
	}
	if got, ok := ParseStructured("999999999999999.99", "USD"); !ok || got.Amount.String() != "999999999999999.99" {
		t.Errorf("largest plain amount rejected: %s, %v", got, ok)
	}
}

func TestParsedEqual(t *testing.T) {
	a := Parsed{Amount: dec("19.9"), Currency: "USD"}
	b := Parsed{Amount: dec("19.90"), Currency: "USD"}
	c := Parsed{Amount: dec("19.90"), Currency: "EUR"}
	if !a.Equal(b) {
		t.Error("19.9 USD should equal 19.90 USD")
	}
	if a.Equal(c) {
		t.Error("USD should not equal EUR")
	}
}

func usd(s string) Parsed {
	return Parsed{Amount: dec(s), Currency: "USD"}
}

func TestMostLikely(t *testing.T) {
	cases := []struct {
		name  string
		cands []Candidate
		want  string
	}{
		{
			name: "duplicate with higher priority",
			cands: []Candidate{
				{usd("19.99"), PrioritySchema},
				{usd("19.99"), PrioritySchema},
				{usd("29.99"), PriorityGeneric},
			},
			want: "19.99",
		},
		{
			name:  "single candidate",
			cands: []Candidate{{usd("5.00"), PriorityGeneric}},
			want:  "5",
		},
		{
			name: "repeated value collapses",
			cands: []Candidate{
				{usd("42"), PriorityExplicit},
				{usd("42.00"), PriorityExplicit},
				{usd("42.0"), PriorityExplicit},
			},
			want: "42",
		},
		{
			name: "median guards against outlier",
			cands: []Candidate{
				{usd("100"), PriorityExplicit},
				{usd("12"), PriorityExplicit},
				{usd("11"), PriorityExplicit},
				{usd("12"), PriorityExplicit},
			},
			want: "12",
		},
		{
			name: "tie goes to first occurrence",
			cands: []Candidate{
				{usd("10"), PriorityExplicit},
				{usd("20"), PriorityExplicit},
			},
			want: "10",
		},
		{
			name: "priority beats median",
			cands: []Candidate{
				{usd("50"), PriorityGeneric},
				{usd("50"), PriorityGeneric},
				{usd("70"), PriorityExplicit},
			},
			want: "70",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := MostLikely(tc.cands)
			if !ok {
				t.Fatal("no price returned")
			}
			if !got.Amount.Equal(dec(tc.want)) {
				t.Errorf("got %s, want %s", got.Amount, tc.want)
			}
		})
	}
}

func TestMostLikelyEmpty(t *testing.T) {
	if _, ok := MostLikely(nil); ok {
		t.Error("expected no price for empty input")
	}
}
