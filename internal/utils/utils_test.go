package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount, code, digits, want string
	}{
		{"1234.5", "USD", "en", "$1,234.50"},
		{"19.99", "EUR", "en", "€19.99"},
		{"3980", "JPY", "en", "¥3,980"},
		{"1234567.891", "GBP", "en", "£1,234,567.89"},
		{"1234.5", "CHF", "en", "1,234.50 CHF"},
		{"12", "XYZ", "en", "12.00 XYZ"},
		{"-5", "USD", "en", "-$5.00"},
		{"1250000", "IRR", "fa", "﷼۱,۲۵۰,۰۰۰"},
	}
	for _, tc := range cases {
		got := FormatAmount(decimal.RequireFromString(tc.amount), tc.code, tc.digits)
		if got != tc.want {
			t.Errorf("FormatAmount(%s, %s) = %q, want %q", tc.amount, tc.code, got, tc.want)
		}
	}
}

func TestFormatDeltaAndPercent(t *testing.T) {
	if got := FormatDelta(decimal.RequireFromString("2.5"), "USD", "en"); got != "+$2.50" {
		t.Errorf("FormatDelta = %q", got)
	}
	if got := FormatDelta(decimal.RequireFromString("-2.5"), "USD", "en"); got != "-$2.50" {
		t.Errorf("FormatDelta = %q", got)
	}
	if got := FormatPercent(decimal.RequireFromString("-12.5"), "en"); got != "-12.50%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := FormatPercent(decimal.RequireFromString("3"), "en"); got != "+3.00%" {
		t.Errorf("FormatPercent = %q", got)
	}
}

func TestToPersianDigits(t *testing.T) {
	if got := ToPersianDigits("Price 1,234.50"); got != "Price ۱,۲۳۴.۵۰" {
		t.Errorf("got %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2025, 12, 30, 13, 10, 0, 0, time.UTC)
	if got := FormatTime(ts, time.UTC, CalendarGregorian, "en"); got != "2025-12-30 13:10" {
		t.Errorf("gregorian = %q", got)
	}
	loc, err := Location("Asia/Tehran")
	if err != nil {
		t.Fatal(err)
	}
	// 2025-12-30 is 9 Dey 1404; Tehran is UTC+03:30.
	if got := FormatTime(ts, loc, CalendarJalali, "en"); got != "1404/10/09 - 16:40" {
		t.Errorf("jalali = %q", got)
	}
	if _, err := Location("Not/AZone"); err == nil {
		t.Error("expected error for unknown zone")
	}
}

func TestParseInterval(t *testing.T) {
	ok := map[string]time.Duration{
		"3600":       time.Hour,
		"90m":        90 * time.Minute,
		"1h30m":      90 * time.Minute,
		" 6H ":       6 * time.Hour,
		"2d":         48 * time.Hour,
		"106751d":    106751 * 24 * time.Hour,
		"9223372036": 9223372036 * time.Second,
	}
	for in, want := range ok {
		got, err := ParseInterval(in)
		if err != nil || got != want {
			t.Errorf("ParseInterval(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	for _, in := range []string{"", "0", "-5", "-1h", "soon", "xd", "100ms", "18446744075", "9223372037", "213504d", "106752d", "9999999999999h"} {
		if _, err := ParseInterval(in); !errors.Is(err, ErrBadInterval) {
			t.Errorf("ParseInterval(%q) err = %v, want ErrBadInterval", in, err)
		}
	}
}

func TestFormatInterval(t *testing.T) {
	cases := map[time.Duration]string{
		90 * time.Second: "1m30s",
		45 * time.Minute: "45m",
		6 * time.Hour:    "6h",
		90 * time.Minute: "1h30m",
		48 * time.Hour:   "2d",
		30 * time.Second: "30s",
	}
	for in, want := range cases {
		if got := FormatInterval(in); got != want {
			t.Errorf("FormatInterval(%v) = %q, want %q", in, got, want)
		}
	}
}
