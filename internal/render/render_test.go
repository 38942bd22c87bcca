package render

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Armin-kho/price-tracker-bot/internal/db"
	"github.com/Armin-kho/price-tracker-bot/internal/scheduler"
)

var plain = Display{Loc: time.UTC, Calendar: "gregorian", Digits: "en"}

func reading(amount, code string, at int64) db.Reading {
	return db.Reading{Amount: decimal.RequireFromString(amount), Currency: code, RecordedAt: time.Unix(at, 0)}
}

func product() db.Product {
	return db.Product{ID: "prod_1", URL: "https://shop.example/w", Name: "Widget", RefreshInterval: 3600}
}

func TestProductCard(t *testing.T) {
	p := product()
	p.LastChecked = sql.NullInt64{Int64: 0, Valid: true}
	p.FailCount = 2
	p.LastError = sql.NullString{String: "fetch failed", Valid: true}
	r := reading("1299.5", "USD", 0)

	got := ProductCard(p, &r, plain)
	for _, want := range []string{"Widget", "https://shop.example/w", "$1,299.50", "Every 1h", "1970-01-01 00:00", "Failing for 2 check(s): fetch failed"} {
		if !strings.Contains(got, want) {
			t.Errorf("card missing %q:\n%s", want, got)
		}
	}

	empty := ProductCard(db.Product{ID: "prod_2", URL: "https://x", RefreshInterval: 60}, nil, plain)
	if !strings.Contains(empty, "No price recorded yet") || !strings.Contains(empty, "never") {
		t.Errorf("unexpected card:\n%s", empty)
	}
}

func TestHistory(t *testing.T) {
	readings := []db.Reading{
		reading("15", "USD", 300),
		reading("20", "USD", 200),
		reading("20", "USD", 150),
		reading("10", "USD", 100),
	}
	got := History(product(), readings, 7, plain)
	lines := strings.Split(got, "\n")

	var priceLines []string
	for _, l := range lines {
		if strings.HasPrefix(l, "1970-") {
			priceLines = append(priceLines, l)
		}
	}
	if len(priceLines) != 4 {
		t.Fatalf("price lines = %v", priceLines)
	}
	wantSuffix := []string{arrowDown, arrowSame, arrowUp, "$10.00"}
	for i, suffix := range wantSuffix {
		if !strings.HasSuffix(priceLines[i], suffix) {
			t.Errorf("line %d = %q, want suffix %q", i, priceLines[i], suffix)
		}
	}
	if !strings.Contains(got, "Min: $10.00") || !strings.Contains(got, "Max: $20.00") {
		t.Errorf("summary missing:\n%s", got)
	}
	if !strings.Contains(got, "Last 7 day(s)") {
		t.Errorf("period missing:\n%s", got)
	}

	if empty := History(product(), nil, 0, plain); !strings.Contains(empty, "No readings") {
		t.Errorf("empty history = %q", empty)
	}
}

func TestChangeAlert(t *testing.T) {
	prev := reading("20", "EUR", 0)
	c := scheduler.Change{Previous: &prev, Current: reading("15", "EUR", 60)}
	got := ChangeAlert(product(), c, plain)
	for _, want := range []string{"Price drop", "€20.00 → €15.00", "-€5.00 (-25.00%)", "https://shop.example/w"} {
		if !strings.Contains(got, want) {
			t.Errorf("alert missing %q:\n%s", want, got)
		}
	}

	first := ChangeAlert(product(), scheduler.Change{Current: reading("9.99", "USD", 0)}, plain)
	if !strings.Contains(first, "First price recorded") || !strings.Contains(first, "$9.99") {
		t.Errorf("first alert:\n%s", first)
	}
}

func TestFailureAlertPersianDigits(t *testing.T) {
	fa := Display{Loc: time.UTC, Digits: "fa"}
	got := FailureAlert(product(), 12, errors.New("timeout"), fa)
	if !strings.Contains(got, "۱۲ times") || !strings.Contains(got, "timeout") {
		t.Errorf("alert = %q", got)
	}
}

func TestRefreshResult(t *testing.T) {
	latest := reading("5", "GBP", 0)
	got := RefreshResult(scheduler.Outcome{Product: product(), Latest: &latest}, plain)
	if !strings.Contains(got, "No change: £5.00") {
		t.Errorf("refresh = %q", got)
	}
}

func TestArrowAcrossCurrencies(t *testing.T) {
	if got := Arrow(reading("5", "USD", 0), reading("1", "EUR", 0)); got != arrowSame {
		t.Errorf("arrow = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo world", 5); got != "héll…" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
}
