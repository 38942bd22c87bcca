package render

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Armin-kho/price-tracker-bot/internal/currency"
	"github.com/Armin-kho/price-tracker-bot/internal/db"
	"github.com/Armin-kho/price-tracker-bot/internal/scheduler"
	"github.com/Armin-kho/price-tracker-bot/internal/utils"
)

// Display carries the per-deployment presentation settings.
type Display struct {
	Loc      *time.Location
	Calendar string // gregorian/jalali
	Digits   string // en/fa
}

const (
	arrowUp   = "▲"
	arrowDown = "🔻"
	arrowSame = "▬"
)

func (d Display) time(t time.Time) string {
	return utils.FormatTime(t, d.Loc, d.Calendar, d.Digits)
}

func (d Display) amount(r db.Reading) string {
	return utils.FormatAmount(r.Amount, r.Currency, d.Digits)
}

func emoji(code string) string {
	if c, ok := currency.ByCode(code); ok && c.Emoji != "" {
		return c.Emoji
	}
	return "💱"
}

// Truncate shortens s to n runes, adding an ellipsis.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// ProductCard is the detail view of one tracked product.
func ProductCard(p db.Product, latest *db.Reading, d Display) string {
	var b strings.Builder
	b.WriteString("🛍 " + p.Title() + "\n")
	if p.Name != "" {
		b.WriteString("🔗 " + p.URL + "\n")
	}
	b.WriteString("🆔 " + p.ID + "\n\n")

	if latest != nil {
		fmt.Fprintf(&b, "%s Price: %s\n", emoji(latest.Currency), d.amount(*latest))
		fmt.Fprintf(&b, "📅 Since: %s\n", d.time(latest.RecordedAt))
	} else {
		b.WriteString("💤 No price recorded yet\n")
	}

	fmt.Fprintf(&b, "⏱ Every %s\n", utils.FormatInterval(p.Interval()))
	if p.LastChecked.Valid {
		fmt.Fprintf(&b, "🕒 Last checked: %s\n", d.time(time.Unix(p.LastChecked.Int64, 0)))
	} else {
		b.WriteString("🕒 Last checked: never\n")
	}
	if p.FailCount > 0 {
		fmt.Fprintf(&b, "⚠️ Failing for %d check(s): %s\n", p.FailCount, Truncate(p.LastError.String, 200))
	}
	return strings.TrimSpace(b.String())
}

// ProductList is the compact overview used by /list.
func ProductList(products []db.Product, latest map[string]db.Reading, d Display) string {
	if len(products) == 0 {
		return "No products tracked yet. Send /add <url> to start."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Tracked products (%s)\n\n", utils.Digits(fmt.Sprint(len(products)), d.Digits))
	for i, p := range products {
		price := "—"
		if r, ok := latest[p.ID]; ok {
			price = d.amount(r)
		}
		status := ""
		if p.FailCount > 0 {
			status = " ⚠️"
		}
		fmt.Fprintf(&b, "%s. %s\n    %s%s · every %s\n",
			utils.Digits(fmt.Sprint(i+1), d.Digits), Truncate(p.Title(), 60), price, status, utils.FormatInterval(p.Interval()))
	}
	return strings.TrimRight(b.String(), "\n")
}

// History lists readings newest first, each with an arrow against the
// reading before it, followed by a min/max summary.
func History(p db.Product, readings []db.Reading, days int, d Display) string {
	var b strings.Builder
	b.WriteString("📈 " + Truncate(p.Title(), 80) + "\n")
	if days > 0 {
		fmt.Fprintf(&b, "Last %s day(s)\n", utils.Digits(fmt.Sprint(days), d.Digits))
	}
	b.WriteString("\n")
	if len(readings) == 0 {
		b.WriteString("No readings in this period.")
		return b.String()
	}

	for i, r := range readings {
		arrow := ""
		if i+1 < len(readings) {
			arrow = " " + Arrow(readings[i+1], r)
		}
		fmt.Fprintf(&b, "%s  %s%s\n", d.time(r.RecordedAt), d.amount(r), arrow)
	}

	st := db.Summarize(readings)
	if st.Count > 1 {
		fmt.Fprintf(&b, "\n⬇️ Min: %s\n⬆️ Max: %s\n",
			utils.FormatAmount(st.Min, st.Currency, d.Digits),
			utils.FormatAmount(st.Max, st.Currency, d.Digits))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Arrow compares cur against prev. Readings in different currencies get no
// direction.
func Arrow(prev, cur db.Reading) string {
	if prev.Currency != cur.Currency {
		return arrowSame
	}
	switch cur.Amount.Cmp(prev.Amount) {
	case 1:
		return arrowUp
	case -1:
		return arrowDown
	}
	return arrowSame
}

// ChangeAlert announces a recorded change: old → new with the absolute and
// relative difference.
func ChangeAlert(p db.Product, c scheduler.Change, d Display) string {
	var b strings.Builder
	switch {
	case c.Previous == nil:
		b.WriteString("🆕 First price recorded\n")
	case c.IsDrop():
		b.WriteString("🔻 Price drop!\n")
	default:
		b.WriteString("🔔 Price changed\n")
	}
	b.WriteString(Truncate(p.Title(), 120) + "\n\n")

	if c.Previous != nil {
		fmt.Fprintf(&b, "%s → %s\n", d.amount(*c.Previous), d.amount(c.Current))
		if pct, ok := c.Percent(); ok {
			fmt.Fprintf(&b, "%s (%s)\n",
				utils.FormatDelta(c.Delta(), c.Current.Currency, d.Digits),
				utils.FormatPercent(pct, d.Digits))
		}
	} else {
		fmt.Fprintf(&b, "%s\n", d.amount(c.Current))
	}
	b.WriteString("\n🔗 " + p.URL)
	return b.String()
}

// FailureAlert tells admins that a product keeps failing.
func FailureAlert(p db.Product, failures int, err error, d Display) string {
	return fmt.Sprintf("⚠️ Could not check a product %s times in a row\n%s\n🔗 %s\n\nLast error: %s",
		utils.Digits(fmt.Sprint(failures), d.Digits), Truncate(p.Title(), 120), p.URL, Truncate(err.Error(), 300))
}

// RefreshResult is the reply to a manual refresh.
func RefreshResult(out scheduler.Outcome, d Display) string {
	var b strings.Builder
	b.WriteString("🔄 " + Truncate(out.Product.Title(), 120) + "\n\n")
	switch {
	case out.Change != nil && out.Change.Previous != nil:
		fmt.Fprintf(&b, "Price changed: %s → %s", d.amount(*out.Change.Previous), d.amount(out.Change.Current))
	case out.Change != nil:
		fmt.Fprintf(&b, "Price recorded: %s", d.amount(out.Change.Current))
	case out.Latest != nil:
		fmt.Fprintf(&b, "No change: %s", d.amount(*out.Latest))
	}
	return b.String()
}

type StatusInfo struct {
	Products   int
	Failing    int
	Due        int
	Running    bool
	Tick       time.Duration
	Pacing     time.Duration
	LastBackup time.Time
	Now        time.Time
}

func Status(st StatusInfo, d Display) string {
	var b strings.Builder
	b.WriteString("🧰 Status\n\n")
	fmt.Fprintf(&b, "Products: %s\n", utils.Digits(fmt.Sprint(st.Products), d.Digits))
	fmt.Fprintf(&b, "Due now: %s\n", utils.Digits(fmt.Sprint(st.Due), d.Digits))
	fmt.Fprintf(&b, "Failing: %s\n", utils.Digits(fmt.Sprint(st.Failing), d.Digits))
	batch := "idle"
	if st.Running {
		batch = "running"
	}
	fmt.Fprintf(&b, "Batch: %s\n", batch)
	fmt.Fprintf(&b, "Tick: %s · pacing: %s\n", utils.FormatInterval(st.Tick), st.Pacing)
	if !st.LastBackup.IsZero() {
		fmt.Fprintf(&b, "Last backup: %s\n", d.time(st.LastBackup))
	}
	fmt.Fprintf(&b, "\n🕒 %s", d.time(st.Now))
	return b.String()
}
