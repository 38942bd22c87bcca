package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Armin-kho/price-tracker-bot/internal/price"
)

// Reading is one persisted price observation. Readings are append-only.
type Reading struct {
	ID         int64
	ProductID  string
	Amount     decimal.Decimal
	Currency   string
	RecordedAt time.Time
}

func (r Reading) Price() price.Parsed {
	return price.Parsed{Amount: r.Amount, Currency: r.Currency}
}

func scanReading(s scanner) (Reading, error) {
	var r Reading
	var amount string
	var at int64
	if err := s.Scan(&r.ID, &r.ProductID, &amount, &r.Currency, &at); err != nil {
		return Reading{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Reading{}, err
	}
	r.Amount = d
	r.RecordedAt = time.Unix(at, 0)
	return r, nil
}

// LatestReading returns the newest reading, ok=false when there is none.
func (d *DB) LatestReading(ctx context.Context, productID string) (Reading, bool, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT id,product_id,amount,currency,recorded_at FROM price_history
		WHERE product_id=? ORDER BY recorded_at DESC, id DESC LIMIT 1`, productID)
	r, err := scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Reading{}, false, nil
	}
	if err != nil {
		return Reading{}, false, err
	}
	return r, true, nil
}

// LatestReadings returns the newest reading per product for the given IDs.
func (d *DB) LatestReadings(ctx context.Context, productIDs []string) (map[string]Reading, error) {
	out := map[string]Reading{}
	if len(productIDs) == 0 {
		return out, nil
	}

	q := `SELECT h.id,h.product_id,h.amount,h.currency,h.recorded_at FROM price_history h
		WHERE h.product_id IN (` + placeholders(len(productIDs)) + `)
		AND h.id = (SELECT id FROM price_history WHERE product_id=h.product_id ORDER BY recorded_at DESC, id DESC LIMIT 1)`
	args := make([]any, 0, len(productIDs))
	for _, id := range productIDs {
		args = append(args, id)
	}
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		out[r.ProductID] = r
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	s := "?"
	for i := 1; i < n; i++ {
		s += ",?"
	}
	return s
}

// AppendReading persists a new reading. The timestamp is clamped so it is
// never earlier than the product's previous reading.
func (d *DB) AppendReading(ctx context.Context, productID string, p price.Parsed, at time.Time) (Reading, error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return Reading{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var prev sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(recorded_at) FROM price_history WHERE product_id=?`, productID).Scan(&prev); err != nil {
		return Reading{}, err
	}
	ts := at.Unix()
	if prev.Valid && prev.Int64 > ts {
		ts = prev.Int64
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO price_history(product_id,amount,currency,recorded_at) VALUES(?,?,?,?)`,
		productID, p.Amount.String(), p.Currency, ts)
	if err != nil {
		return Reading{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Reading{}, err
	}
	if err := tx.Commit(); err != nil {
		return Reading{}, err
	}
	return Reading{ID: id, ProductID: productID, Amount: p.Amount, Currency: p.Currency, RecordedAt: time.Unix(ts, 0)}, nil
}

// History returns readings recorded at or after since, newest first. A zero
// since returns the whole history.
func (d *DB) History(ctx context.Context, productID string, since time.Time) ([]Reading, error) {
	var from int64
	if !since.IsZero() {
		from = since.Unix()
	}
	rows, err := d.sql.QueryContext(ctx, `SELECT id,product_id,amount,currency,recorded_at FROM price_history
		WHERE product_id=? AND recorded_at >= ? ORDER BY recorded_at DESC, id DESC`, productID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats summarises a set of readings in the currency of the newest one;
// readings in other currencies are not comparable and are skipped.
type Stats struct {
	Count    int
	Currency string
	Min      decimal.Decimal
	Max      decimal.Decimal
	Avg      decimal.Decimal
}

func (d *DB) Stats(ctx context.Context, productID string, since time.Time) (Stats, error) {
	hist, err := d.History(ctx, productID, since)
	if err != nil {
		return Stats{}, err
	}
	return Summarize(hist), nil
}

// Summarize expects readings newest first, as History returns them.
func Summarize(readings []Reading) Stats {
	if len(readings) == 0 {
		return Stats{}
	}
	st := Stats{Currency: readings[0].Currency}
	sum := decimal.Zero
	for _, r := range readings {
		if r.Currency != st.Currency {
			continue
		}
		if st.Count == 0 || r.Amount.LessThan(st.Min) {
			st.Min = r.Amount
		}
		if st.Count == 0 || r.Amount.GreaterThan(st.Max) {
			st.Max = r.Amount
		}
		sum = sum.Add(r.Amount)
		st.Count++
	}
	st.Avg = sum.Div(decimal.NewFromInt(int64(st.Count))).Round(2)
	return st
}
