package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product is a tracked page. RefreshInterval is in seconds; LastChecked and
// LastError are unset until the first check.
type Product struct {
	ID              string
	URL             string
	Name            string
	ImageURL        string
	RefreshInterval int64
	LastChecked     sql.NullInt64
	LastError       sql.NullString
	FailCount       int
	AddedBy         int64
	CreatedAt       time.Time
}

func (p Product) Interval() time.Duration {
	return time.Duration(p.RefreshInterval) * time.Second
}

// Title is the display name, falling back to the URL.
func (p Product) Title() string {
	if p.Name != "" {
		return p.Name
	}
	return p.URL
}

const productCols = `product_id,url,name,image_url,refresh_interval,last_checked,last_error,fail_count,added_by,created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (Product, error) {
	var p Product
	var created int64
	err := s.Scan(&p.ID, &p.URL, &p.Name, &p.ImageURL, &p.RefreshInterval,
		&p.LastChecked, &p.LastError, &p.FailCount, &p.AddedBy, &created)
	if err != nil {
		return Product{}, err
	}
	p.CreatedAt = time.Unix(created, 0)
	return p, nil
}

func (d *DB) AddProduct(ctx context.Context, url string, intervalSeconds int64, addedBy int64) (Product, error) {
	if intervalSeconds <= 0 {
		return Product{}, ErrInvalidInterval
	}
	id := "prod_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO products(product_id,url,refresh_interval,added_by,created_at) VALUES(?,?,?,?,?)
		 ON CONFLICT(url) DO NOTHING`,
		id, url, intervalSeconds, addedBy, time.Now().Unix())
	if err != nil {
		return Product{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Product{}, ErrDuplicateURL
	}
	return d.GetProduct(ctx, id)
}

func (d *DB) GetProduct(ctx context.Context, id string) (Product, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT `+productCols+` FROM products WHERE product_id=?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (d *DB) ListProducts(ctx context.Context) ([]Product, error) {
	return d.queryProducts(ctx, `SELECT `+productCols+` FROM products ORDER BY created_at ASC, product_id ASC`)
}

// ListDue returns products never checked or whose interval has elapsed at
// now. Never-checked products come first, then the most overdue.
func (d *DB) ListDue(ctx context.Context, now time.Time) ([]Product, error) {
	return d.queryProducts(ctx, `SELECT `+productCols+` FROM products
		WHERE last_checked IS NULL OR last_checked + refresh_interval <= ?
		ORDER BY last_checked IS NOT NULL, last_checked ASC, created_at ASC`, now.Unix())
}

func (d *DB) queryProducts(ctx context.Context, q string, args ...any) ([]Product, error) {
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (d *DB) RemoveProduct(ctx context.Context, id string) error {
	res, err := d.sql.ExecContext(ctx, `DELETE FROM products WHERE product_id=?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (d *DB) SetInterval(ctx context.Context, id string, intervalSeconds int64) error {
	if intervalSeconds <= 0 {
		return ErrInvalidInterval
	}
	res, err := d.sql.ExecContext(ctx, `UPDATE products SET refresh_interval=? WHERE product_id=?`, intervalSeconds, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// FillProductMeta sets name and image only where they are still empty, so a
// later page redesign cannot blank out what was captured earlier.
func (d *DB) FillProductMeta(ctx context.Context, id, name, imageURL string) error {
	_, err := d.sql.ExecContext(ctx, `UPDATE products SET
		name = CASE WHEN name = '' THEN ? ELSE name END,
		image_url = CASE WHEN image_url = '' THEN ? ELSE image_url END
		WHERE product_id=?`, name, imageURL, id)
	return err
}

// MarkChecked records a check attempt. last_checked never moves backwards.
// A non-empty errMsg increments the failure streak, success resets it.
// The new streak length is returned.
func (d *DB) MarkChecked(ctx context.Context, id string, at time.Time, errMsg string) (int, error) {
	var errVal any
	if errMsg != "" {
		errVal = errMsg
	}
	var fails int
	err := d.sql.QueryRowContext(ctx, `UPDATE products SET
		last_checked = MAX(COALESCE(last_checked, 0), ?),
		last_error = ?,
		fail_count = CASE WHEN ? IS NULL THEN 0 ELSE fail_count + 1 END
		WHERE product_id=?
		RETURNING fail_count`, at.Unix(), errVal, errVal, id).Scan(&fails)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return fails, err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
