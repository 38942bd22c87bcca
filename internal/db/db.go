package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateURL    = errors.New("url is already tracked")
	ErrInvalidInterval = errors.New("refresh interval must be positive")
)

type DB struct {
	sql *sql.DB
}

func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", dbPath)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One writer; the scheduler and manual refreshes share it.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)

	db := &DB{sql: sqldb}
	if err := db.migrate(context.Background()); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error {
	return d.sql.Close()
}

const schemaVersion = "1"

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS admins (user_id INTEGER PRIMARY KEY, is_super INTEGER NOT NULL DEFAULT 0, created_at INTEGER NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS products (
			product_id TEXT PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			refresh_interval INTEGER NOT NULL CHECK (refresh_interval > 0),
			last_checked INTEGER,
			last_error TEXT,
			fail_count INTEGER NOT NULL DEFAULT 0,
			added_by INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS price_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_id TEXT NOT NULL REFERENCES products(product_id) ON DELETE CASCADE,
			amount TEXT NOT NULL,
			currency TEXT NOT NULL,
			recorded_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS global_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_product ON price_history(product_id, recorded_at);`,
		`CREATE INDEX IF NOT EXISTS idx_products_last_checked ON products(last_checked);`,
	}
	for _, s := range stmts {
		if _, err := d.sql.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	_, err := d.sql.ExecContext(ctx, `INSERT OR IGNORE INTO meta(key,value) VALUES('schema_version',?)`, schemaVersion)
	return err
}

// SeedFromConfig adds the configured admins when the admins table is empty.
// The first one becomes the super admin.
func (d *DB) SeedFromConfig(ctx context.Context, initialAdmins []int64) error {
	count, err := d.AdminCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for i, id := range initialAdmins {
		if err := d.AddAdmin(ctx, id, i == 0); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) AdminCount(ctx context.Context) (int, error) {
	var c int
	if err := d.sql.QueryRowContext(ctx, `SELECT COUNT(1) FROM admins`).Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}

// IsAdmin reports (isAdmin, isSuper).
func (d *DB) IsAdmin(ctx context.Context, userID int64) (bool, bool, error) {
	var isSuper int
	err := d.sql.QueryRowContext(ctx, `SELECT is_super FROM admins WHERE user_id=?`, userID).Scan(&isSuper)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return true, isSuper == 1, nil
}

func (d *DB) AddAdmin(ctx context.Context, userID int64, super bool) error {
	isSuper := 0
	if super {
		isSuper = 1
	}
	_, err := d.sql.ExecContext(ctx, `INSERT OR REPLACE INTO admins(user_id,is_super,created_at) VALUES(?,?,?)`, userID, isSuper, time.Now().Unix())
	return err
}

func (d *DB) RemoveAdmin(ctx context.Context, userID int64) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM admins WHERE user_id=?`, userID)
	return err
}

type Admin struct {
	UserID  int64
	IsSuper bool
}

func (d *DB) ListAdmins(ctx context.Context) ([]Admin, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT user_id,is_super FROM admins ORDER BY is_super DESC, user_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Admin
	for rows.Next() {
		var a Admin
		var isSuper int
		if err := rows.Scan(&a.UserID, &isSuper); err != nil {
			return nil, err
		}
		a.IsSuper = isSuper == 1
		out = append(out, a)
	}
	return out, rows.Err()
}

func (d *DB) GetGlobalSetting(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := d.sql.QueryRowContext(ctx, `SELECT value FROM global_settings WHERE key=?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (d *DB) SetGlobalSetting(ctx context.Context, key, value string) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO global_settings(key,value) VALUES(?,?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	return err
}
