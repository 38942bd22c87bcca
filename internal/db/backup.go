package db

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// BackupTo writes a consistent snapshot of the database to dstPath with
// VACUUM INTO, which is safe while WAL mode is active. An existing file at
// dstPath is replaced.
func (d *DB) BackupTo(ctx context.Context, dstPath string) error {
	if err := os.Remove(dstPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	escaped := strings.ReplaceAll(dstPath, "'", "''")
	_, err := d.sql.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s';", escaped))
	return err
}
