package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/daybook/internal/models"
)

// Replace swaps the catalog contents for entries in one transaction.
func (db *DB) Replace(ctx context.Context, entries []models.FileEntry) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `DELETE FROM files`); err != nil {
		return fmt.Errorf("catalog: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO files (path, name, scope, type, update_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("catalog: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Path, e.Name, e.Scope, string(e.Type), e.UpdateAt, e.CreatedAt); err != nil {
			return fmt.Errorf("catalog: insert %s: %w", e.Path, err)
		}
	}

	return tx.Commit()
}

// Query filters a catalog listing. Zero values mean no filter.
type Query struct {
	Type  models.PageType
	Scope string
	Limit int
}

// Recent returns entries ordered by modification time, newest first.
func (db *DB) Recent(ctx context.Context, q Query) ([]models.FileEntry, error) {
	var (
		where []string
		args  []any
	)
	if q.Type != models.PageTypeAny {
		where = append(where, "type = ?")
		args = append(args, string(q.Type))
	}
	if q.Scope != "" {
		where = append(where, "scope = ?")
		args = append(args, q.Scope)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT path, name, scope, type, update_at, created_at FROM files`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY update_at DESC, path ASC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: recent: %w", err)
	}
	defer rows.Close()

	out := []models.FileEntry{}
	for rows.Next() {
		var e models.FileEntry
		var typ string
		if err := rows.Scan(&e.Path, &e.Name, &e.Scope, &typ, &e.UpdateAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = models.PageType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of catalogued files.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("catalog: count: %w", err)
	}
	return n, nil
}
