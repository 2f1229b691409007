package runstate

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"gamesheet/internal/config"
)

// Store persists per-row run state backed by SQLite. One database serves all
// sheets; rows are keyed by (sheet_id, row_index).
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run state database and applies
// migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.StateDir, "runstate.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Snapshot reconciles the stored rows for a sheet against the titles read at
// run start. New rows are seeded pending; rows whose title changed since the
// last run are reset to pending; rows past the end of the column are removed.
// Rows whose title is unchanged keep their status, which is what makes
// re-running a completed sheet a no-op.
func (s *Store) Snapshot(ctx context.Context, sheetID string, titles []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for index, title := range titles {
		var existing string
		err := tx.QueryRowContext(ctx,
			"SELECT title FROM sheet_rows WHERE sheet_id = ? AND row_index = ?",
			sheetID, index,
		).Scan(&existing)
		switch {
		case err == sql.ErrNoRows:
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sheet_rows (sheet_id, row_index, title, status, detail, updated_at)
                 VALUES (?, ?, ?, ?, '', ?)`,
				sheetID, index, title, StatusPending, now,
			); err != nil {
				return fmt.Errorf("seed row %d: %w", index, err)
			}
		case err != nil:
			return fmt.Errorf("read row %d: %w", index, err)
		case existing != title:
			if _, err := tx.ExecContext(ctx,
				`UPDATE sheet_rows SET title = ?, status = ?, detail = '', updated_at = ?
                 WHERE sheet_id = ? AND row_index = ?`,
				title, StatusPending, now, sheetID, index,
			); err != nil {
				return fmt.Errorf("reset changed row %d: %w", index, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM sheet_rows WHERE sheet_id = ? AND row_index >= ?",
		sheetID, len(titles),
	); err != nil {
		return fmt.Errorf("trim removed rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Pending returns the unprocessed rows for a sheet in row order.
func (s *Store) Pending(ctx context.Context, sheetID string) ([]Row, error) {
	return s.queryRows(ctx,
		`SELECT sheet_id, row_index, title, status, detail, updated_at
         FROM sheet_rows WHERE sheet_id = ? AND status IN (?, ?)
         ORDER BY row_index`,
		sheetID, StatusPending, StatusQuerying)
}

// Rows returns every stored row for a sheet in row order.
func (s *Store) Rows(ctx context.Context, sheetID string) ([]Row, error) {
	return s.queryRows(ctx,
		`SELECT sheet_id, row_index, title, status, detail, updated_at
         FROM sheet_rows WHERE sheet_id = ? ORDER BY row_index`,
		sheetID)
}

// MarkQuerying transitions a row to the in-flight status.
func (s *Store) MarkQuerying(ctx context.Context, sheetID string, rowIndex int64) error {
	return s.setStatus(ctx, sheetID, rowIndex, StatusQuerying, "")
}

// MarkProcessed records a row's terminal outcome. Callers must have already
// written the outcome to the sheet; marking is the last step so an interrupt
// can only re-query a row, never skip one.
func (s *Store) MarkProcessed(ctx context.Context, sheetID string, rowIndex int64, status Status, detail string) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not a terminal outcome", status)
	}
	return s.setStatus(ctx, sheetID, rowIndex, status, detail)
}

// ResetStuck returns rows abandoned mid-query to pending. Run at open so an
// interrupted run's in-flight row is retried on resume.
func (s *Store) ResetStuck(ctx context.Context, sheetID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE sheet_rows SET status = ?, updated_at = ? WHERE sheet_id = ? AND status = ?",
		StatusPending, time.Now().UTC().Format(time.RFC3339Nano), sheetID, StatusQuerying,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck rows: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count reset rows: %w", err)
	}
	return count, nil
}

// Summary returns the count of rows per status for a sheet.
func (s *Store) Summary(ctx context.Context, sheetID string) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(1) FROM sheet_rows WHERE sheet_id = ? GROUP BY status",
		sheetID,
	)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	summary := make(map[Status]int)
	for rows.Next() {
		var raw string
		var count int
		if err := rows.Scan(&raw, &count); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		status, err := ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		summary[status] = count
	}
	return summary, rows.Err()
}

// Clear removes all stored rows for a sheet.
func (s *Store) Clear(ctx context.Context, sheetID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sheet_rows WHERE sheet_id = ?", sheetID); err != nil {
		return fmt.Errorf("clear sheet rows: %w", err)
	}
	return nil
}

func (s *Store) setStatus(ctx context.Context, sheetID string, rowIndex int64, status Status, detail string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE sheet_rows SET status = ?, detail = ?, updated_at = ? WHERE sheet_id = ? AND row_index = ?",
		status, detail, time.Now().UTC().Format(time.RFC3339Nano), sheetID, rowIndex,
	)
	if err != nil {
		return fmt.Errorf("update row %d: %w", rowIndex, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("count updated rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("row %d not found for sheet %s", rowIndex, sheetID)
	}
	return nil
}

func (s *Store) queryRows(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var row Row
		var rawStatus, rawUpdated string
		if err := rows.Scan(&row.SheetID, &row.RowIndex, &row.Title, &rawStatus, &row.Detail, &rawUpdated); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		status, err := ParseStatus(rawStatus)
		if err != nil {
			return nil, err
		}
		row.Status = status
		if parsed, err := time.Parse(time.RFC3339Nano, rawUpdated); err == nil {
			row.UpdatedAt = parsed
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
