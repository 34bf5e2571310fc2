package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"wealthnav/internal/core"
	ports "wealthnav/internal/sheets"

	_ "modernc.org/sqlite"
)

const backendName = "sqlite"

var _ ports.LedgerStore = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReadAll implements sheets.LedgerReader
func (r *SQLiteRepository) ReadAll(ctx context.Context) ([]core.RawRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, cash, spot, margin, total, remaining FROM ledger_rows ORDER BY position`)
	if err != nil {
		return nil, &core.StoreError{Backend: backendName, Op: "read", Err: err}
	}
	defer rows.Close()

	var out []core.RawRow
	for rows.Next() {
		var row core.RawRow
		if err := rows.Scan(&row.Date, &row.Cash, &row.Spot, &row.Margin, &row.Total, &row.Remaining); err != nil {
			return nil, &core.StoreError{Backend: backendName, Op: "scan", Err: err}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Backend: backendName, Op: "read", Err: err}
	}
	return out, nil
}

// WriteAll implements sheets.LedgerWriter. The delete and inserts share one
// transaction, so readers never observe a partially replaced ledger.
func (r *SQLiteRepository) WriteAll(ctx context.Context, rows []core.RawRow) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.StoreError{Backend: backendName, Op: "begin", Err: err}
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.ErrorContext(ctx, "Ledger rollback failed", "error", rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM ledger_rows`); err != nil {
		return &core.StoreError{Backend: backendName, Op: "clear", Err: err}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ledger_rows (position, date, cash, spot, margin, total, remaining) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return &core.StoreError{Backend: backendName, Op: "prepare", Err: err}
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err = stmt.ExecContext(ctx, i, row.Date, row.Cash, row.Spot, row.Margin, row.Total, row.Remaining); err != nil {
			return &core.StoreError{Backend: backendName, Op: "insert", Err: fmt.Errorf("row %d: %w", i, err)}
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO ledger_meta (id, row_count, replaced_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET row_count = excluded.row_count, replaced_at = excluded.replaced_at`,
		len(rows), time.Now().UTC()); err != nil {
		return &core.StoreError{Backend: backendName, Op: "meta", Err: err}
	}

	if err = tx.Commit(); err != nil {
		return &core.StoreError{Backend: backendName, Op: "commit", Err: err}
	}

	slog.InfoContext(ctx, "Ledger replaced in SQLite", "rows", len(rows))
	return nil
}

// LastReplaced returns when the ledger was last written and how many rows it
// held. ok is false before the first write.
func (r *SQLiteRepository) LastReplaced(ctx context.Context) (at time.Time, rows int, ok bool, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT replaced_at, row_count FROM ledger_meta WHERE id = 1`).Scan(&at, &rows)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, 0, false, nil
	}
	if err != nil {
		return time.Time{}, 0, false, &core.StoreError{Backend: backendName, Op: "meta", Err: err}
	}
	return at, rows, true, nil
}
