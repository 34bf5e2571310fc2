package storage

import (
	"context"
	"path/filepath"
	"testing"

	"wealthnav/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "wealth.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_EmptyLedger(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rows, err := repo.ReadAll(ctx)
	if err != nil || len(rows) != 0 {
		t.Fatalf("expected empty ledger, got rows=%v err=%v", rows, err)
	}
	if _, _, ok, err := repo.LastReplaced(ctx); ok || err != nil {
		t.Fatalf("expected no meta before first write, ok=%v err=%v", ok, err)
	}
}

func TestSQLiteRepository_WriteAllReplaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := []core.RawRow{
		{Date: "2026/02/01", Cash: "1", Spot: "2", Margin: "3", Total: "6", Remaining: "99999994"},
		{Date: "2026/02/02", Cash: "4", Spot: "5", Margin: "-6", Total: "3", Remaining: "99999997"},
	}
	if err := repo.WriteAll(ctx, first); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	second := []core.RawRow{
		{Date: "2026/03/01", Cash: "10", Spot: "20", Margin: "30", Total: "60", Remaining: "99999940"},
	}
	if err := repo.WriteAll(ctx, second); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	rows, err := repo.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 1 || rows[0] != second[0] {
		t.Fatalf("expected full replacement, got %+v", rows)
	}
	_, n, ok, err := repo.LastReplaced(ctx)
	if err != nil || !ok || n != 1 {
		t.Fatalf("unexpected meta: n=%d ok=%v err=%v", n, ok, err)
	}
}

func TestSQLiteRepository_PreservesOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	in := []core.RawRow{{Date: "2026/03/01"}, {Date: "2026/01/01"}, {Date: "2026/02/01"}}
	if err := repo.WriteAll(ctx, in); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	rows, _ := repo.ReadAll(ctx)
	for i := range in {
		if rows[i].Date != in[i].Date {
			t.Fatalf("row %d: got %q want %q", i, rows[i].Date, in[i].Date)
		}
	}
}

func TestSQLiteRepository_CancelledWriteKeepsLedger(t *testing.T) {
	repo := newTestRepo(t)
	keep := []core.RawRow{{Date: "2026/02/01", Cash: "1", Spot: "2", Margin: "3"}}
	if err := repo.WriteAll(context.Background(), keep); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := repo.WriteAll(ctx, nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}

	rows, _ := repo.ReadAll(context.Background())
	if len(rows) != 1 {
		t.Fatalf("failed write must leave ledger unchanged, got %+v", rows)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wealth.db")
	for i := 0; i < 2; i++ {
		if err := RunMigrations(path); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
}
