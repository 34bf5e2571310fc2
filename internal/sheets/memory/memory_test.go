package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"wealthnav/internal/core"
)

func TestMemoryStoreWriteAndRead(t *testing.T) {
	s := New()
	rows, err := s.ReadAll(context.Background())
	if err != nil || len(rows) != 0 {
		t.Fatalf("unexpected initial read: rows=%v err=%v", rows, err)
	}

	want := []core.RawRow{{Date: "2026/01/01", Cash: "100", Spot: "200", Margin: "-50", Total: "250", Remaining: "99999750"}}
	if err := s.WriteAll(context.Background(), want); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	// Mutating the caller's slice must not leak into the store.
	want[0].Cash = "999"

	rows, _ = s.ReadAll(context.Background())
	if len(rows) != 1 || rows[0].Cash != "100" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if s.Writes() != 1 {
		t.Fatalf("Writes() = %d", s.Writes())
	}
}

func TestFailNextWriteKeepsPreviousRows(t *testing.T) {
	s := New(core.RawRow{Date: "2026/01/01", Cash: "1", Spot: "1", Margin: "1"})
	s.FailNextWrite(errors.New("permission denied"))

	err := s.WriteAll(context.Background(), nil)
	var se *core.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	rows, _ := s.ReadAll(context.Background())
	if len(rows) != 1 {
		t.Fatalf("failed write must not change rows: %+v", rows)
	}
	if err := s.WriteAll(context.Background(), nil); err != nil {
		t.Fatalf("failure should only apply once: %v", err)
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	// No file -> empty ledger
	s := NewFromFiles(dir)
	rows, _ := s.ReadAll(context.Background())
	if len(rows) != 0 {
		t.Fatalf("expected empty store when seed missing")
	}

	content := "日付,現物買付余力,現物時価総額,信用評価損益,総資産,1億円までの残り\n" +
		"2026/02/01,1,2,3,6,99999994\n" +
		"2026/02/02,4,5\n"
	if err := os.WriteFile(filepath.Join(dir, "ledger.csv"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir)
	rows, _ = s.ReadAll(context.Background())
	if len(rows) != 2 || rows[0].Date != "2026/02/01" || rows[1].Margin != "" {
		t.Fatalf("unexpected seeded rows: %+v", rows)
	}
}
