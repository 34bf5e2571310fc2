package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"wealthnav/internal/core"
	ports "wealthnav/internal/sheets"
)

var _ ports.LedgerStore = (*Store)(nil)

type Store struct {
	mu       sync.Mutex
	rows     []core.RawRow
	writes   int
	writeErr error
}

func New(rows ...core.RawRow) *Store {
	return &Store{rows: append([]core.RawRow(nil), rows...)}
}

// NewFromFiles seeds the store from <base>/ledger.csv when it exists. The
// file uses the sheet layout: a header row followed by six columns.
func NewFromFiles(base string) *Store {
	path := filepath.Join(base, "ledger.csv")
	f, err := os.Open(path)
	if err != nil {
		return New()
	}
	defer f.Close()
	rows, err := readCSV(f)
	if err != nil {
		slog.Warn("Ignoring unreadable ledger seed", "path", path, "error", err)
		return New()
	}
	return New(rows...)
}

// ReadAll returns a copy of the stored rows.
func (s *Store) ReadAll(_ context.Context) ([]core.RawRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.RawRow(nil), s.rows...), nil
}

// WriteAll replaces the stored rows.
func (s *Store) WriteAll(_ context.Context, rows []core.RawRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		err := s.writeErr
		s.writeErr = nil
		return &core.StoreError{Backend: "memory", Op: "write", Err: err}
	}
	s.rows = append([]core.RawRow(nil), rows...)
	s.writes++
	return nil
}

// FailNextWrite makes the next WriteAll return err without touching the rows.
func (s *Store) FailNextWrite(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Writes reports how many WriteAll calls succeeded.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func readCSV(r io.Reader) ([]core.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	var out []core.RawRow
	for i := 0; ; i++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if i == 0 && len(rec) > 0 && strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff")) == core.ColDate {
			continue
		}
		out = append(out, core.RowFromValues(rec))
	}
}
