package services

import (
	"context"
	"fmt"
	"log/slog"

	"wealthnav/internal/core"
	applog "wealthnav/internal/log"
	"wealthnav/internal/sheets"
)

// LedgerPublisher announces that the stored ledger was replaced.
type LedgerPublisher interface {
	PublishLedgerReplaced(ctx context.Context, rows int) error
}

// PersistError reports a failed ledger write. Ledger holds the merged result
// that did not land so the caller can offer a retry without re-entry.
type PersistError struct {
	Snapshot core.Snapshot
	Ledger   core.Ledger
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist ledger with snapshot %s: %v", e.Snapshot.Date, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// SnapshotService merges new snapshots into the stored ledger.
type SnapshotService struct {
	store     sheets.LedgerStore
	publisher LedgerPublisher
	goal      core.Goal
}

func NewSnapshotService(store sheets.LedgerStore, publisher LedgerPublisher, goal core.Goal) *SnapshotService {
	if goal <= 0 {
		goal = core.DefaultGoal
	}
	return &SnapshotService{
		store:     store,
		publisher: publisher,
		goal:      goal,
	}
}

// Record derives the snapshot for date from the operator's entry, merges it
// into the stored ledger and writes the whole ledger back. A second entry for
// the same date replaces the first.
func (s *SnapshotService) Record(ctx context.Context, date core.Date, e core.Entry) (core.Ledger, error) {
	if err := date.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	snap := core.NewSnapshot(date, e, s.goal)
	merged := core.Normalize(append(rows, snap.Row())).FillRemaining(s.goal)

	if err := s.Persist(ctx, merged); err != nil {
		return nil, &PersistError{Snapshot: snap, Ledger: merged, Err: err}
	}

	fields := applog.NewFields().WithSnapshot(snap).WithOperation(applog.OpRecord)
	fields[applog.FieldRows] = len(merged)
	slog.InfoContext(ctx, "Snapshot recorded", fields.ToSlice()...)
	return merged, nil
}

// Persist overwrites the store with l and announces the replacement. A
// publish failure is logged only: the ledger already landed.
func (s *SnapshotService) Persist(ctx context.Context, l core.Ledger) error {
	if err := s.store.WriteAll(ctx, l.Rows()); err != nil {
		return err
	}
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishLedgerReplaced(ctx, len(l)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger replaced message",
			applog.FieldRows, len(l), applog.FieldError, err, applog.FieldOperation, applog.OpPublish)
	}
	return nil
}

func (s *SnapshotService) Goal() core.Goal { return s.goal }
