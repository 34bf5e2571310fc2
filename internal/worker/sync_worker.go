package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"wealthnav/internal/amqp"
	"wealthnav/internal/core"
	"wealthnav/internal/sheets"
)

// MirrorWorker copies the primary ledger to a secondary store wholesale,
// typically SQLite to Google Sheets.
type MirrorWorker struct {
	source sheets.LedgerReader
	target sheets.LedgerWriter
	goal   core.Goal

	mu       sync.Mutex
	lastSum  string
	lastSync time.Time
}

// NewMirrorWorker mirrors source to target. goal fills in remaining-to-goal
// for rows stored without it.
func NewMirrorWorker(source sheets.LedgerReader, target sheets.LedgerWriter, goal core.Goal) *MirrorWorker {
	return &MirrorWorker{source: source, target: target, goal: goal}
}

// HandleLedgerReplaced processes one ledger replaced message from AMQP.
func (w *MirrorWorker) HandleLedgerReplaced(ctx context.Context, msg *amqp.LedgerReplacedMessage) error {
	slog.InfoContext(ctx, "Processing ledger replaced message",
		"rows", msg.Rows,
		"published_at", msg.Timestamp)
	_, err := w.Sync(ctx)
	return err
}

// Sync mirrors the current source ledger to the target. The target is only
// written when the normalized ledger differs from the last mirrored copy, and
// never with an empty ledger.
func (w *MirrorWorker) Sync(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.source.ReadAll(ctx)
	if err != nil {
		return false, fmt.Errorf("read source ledger: %w", err)
	}
	normalized := core.Normalize(rows).FillRemaining(w.goal).Rows()
	if len(normalized) == 0 {
		// Never blank the mirror from an empty or unreadable primary.
		slog.WarnContext(ctx, "Source ledger empty, skipping mirror")
		return false, nil
	}
	sum := checksum(normalized)
	if sum == w.lastSum {
		slog.DebugContext(ctx, "Ledger unchanged since last mirror", "rows", len(normalized))
		return false, nil
	}

	if err := w.target.WriteAll(ctx, normalized); err != nil {
		return false, fmt.Errorf("write mirror ledger: %w", err)
	}
	w.lastSum = sum
	w.lastSync = time.Now()
	slog.InfoContext(ctx, "Ledger mirrored", "rows", len(normalized))
	return true, nil
}

// Run re-syncs on every tick until ctx is done, catching up on messages
// that were lost while the worker was down.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Sync(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic mirror failed", "error", err)
			}
		}
	}
}

// LastSync reports when the target was last written.
func (w *MirrorWorker) LastSync() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSync
}

func checksum(rows []core.RawRow) string {
	h := sha256.New()
	for _, r := range rows {
		for _, v := range r.Values() {
			h.Write([]byte(v))
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
