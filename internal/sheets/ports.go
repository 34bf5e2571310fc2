package sheets

import (
	"context"

	"wealthnav/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerReader returns every stored row, in stored order.
	LedgerReader interface {
		ReadAll(ctx context.Context) ([]core.RawRow, error)
	}

	// LedgerWriter replaces the whole stored ledger. Implementations must
	// either land all rows or leave the previous contents in place.
	LedgerWriter interface {
		WriteAll(ctx context.Context, rows []core.RawRow) error
	}

	LedgerStore interface {
		LedgerReader
		LedgerWriter
	}
)
