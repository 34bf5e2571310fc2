package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Column headers of the persisted ledger sheet. Order and spelling are part of
// the on-disk contract shared with the spreadsheet.
const (
	ColDate      = "日付"
	ColCash      = "現物買付余力"
	ColSpot      = "現物時価総額"
	ColMargin    = "信用評価損益"
	ColTotal     = "総資産"
	ColRemaining = "1億円までの残り"
)

// Columns lists the ledger headers in persisted order.
var Columns = []string{ColDate, ColCash, ColSpot, ColMargin, ColTotal, ColRemaining}

// DefaultGoal is one hundred million yen.
const DefaultGoal Goal = 100_000_000

type (
	// Goal is the target total the dashboard measures progress against.
	Goal int64

	Date struct {
		time.Time
	}

	// Snapshot is one dated record of account composition.
	Snapshot struct {
		Date      Date
		Cash      Yen // buying power
		Spot      Yen // market value of unleveraged holdings
		Margin    Yen // unrealized P&L on margin positions, may be negative
		Total     Yen
		Remaining Yen

		remainingMissing bool // the stored row had no remaining cell
	}

	// Entry holds the three operator-supplied figures of a snapshot.
	Entry struct {
		Cash   Yen
		Spot   Yen
		Margin Yen
	}

	// RawRow is a loosely typed ledger row as read from a store.
	RawRow struct {
		Date      string
		Cash      string
		Spot      string
		Margin    string
		Total     string
		Remaining string
	}

	// Ledger is the date-ordered history of snapshots, at most one per day.
	Ledger []Snapshot
)

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrEmptyLedger  = errors.New("ledger is empty")
	ErrInvalidGoal  = errors.New("goal must be positive")
	ErrMissingField = errors.New("missing field")
)

var dateLayouts = []string{
	"2006/01/02",
	"2006-01-02",
	"2006/1/2",
	"2006-1-2",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate accepts the date spellings found in the sheet and drops any
// time-of-day component.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// String renders the date the way the sheet stores it.
func (d Date) String() string {
	return d.Format("2006/01/02")
}

// YearMonth returns the calendar month containing d.
func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year(), Month: d.Time.Month()}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (g Goal) Validate() error {
	if g <= 0 {
		return ErrInvalidGoal
	}
	return nil
}

// NewSnapshot builds a snapshot from operator input. Total and Remaining are
// always derived here and never taken from the caller.
func NewSnapshot(d Date, e Entry, goal Goal) Snapshot {
	total := e.Cash + e.Spot + e.Margin
	return Snapshot{
		Date:      d,
		Cash:      e.Cash,
		Spot:      e.Spot,
		Margin:    e.Margin,
		Total:     total,
		Remaining: Yen(goal) - total,
	}
}

// FillRemaining derives Remaining from goal for snapshots read without one.
// Stored values are left alone.
func (l Ledger) FillRemaining(goal Goal) Ledger {
	for i := range l {
		if l[i].remainingMissing {
			l[i].Remaining = Yen(goal) - l[i].Total
			l[i].remainingMissing = false
		}
	}
	return l
}

// Row renders the snapshot in persisted column order.
func (s Snapshot) Row() RawRow {
	return RawRow{
		Date:      s.Date.String(),
		Cash:      s.Cash.Plain(),
		Spot:      s.Spot.Plain(),
		Margin:    s.Margin.Plain(),
		Total:     s.Total.Plain(),
		Remaining: s.Remaining.Plain(),
	}
}

// Values returns the row as a slice in Columns order.
func (r RawRow) Values() []string {
	return []string{r.Date, r.Cash, r.Spot, r.Margin, r.Total, r.Remaining}
}

// RowFromValues maps a positional record onto a RawRow. Short records leave
// the trailing fields empty.
func RowFromValues(vals []string) RawRow {
	get := func(i int) string {
		if i < len(vals) {
			return strings.TrimSpace(vals[i])
		}
		return ""
	}
	return RawRow{
		Date:      get(0),
		Cash:      get(1),
		Spot:      get(2),
		Margin:    get(3),
		Total:     get(4),
		Remaining: get(5),
	}
}

// Rows renders the whole ledger for persistence.
func (l Ledger) Rows() []RawRow {
	out := make([]RawRow, len(l))
	for i, s := range l {
		out[i] = s.Row()
	}
	return out
}

// Latest returns the most recent snapshot. It panics on an empty ledger.
func (l Ledger) Latest() Snapshot {
	return l[len(l)-1]
}

func (l Ledger) IsEmpty() bool {
	return len(l) == 0
}
