package core

import (
	"fmt"
	"time"
)

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// Prev returns the calendar month before m, rolling January back to December.
func (m YearMonth) Prev() YearMonth {
	if m.Month == time.January {
		return YearMonth{Year: m.Year - 1, Month: time.December}
	}
	return YearMonth{Year: m.Year, Month: m.Month - 1}
}

func (m YearMonth) String() string {
	return fmt.Sprintf("%04d/%02d", m.Year, int(m.Month))
}

// Metrics is the derived performance summary of a ledger.
type Metrics struct {
	AsOf          Date
	LatestDate    Date
	DaysSinceLast int

	CurrentTotal     Yen
	DayOverDayDelta  Yen
	MonthToDateDelta Yen
	MonthBaseline    Date // first snapshot recorded in the latest month

	PriorMonth      YearMonth
	PriorMonthDelta Yen
	HasPriorMonth   bool

	Goal          Goal
	Remaining     Yen     // may go negative once the goal is passed
	Progress      float64 // clamped to [0, 1]
	ProgressRatio float64 // unclamped
}

// Aggregate computes Metrics from a normalized, non-empty ledger. It has no
// side effects; asOf only feeds DaysSinceLast.
func Aggregate(l Ledger, asOf time.Time, goal Goal) (Metrics, error) {
	if l.IsEmpty() {
		return Metrics{}, ErrEmptyLedger
	}
	if err := goal.Validate(); err != nil {
		return Metrics{}, err
	}

	latest := l.Latest()
	today := DateOf(asOf)
	m := Metrics{
		AsOf:          today,
		LatestDate:    latest.Date,
		DaysSinceLast: int(today.Sub(latest.Date.Time).Hours() / 24),
		CurrentTotal:  latest.Total,
		Goal:          goal,
		Remaining:     Yen(goal) - latest.Total,
	}

	if len(l) >= 2 {
		m.DayOverDayDelta = latest.Total - l[len(l)-2].Total
	}

	month := latest.Date.YearMonth()
	if first, _, ok := l.monthBounds(month); ok {
		m.MonthBaseline = first.Date
		m.MonthToDateDelta = latest.Total - first.Total
	}

	m.PriorMonth = month.Prev()
	if first, last, ok := l.monthBounds(m.PriorMonth); ok {
		m.HasPriorMonth = true
		m.PriorMonthDelta = last.Total - first.Total
	}

	m.ProgressRatio = float64(latest.Total) / float64(goal)
	m.Progress = min(max(m.ProgressRatio, 0), 1)
	return m, nil
}

// InMonth returns the snapshots recorded in month ym, in date order.
func (l Ledger) InMonth(ym YearMonth) Ledger {
	var out Ledger
	for _, s := range l {
		if s.Date.YearMonth() == ym {
			out = append(out, s)
		}
	}
	return out
}

func (l Ledger) monthBounds(ym YearMonth) (first, last Snapshot, ok bool) {
	sub := l.InMonth(ym)
	if len(sub) == 0 {
		return Snapshot{}, Snapshot{}, false
	}
	return sub[0], sub[len(sub)-1], true
}

// ProgressPercent formats the unclamped ratio, e.g. "1.15%".
func (m Metrics) ProgressPercent() string {
	return fmt.Sprintf("%.2f%%", m.ProgressRatio*100)
}
