package services

import (
	"context"
	"fmt"
	"time"

	"wealthnav/internal/core"
	"wealthnav/internal/sheets"
)

// Dashboard is everything the presentation layer renders for one request.
// Empty is the "no data yet" state; Metrics and Series are zero then.
type Dashboard struct {
	Empty   bool
	Ledger  core.Ledger
	Metrics core.Metrics
	Series  core.Series
}

// DashboardService reads the ledger and derives the dashboard figures.
type DashboardService struct {
	reader sheets.LedgerReader
	goal   core.Goal
}

func NewDashboardService(reader sheets.LedgerReader, goal core.Goal) *DashboardService {
	if goal <= 0 {
		goal = core.DefaultGoal
	}
	return &DashboardService{reader: reader, goal: goal}
}

// Load reads the whole ledger and aggregates it as of now.
func (s *DashboardService) Load(ctx context.Context, now time.Time) (Dashboard, error) {
	rows, err := s.reader.ReadAll(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("read ledger: %w", err)
	}
	l := core.Normalize(rows).FillRemaining(s.goal)
	if l.IsEmpty() {
		return Dashboard{Empty: true}, nil
	}
	m, err := core.Aggregate(l, now, s.goal)
	if err != nil {
		return Dashboard{}, fmt.Errorf("aggregate: %w", err)
	}
	return Dashboard{
		Ledger:  l,
		Metrics: m,
		Series:  core.NewSeries(l, s.goal),
	}, nil
}

func (s *DashboardService) Goal() core.Goal { return s.goal }
