package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2026/03/01", NewDate(2026, 3, 1), true},
		{"2026-03-01", NewDate(2026, 3, 1), true},
		{"2026/3/1", NewDate(2026, 3, 1), true},
		{"2026/03/01 21:15:00", NewDate(2026, 3, 1), true},
		{"2026-03-01T23:59:59+09:00", NewDate(2026, 3, 1), true},
		{"not-a-date", Date{}, false},
		{"", Date{}, false},
		{"2026/13/01", Date{}, false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if !tc.ok {
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || !got.Equal(tc.want.Time) {
			t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
		}
		if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
			t.Fatalf("%q kept a time of day: %v", tc.in, got.Time)
		}
	}
}

func TestDateOfTruncates(t *testing.T) {
	d := DateOf(time.Date(2026, 1, 1, 17, 30, 0, 0, time.UTC))
	if !d.Equal(NewDate(2026, 1, 1).Time) {
		t.Fatalf("DateOf = %v", d.Time)
	}
}

func TestNewSnapshotDerivesTotals(t *testing.T) {
	s := NewSnapshot(NewDate(2026, 1, 1), Entry{Cash: 100, Spot: 200, Margin: -50}, DefaultGoal)
	if s.Total != 250 {
		t.Fatalf("Total = %d, want 250", s.Total)
	}
	if s.Remaining != 99_999_750 {
		t.Fatalf("Remaining = %d, want 99999750", s.Remaining)
	}
	if s.Total != s.Cash+s.Spot+s.Margin || s.Remaining != Yen(DefaultGoal)-s.Total {
		t.Fatalf("derived fields inconsistent: %+v", s)
	}
}

func TestSnapshotRowRoundTrip(t *testing.T) {
	s := NewSnapshot(NewDate(2026, 2, 15), Entry{Cash: 195884, Spot: 798250, Margin: -272647}, DefaultGoal)
	row := s.Row()
	if row.Date != "2026/02/15" || row.Margin != "-272647" {
		t.Fatalf("unexpected row: %+v", row)
	}
	back, err := ParseRow(RowFromValues(row.Values()))
	if err != nil {
		t.Fatalf("ParseRow: %v", err)
	}
	if back != s {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", back, s)
	}
}

func TestGoalValidate(t *testing.T) {
	if err := DefaultGoal.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Goal(0).Validate(); err == nil {
		t.Fatalf("expected error for zero goal")
	}
}
