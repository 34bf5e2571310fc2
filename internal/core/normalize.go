package core

import (
	"fmt"
	"log/slog"
	"sort"
)

// Normalize turns raw store rows into a Ledger: rows with an unparseable date
// or numeric cell are dropped, the rest are sorted by day and collapsed so
// that the last row written for a day wins.
//
// Total and Remaining are taken as stored; only the three input figures are
// required to be present. A missing Remaining is left for
// Ledger.FillRemaining, which knows the goal.
func Normalize(rows []RawRow) Ledger {
	parsed := make([]Snapshot, 0, len(rows))
	for i, r := range rows {
		s, err := ParseRow(r)
		if err != nil {
			slog.Debug("Dropping malformed ledger row", "row", i, "date", r.Date, "error", err)
			continue
		}
		parsed = append(parsed, s)
	}

	// Stable sort keeps input order within a day, so the last element of each
	// run is both the last written and the last after sorting.
	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].Date.Before(parsed[j].Date.Time)
	})

	out := make(Ledger, 0, len(parsed))
	for _, s := range parsed {
		if n := len(out); n > 0 && out[n-1].Date.Equal(s.Date.Time) {
			out[n-1] = s
			continue
		}
		out = append(out, s)
	}
	return out
}

// ParseRow converts one raw row into a Snapshot.
func ParseRow(r RawRow) (Snapshot, error) {
	d, err := ParseDate(r.Date)
	if err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{Date: d}
	required := []struct {
		name string
		raw  string
		dst  *Yen
	}{
		{ColCash, r.Cash, &s.Cash},
		{ColSpot, r.Spot, &s.Spot},
		{ColMargin, r.Margin, &s.Margin},
	}
	for _, f := range required {
		v, err := ParseAmount(f.raw)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w %s: %v", ErrMissingField, f.name, err)
		}
		*f.dst = v
	}

	// Derived columns are display conveniences; fill them when absent.
	if v, err := ParseAmount(r.Total); err == nil {
		s.Total = v
	} else {
		s.Total = s.Cash + s.Spot + s.Margin
	}
	if v, err := ParseAmount(r.Remaining); err == nil {
		s.Remaining = v
	} else {
		s.remainingMissing = true
	}
	return s, nil
}
