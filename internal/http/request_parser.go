package http

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"wealthnav/internal/core"
)

// entryForm is the raw text of the snapshot entry form, kept verbatim so a
// rejected submission can be shown again unchanged.
type entryForm struct {
	Date   string
	Cash   string
	Spot   string
	Margin string
}

var errFormInput = errors.New("invalid form input")

func entryFormFrom(v url.Values) entryForm {
	return entryForm{
		Date:   sanitizeInput(v.Get("date")),
		Cash:   sanitizeInput(v.Get("cash")),
		Spot:   sanitizeInput(v.Get("spot")),
		Margin: sanitizeInput(v.Get("margin")),
	}
}

func entryFormOf(d core.Date, e core.Entry) entryForm {
	return entryForm{
		Date:   d.Format("2006-01-02"),
		Cash:   e.Cash.Plain(),
		Spot:   e.Spot.Plain(),
		Margin: e.Margin.Plain(),
	}
}

// parse validates the form. An empty date means fallback.
func (f entryForm) parse(fallback core.Date) (core.Date, core.Entry, error) {
	date := fallback
	if f.Date != "" {
		d, err := core.ParseDate(f.Date)
		if err != nil {
			return core.Date{}, core.Entry{}, fmt.Errorf("%w: 日付 %q", errFormInput, f.Date)
		}
		date = d
	}

	var e core.Entry
	fields := []struct {
		label string
		raw   string
		dst   *core.Yen
	}{
		{core.ColCash, f.Cash, &e.Cash},
		{core.ColSpot, f.Spot, &e.Spot},
		{core.ColMargin, f.Margin, &e.Margin},
	}
	for _, fld := range fields {
		v, err := core.ParseAmount(fld.raw)
		if err != nil {
			return core.Date{}, core.Entry{}, fmt.Errorf("%w: %s %q", errFormInput, fld.label, fld.raw)
		}
		*fld.dst = v
	}
	return date, e, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
