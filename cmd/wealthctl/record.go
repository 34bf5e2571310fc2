package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"wealthnav/internal/core"
	"wealthnav/internal/services"
)

type recordCmd struct {
	date   string
	cash   string
	spot   string
	margin string
}

func (*recordCmd) Name() string     { return "record" }
func (*recordCmd) Synopsis() string { return "record a snapshot" }
func (*recordCmd) Usage() string {
	return `wealthctl record [-d <date>] -cash <yen> -spot <yen> -margin <yen>

  Records one snapshot. A snapshot already stored for the date is replaced.
`
}

func (c *recordCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "snapshot date, YYYY-MM-DD (defaults to today)")
	f.StringVar(&c.cash, "cash", "", "buying power")
	f.StringVar(&c.spot, "spot", "", "market value of spot holdings")
	f.StringVar(&c.margin, "margin", "", "unrealized margin P&L, may be negative")
}

func (c *recordCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	entry, err := parseEntry(c.cash, c.spot, c.margin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	date, err := snapshotDate(c.date, a.cfg.Location())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return recordEntry(ctx, a, date, entry)
}

func recordEntry(ctx context.Context, a *app, date core.Date, entry core.Entry) subcommands.ExitStatus {
	svc := services.NewSnapshotService(a.backend.Store, a.backend.Publisher, a.cfg.Goal)
	l, err := svc.Record(ctx, date, entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	s := core.NewSnapshot(date, entry, a.cfg.Goal)
	fmt.Printf("Recorded %s: total %s, %s to go (%d snapshots)\n", s.Date, s.Total, s.Remaining, len(l))
	return subcommands.ExitSuccess
}

func parseEntry(cash, spot, margin string) (core.Entry, error) {
	var e core.Entry
	for _, fld := range []struct {
		name string
		raw  string
		dst  *core.Yen
	}{
		{"cash", cash, &e.Cash},
		{"spot", spot, &e.Spot},
		{"margin", margin, &e.Margin},
	} {
		v, err := core.ParseAmount(fld.raw)
		if err != nil {
			return core.Entry{}, fmt.Errorf("-%s %q: %w", fld.name, fld.raw, err)
		}
		*fld.dst = v
	}
	return e, nil
}

func snapshotDate(s string, loc *time.Location) (core.Date, error) {
	if s == "" {
		return core.DateOf(time.Now().In(loc)), nil
	}
	return core.ParseDate(s)
}
