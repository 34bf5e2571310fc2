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

type reportCmd struct {
	recent int
	plain  bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print the dashboard metrics and recent snapshots" }
func (*reportCmd) Usage() string {
	return `wealthctl report [-n <rows>] [-plain]

  Prints current total, deltas and progress toward the goal.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.recent, "n", 10, "number of recent snapshots to list")
	f.BoolVar(&c.plain, "plain", false, "print raw markdown")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	d, err := services.NewDashboardService(a.backend.Store, a.cfg.Goal).Load(ctx, time.Now().In(a.cfg.Location()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if d.Empty {
		fmt.Println("No snapshots recorded yet.")
		return subcommands.ExitSuccess
	}
	printMarkdown(core.Report(d.Metrics, d.Ledger, c.recent), c.plain)
	return subcommands.ExitSuccess
}
