package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/google/subcommands"

	"wealthnav/internal/extract"
)

type extractCmd struct {
	record bool
	date   string
}

func (*extractCmd) Name() string     { return "extract" }
func (*extractCmd) Synopsis() string { return "read snapshot figures from brokerage screenshots" }
func (*extractCmd) Usage() string {
	return `wealthctl extract [-record] [-d <date>] <image>...

  Sends up to three screenshots to Gemini and prints the figures it found.
  With -record the figures are recorded as today's snapshot.
`
}

func (c *extractCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.record, "record", false, "record the extracted figures")
	f.StringVar(&c.date, "d", "", "snapshot date when recording (defaults to today)")
}

func (c *extractCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 || f.NArg() > extract.MaxImages {
		fmt.Fprintf(os.Stderr, "Error: pass between 1 and %d images\n", extract.MaxImages)
		return subcommands.ExitUsageError
	}
	images := make([]extract.Image, 0, f.NArg())
	for _, name := range f.Args() {
		data, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		images = append(images, extract.Image{Data: data, MIMEType: http.DetectContentType(data)})
	}

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	client, err := extract.NewClient(ctx, a.cfg.GeminiAPIKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	entry, err := extract.NewGeminiExtractor(client, a.cfg.GeminiModel).Extract(ctx, images...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("現物買付余力  %s\n現物時価総額  %s\n信用評価損益  %s\n", entry.Cash, entry.Spot, entry.Margin.Signed())

	if !c.record {
		return subcommands.ExitSuccess
	}
	date, err := snapshotDate(c.date, a.cfg.Location())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return recordEntry(ctx, a, date, entry)
}
