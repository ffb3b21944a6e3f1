package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/RanolP/imakaraokay/internal/app"
	"github.com/RanolP/imakaraokay/internal/domain"
	"github.com/RanolP/imakaraokay/internal/output"
	"github.com/RanolP/imakaraokay/internal/search"
)

const usage = `Karaoke Song Search CLI

Usage: karaoke-search [options] <song title>

Options:
  -v     Show detailed search progress
  -json  Print the raw result aggregate as JSON

Example:
  karaoke-search 좋은날
  karaoke-search -v Blueming
  karaoke-search "IU Blueming"
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("karaoke-search", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	verbose := fs.Bool("v", false, "show detailed search progress")
	asJSON := fs.Bool("json", false, "print results as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		fs.Usage()
		return 0
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "An error occurred: %v\n", err)
		return 1
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := app.NewLogger(os.Stderr, level, "pretty")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := app.BuildEngine(cfg, app.NewGateway(cfg, logger), logger, search.WithTimeout(cfg.SearchTimeout))
	results := engine.Search(ctx, domain.Query{Text: title, MaxResults: cfg.KaraokeMaxResults})

	if *asJSON {
		err = output.WriteJSON(os.Stdout, results)
	} else {
		err = output.New(os.Stdout).Results(title, results)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "An error occurred: %v\n", err)
		return 1
	}
	return 0
}
