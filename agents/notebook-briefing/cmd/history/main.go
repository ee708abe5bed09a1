package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"podcast-agent/internal/models"
	"podcast-agent/shared/config"
	"podcast-agent/shared/storage"

	"github.com/jessevdk/go-flags"
)

type options struct {
	Limit  int    `short:"n" long:"limit" default:"7" description:"Number of runs to show, 0 for all"`
	JSON   bool   `long:"json" description:"Print the results as JSON"`
	Config string `short:"c" long:"config" env:"CONFIG_FILE" default:"config.yaml" description:"Path to the YAML config file"`
}

func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := config.LoadFile(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.NewResultStore(cfg.OutputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open results: %v\n", err)
		os.Exit(1)
	}

	results, err := store.RecentResults(opts.Limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read results: %v\n", err)
		os.Exit(1)
	}

	if opts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(results)
	} else {
		err = writeHistory(os.Stdout, results, cfg.Location())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to print history: %v\n", err)
		os.Exit(1)
	}
}

// writeHistory prints one line per run, newest first
func writeHistory(w io.Writer, results []*models.RunResult, loc *time.Location) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded")
		return err
	}

	for _, r := range results {
		status := "ok"
		if !r.Success {
			status = "FAILED"
		}

		line := fmt.Sprintf("%s  %-6s  videos=%d sources=%d", r.StartedAt.In(loc).Format("2006-01-02 15:04"), status, r.VideosFound, r.SourcesAdded)
		if r.SourcesOutcome != "" {
			line += fmt.Sprintf(" (%s)", r.SourcesOutcome)
		}
		if r.Success && r.VideosFound > 0 && !r.GuidePanelOpened {
			line += " guide-closed"
		}
		if r.Error != "" {
			line += "  error: " + r.Error
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
