package main

import (
	"errors"
	"fmt"
	"os"

	"podcast-agent/agents/notebook-briefing/notebook"

	"github.com/jessevdk/go-flags"
)

type options struct {
	Args struct {
		Path string `positional-arg-name:"snapshot" description:"Saved debug_<step>.html file" required:"true"`
	} `positional-args:"yes"`
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

	f, err := os.Open(opts.Args.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open snapshot: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	report, err := notebook.InspectSnapshot(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to inspect snapshot: %v\n", err)
		os.Exit(1)
	}
	if err := report.Write(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to print report: %v\n", err)
		os.Exit(1)
	}
}
