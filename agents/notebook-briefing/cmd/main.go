package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	notebookbriefing "podcast-agent/agents/notebook-briefing"
	"podcast-agent/shared/config"
	"podcast-agent/shared/logging"
	"podcast-agent/shared/scheduler"

	"github.com/jessevdk/go-flags"
)

type options struct {
	Now     bool   `long:"now" description:"Run once immediately and exit (default)"`
	Loop    bool   `long:"loop" description:"Run every day on the configured schedule"`
	Visible bool   `long:"visible" description:"Show the browser and wait for Enter before closing it"`
	Config  string `short:"c" long:"config" env:"CONFIG_FILE" default:"config.yaml" description:"Path to the YAML config file"`
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := config.LoadFile(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger := logging.New(cfg.LogLevel, os.Stdout)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agent := notebookbriefing.NewBriefingAgent(cfg, logger)
	if opts.Visible {
		agent.SetHeadless(false)
		agent.Acknowledge = waitForEnter
	}

	s, err := scheduler.New(cfg, agent, logger)
	if err != nil {
		logger.Error("Failed to create scheduler", "error", err)
		return 1
	}

	if opts.Loop && !opts.Now {
		if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Scheduler failed", "error", err)
			return 1
		}
		return 0
	}

	if err := agent.Initialize(); err != nil {
		logger.Error("Failed to initialize agent", "error", err)
		return 1
	}
	if err := s.RunOnce(ctx); err != nil {
		logger.Error("Run failed", "error", err)
		return 1
	}
	return 0
}

// waitForEnter blocks until a line is read from stdin or ctx is done
func waitForEnter(ctx context.Context) error {
	fmt.Println("Browser left open for inspection. Press Enter to close it.")

	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(os.Stdin).ReadString('\n')
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
