package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"podcast-agent/agents/notebook-briefing/auth"
	"podcast-agent/agents/notebook-briefing/browser"
	"podcast-agent/shared/config"
	"podcast-agent/shared/logging"

	"github.com/jessevdk/go-flags"
)

var appURL = regexp.MustCompile(`^https://notebooklm\.google\.com/`)

type globalOptions struct {
	Config string `short:"c" long:"config" env:"CONFIG_FILE" default:"config.yaml" description:"Path to the YAML config file"`
}

var global globalOptions

func load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(global.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, logging.New(cfg.LogLevel, os.Stderr), nil
}

type setupCommand struct {
	Timeout time.Duration `long:"timeout" default:"10m" description:"How long to wait for the login to finish"`
}

func (c *setupCommand) Execute([]string) error {
	cfg, logger, err := load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	session, err := browser.Launch(ctx, browser.OptionsFromConfig(&cfg.Browser, false), logger)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Page().Navigate(ctx, cfg.Notebook.BaseURL); err != nil {
		return fmt.Errorf("failed to open %s: %w", cfg.Notebook.BaseURL, err)
	}

	fmt.Printf("Sign in with your Google account in the browser window (waiting up to %s).\n", c.Timeout)
	url, err := session.WaitForURL(ctx, appURL, c.Timeout)
	if err != nil {
		return fmt.Errorf("login did not complete: %w", err)
	}
	logger.Info("Login detected", "url", url)

	// let the app finish setting its session cookies
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(3 * time.Second):
	}

	n, err := session.SaveState(ctx, cfg.Browser.StateFile)
	if err != nil {
		return err
	}
	if err := auth.SaveInfo(cfg.Browser.AuthInfoFile, time.Now()); err != nil {
		return err
	}

	fmt.Printf("Saved %d cookies to %s\n", n, cfg.Browser.StateFile)
	return nil
}

type statusCommand struct {
	JSON bool `long:"json" description:"Print the status as JSON"`
}

func (c *statusCommand) Execute([]string) error {
	cfg, _, err := load()
	if err != nil {
		return err
	}

	status, err := auth.GetStatus(cfg.Browser.StateFile, cfg.Browser.AuthInfoFile, time.Now())
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	fmt.Printf("State file:    %s\n", status.StateFile)
	if !status.StateExists {
		fmt.Println("Authenticated: no (run authctl setup, restore or import)")
		return nil
	}
	fmt.Printf("Authenticated: %t (%d cookies)\n", status.Authenticated, status.CookieCount)
	fmt.Printf("State age:     %.1f hours\n", status.StateAgeHours)
	if !status.AuthenticatedAt.IsZero() {
		fmt.Printf("Signed in at:  %s\n", status.AuthenticatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if status.Stale {
		fmt.Println("Warning: the session is older than 7 days, sign in again if runs are redirected to login")
	}
	return nil
}

type exportCommand struct{}

func (c *exportCommand) Execute([]string) error {
	cfg, _, err := load()
	if err != nil {
		return err
	}

	encoded, err := auth.Export(cfg.Browser.StateFile)
	if err != nil {
		return err
	}
	fmt.Println(encoded)
	return nil
}

type restoreCommand struct{}

func (c *restoreCommand) Execute([]string) error {
	cfg, _, err := load()
	if err != nil {
		return err
	}

	if err := auth.RestoreFromEnv(cfg.Browser.AuthStateEnv, cfg.Browser.StateFile); err != nil {
		return err
	}
	fmt.Printf("Restored session state to %s\n", cfg.Browser.StateFile)
	return nil
}

type importCommand struct{}

func (c *importCommand) Execute([]string) error {
	cfg, _, err := load()
	if err != nil {
		return err
	}

	state, err := auth.ImportCookies(os.Stdin)
	if err != nil {
		return err
	}
	if err := auth.SaveState(cfg.Browser.StateFile, state); err != nil {
		return err
	}
	if err := auth.SaveInfo(cfg.Browser.AuthInfoFile, time.Now()); err != nil {
		return err
	}
	fmt.Printf("Imported %d cookies to %s\n", len(state.Cookies), cfg.Browser.StateFile)
	return nil
}

func main() {
	parser := flags.NewParser(&global, flags.HelpFlag|flags.PassDoubleDash)

	commands := []struct {
		name, short, long string
		data              any
	}{
		{"setup", "Sign in interactively and save the session", "Opens a visible browser at the notebook application and saves its cookies once the login completes.", &setupCommand{}},
		{"status", "Show the saved session state", "Prints whether a session is stored, its age and the last sign-in time.", &statusCommand{}},
		{"export", "Print the session as base64", "Prints the saved session encoded for an environment variable.", &exportCommand{}},
		{"restore", "Restore the session from the environment", "Decodes the auth state environment variable into the session file.", &restoreCommand{}},
		{"import", "Import a browser cookie export from stdin", "Reads a cookie list exported by a browser extension and saves it as the session.", &importCommand{}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to register %s: %v\n", c.name, err)
			os.Exit(2)
		}
	}

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Println(err)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, auth.ErrMissingAuthEnv) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}
