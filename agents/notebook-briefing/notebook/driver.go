package notebook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"podcast-agent/internal/models"
	"podcast-agent/shared/config"
)

// ErrNotAuthenticated means the application redirected to the sign-in page
var ErrNotAuthenticated = errors.New("not authenticated: redirected to sign-in")

const (
	signInHost      = "accounts.google.com"
	navigateTimeout = 30 * time.Second
	actionTimeout   = 5 * time.Second
)

// Options controls one automation run
type Options struct {
	Name         string
	BaseURL      string
	Headless     bool
	DebugDir     string
	PollInterval time.Duration
	PollCycles   int
	// ProbeTimeout raises every candidate timeout to at least this value
	ProbeTimeout time.Duration
	// Acknowledge blocks until the operator confirms. Only used in visible mode.
	Acknowledge func(ctx context.Context) error
}

// OptionsFromConfig maps the notebook section of the config
func OptionsFromConfig(cfg *config.NotebookConfig) Options {
	return Options{
		Name:         cfg.Name,
		BaseURL:      cfg.BaseURL,
		Headless:     cfg.Headless,
		DebugDir:     cfg.DebugDir,
		PollInterval: time.Duration(cfg.PollSeconds) * time.Second,
		PollCycles:   cfg.PollCycles,
		ProbeTimeout: time.Duration(cfg.ProbeTimeout) * time.Second,
	}
}

// Driver walks the notebook application through connect, reset, create,
// add sources and guide panel. Every step logs and converts its failure into a
// negative result; nothing propagates out of Run.
type Driver struct {
	page  Page
	menus MenuFinder
	opts  Options
	log   *slog.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

func NewDriver(page Page, opts Options, logger *slog.Logger) *Driver {
	if opts.DebugDir == "" {
		opts.DebugDir = "."
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.PollCycles <= 0 {
		opts.PollCycles = 24
	}
	return &Driver{
		page:  page,
		menus: NewAncestorMenuFinder(),
		opts:  opts,
		log:   logger,
		sleep: sleepContext,
	}
}

// SetMenuFinder swaps the workspace menu discovery strategy
func (d *Driver) SetMenuFinder(m MenuFinder) {
	d.menus = m
}

// Run executes the whole workflow for urls. success is true iff at least one
// source was added.
func (d *Driver) Run(ctx context.Context, urls []string) (result *models.RunResult) {
	result = &models.RunResult{}

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Automation panicked", "panic", r)
			result.Success = false
			result.Error = fmt.Sprintf("automation panicked: %v", r)
		}
	}()

	if err := d.Connect(ctx); err != nil {
		d.log.Error("Failed to connect to notebook application", "error", err)
		d.snapshot(ctx, "connect")
		result.Error = err.Error()
		return result
	}

	if err := d.ResetWorkspace(ctx); err != nil {
		d.log.Warn("Failed to reset workspace, continuing", "name", d.opts.Name, "error", err)
	}

	if err := d.CreateWorkspace(ctx); err != nil {
		d.log.Error("Failed to create workspace", "name", d.opts.Name, "error", err)
		result.Error = err.Error()
		return result
	}
	result.NotebookURL = d.currentURL(ctx)

	report := d.AddSources(ctx, urls)
	result.SourcesAdded = report.Added
	result.SourcesOutcome = report.Outcome
	if report.Added == 0 {
		d.log.Warn("No sources were added, skipping guide panel")
		result.Error = fmt.Sprintf("no sources added (%s)", report.Outcome)
		return result
	}

	result.AudioGenerated = true
	result.GuidePanelOpened = d.OpenGuidePanel(ctx)
	if !result.GuidePanelOpened {
		d.log.Warn("Guide panel did not open, check the notebook manually", "url", result.NotebookURL)
	}

	d.log.Info("Automation finished, start audio generation from the guide panel",
		"sources_added", report.Added, "outcome", report.Outcome)

	if !d.opts.Headless && d.opts.Acknowledge != nil {
		if err := d.opts.Acknowledge(ctx); err != nil {
			d.log.Warn("Acknowledgement interrupted", "error", err)
		}
	}

	if url := d.currentURL(ctx); url != "" {
		result.NotebookURL = url
	}
	result.Success = result.SourcesAdded > 0
	return result
}

// Connect opens the application root and fails with ErrNotAuthenticated when
// the session has no valid credentials.
func (d *Driver) Connect(ctx context.Context) error {
	d.log.Info("Connecting to notebook application", "url", d.opts.BaseURL)
	if err := d.navigate(ctx); err != nil {
		return err
	}

	url, err := d.page.URL(ctx)
	if err != nil {
		return fmt.Errorf("failed to read page URL: %w", err)
	}
	if strings.Contains(url, signInHost) {
		return fmt.Errorf("%w (run authctl setup or restore)", ErrNotAuthenticated)
	}

	d.log.Info("Connected to notebook application")
	return nil
}

// ResetWorkspace deletes the workspace with the configured name. A missing
// workspace is not an error.
func (d *Driver) ResetWorkspace(ctx context.Context) error {
	if err := d.navigate(ctx); err != nil {
		return err
	}

	trigger, found, err := d.menus.FindMenuTrigger(ctx, d.page, d.opts.Name)
	if err != nil {
		return err
	}
	if !found {
		d.log.Info("No existing workspace to delete", "name", d.opts.Name)
		return nil
	}

	d.log.Info("Deleting existing workspace", "name", d.opts.Name)
	clickCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	err = d.page.Click(clickCtx, trigger)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to open workspace menu: %w", err)
	}
	d.wait(ctx, time.Second)

	if err := d.click(ctx, deleteMenuProbe); err != nil {
		return fmt.Errorf("failed to choose delete: %w", err)
	}
	d.wait(ctx, time.Second)

	if err := d.click(ctx, deleteConfirmProbe); err != nil {
		return fmt.Errorf("failed to confirm delete: %w", err)
	}
	d.wait(ctx, 3*time.Second)

	d.log.Info("Deleted existing workspace", "name", d.opts.Name)
	return nil
}

// CreateWorkspace creates a fresh workspace and renames it. A missing title
// field leaves the default name and is not fatal.
func (d *Driver) CreateWorkspace(ctx context.Context) error {
	d.log.Info("Creating workspace", "name", d.opts.Name)
	if err := d.click(ctx, createNotebookProbe); err != nil {
		return fmt.Errorf("failed to find create control: %w", err)
	}
	d.wait(ctx, 3*time.Second)
	d.dismissOverlay(ctx)

	if err := d.rename(ctx); err != nil {
		d.log.Warn("Failed to rename workspace, keeping default name", "error", err)
		return nil
	}
	d.log.Info("Created workspace", "name", d.opts.Name)
	return nil
}

func (d *Driver) rename(ctx context.Context) error {
	if _, err := titleFieldProbe.WithMinimum(d.opts.ProbeTimeout).Click(ctx, d.page); err != nil {
		return err
	}

	keyCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()
	if err := d.page.SelectAll(keyCtx); err != nil {
		return fmt.Errorf("failed to select title: %w", err)
	}
	if err := d.page.Type(keyCtx, d.opts.Name); err != nil {
		return fmt.Errorf("failed to type title: %w", err)
	}
	if err := d.page.Press(keyCtx, KeyEnter); err != nil {
		return fmt.Errorf("failed to confirm title: %w", err)
	}
	d.wait(ctx, time.Second)
	return nil
}

// AddSources submits every URL in one batch and polls for the insertion dialog
// to close. Exhausting the poll without a close or an error is reported as
// unconfirmed with every URL counted as added.
func (d *Driver) AddSources(ctx context.Context, urls []string) models.SourceReport {
	if len(urls) == 0 {
		return models.SourceReport{Outcome: models.SourcesFailed}
	}
	d.log.Info("Adding sources", "count", len(urls))

	d.dismissOverlay(ctx)
	d.wait(ctx, time.Second)

	if err := d.click(ctx, addSourceProbe); err != nil {
		return d.sourcesFailed("add source control not found", err)
	}
	d.wait(ctx, 2*time.Second)

	if err := d.click(ctx, websiteOptionProbe); err != nil {
		d.dismissOverlay(ctx)
		return d.sourcesFailed("website option not found", err)
	}
	d.wait(ctx, 2*time.Second)

	if err := d.fill(ctx, urlInputProbe, strings.Join(urls, "\n")); err != nil {
		d.dismissOverlay(ctx)
		return d.sourcesFailed("URL field not found", err)
	}
	d.log.Info("Entered source URLs", "count", len(urls))
	d.wait(ctx, time.Second)

	if err := d.click(ctx, insertProbe); err != nil {
		d.dismissOverlay(ctx)
		return d.sourcesFailed("insert button not found", err)
	}

	return d.pollInsertion(ctx, len(urls))
}

func (d *Driver) pollInsertion(ctx context.Context, count int) models.SourceReport {
	d.log.Info("Waiting for sources to be processed", "count", count,
		"timeout", time.Duration(d.opts.PollCycles)*d.opts.PollInterval)

	var elapsed time.Duration
	for cycle := 0; cycle < d.opts.PollCycles; cycle++ {
		if err := d.sleep(ctx, d.opts.PollInterval); err != nil {
			d.log.Warn("Source polling interrupted", "elapsed", elapsed, "error", err)
			return models.SourceReport{Outcome: models.SourcesUnconfirmed, Elapsed: elapsed}
		}
		elapsed += d.opts.PollInterval

		open, err := d.exists(ctx, addSourcesOverlay)
		if err == nil && !open {
			d.log.Info("Sources processed", "count", count, "elapsed", elapsed)
			return models.SourceReport{Outcome: models.SourcesConfirmed, Added: count, Elapsed: elapsed}
		}

		if d.anyExists(ctx, overlayErrors) {
			d.log.Warn("Source dialog reported an error", "elapsed", elapsed)
			d.snapshot(ctx, "source_error")
			d.dismissOverlay(ctx)
			return models.SourceReport{Outcome: models.SourcesFailed, Elapsed: elapsed}
		}

		if elapsed%(15*time.Second) == 0 {
			d.log.Info("Still waiting for sources", "elapsed", elapsed)
		}
	}

	d.log.Warn("Source processing not confirmed before timeout, assuming success",
		"count", count, "elapsed", elapsed)
	return models.SourceReport{Outcome: models.SourcesUnconfirmed, Added: count, Elapsed: elapsed}
}

func (d *Driver) sourcesFailed(reason string, err error) models.SourceReport {
	d.log.Error("Failed to add sources", "reason", reason, "error", err)
	return models.SourceReport{Outcome: models.SourcesFailed}
}

// OpenGuidePanel reveals the guide panel and reports whether its audio
// section rendered.
func (d *Driver) OpenGuidePanel(ctx context.Context) bool {
	d.log.Info("Opening guide panel")
	if err := d.click(ctx, guideToggleProbe); err != nil {
		d.log.Warn("Guide panel toggle not found, checking panel content anyway", "error", err)
	}

	for _, p := range audioTextProbes {
		if _, err := p.WithMinimum(d.opts.ProbeTimeout).WaitVisible(ctx, d.page); err == nil {
			d.log.Info("Guide panel opened", "probe", p.Name)
			return true
		}
	}

	d.snapshot(ctx, "guide_panel_content")
	return false
}

func (d *Driver) navigate(ctx context.Context) error {
	navCtx, cancel := context.WithTimeout(ctx, navigateTimeout)
	defer cancel()
	if err := d.page.Navigate(navCtx, d.opts.BaseURL); err != nil {
		return fmt.Errorf("failed to open %s: %w", d.opts.BaseURL, err)
	}
	d.wait(ctx, 3*time.Second)
	return nil
}

// dismissOverlay closes a transient dialog: Escape first, then a forced click
// on the backdrop if one is still there. Failures are ignored.
func (d *Driver) dismissOverlay(ctx context.Context) {
	keyCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	if err := d.page.Press(keyCtx, KeyEscape); err != nil {
		d.log.Debug("Escape press failed", "error", err)
	}
	d.wait(ctx, time.Second)

	present, err := d.exists(ctx, overlayBackdrop)
	if err != nil || !present {
		return
	}
	if err := d.page.ForceClick(keyCtx, overlayBackdrop.Selector()); err != nil {
		d.log.Debug("Backdrop click failed", "error", err)
		return
	}
	d.wait(ctx, 500*time.Millisecond)
}

func (d *Driver) click(ctx context.Context, p Probe) error {
	p = p.WithMinimum(d.opts.ProbeTimeout)
	loc, err := p.Click(ctx, d.page)
	return d.afterProbe(ctx, p, loc, err, 300*time.Millisecond, 700*time.Millisecond)
}

func (d *Driver) fill(ctx context.Context, p Probe, text string) error {
	p = p.WithMinimum(d.opts.ProbeTimeout)
	loc, err := p.Fill(ctx, d.page, text)
	return d.afterProbe(ctx, p, loc, err, 200*time.Millisecond, 400*time.Millisecond)
}

func (d *Driver) afterProbe(ctx context.Context, p Probe, loc Locator, err error, lo, hi time.Duration) error {
	if err != nil {
		if errors.Is(err, ErrProbeExhausted) {
			d.snapshot(ctx, p.Name)
		}
		return err
	}
	d.log.Debug("Probe matched", "probe", p.Name, "selector", loc.Selector().String())
	d.wait(ctx, jitter(lo, hi))
	return nil
}

func (d *Driver) exists(ctx context.Context, l Locator) (bool, error) {
	checkCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()
	return d.page.Exists(checkCtx, l.Selector())
}

func (d *Driver) anyExists(ctx context.Context, locators []Locator) bool {
	for _, l := range locators {
		if ok, err := d.exists(ctx, l); err == nil && ok {
			return true
		}
	}
	return false
}

func (d *Driver) currentURL(ctx context.Context) string {
	url, err := d.page.URL(ctx)
	if err != nil {
		d.log.Warn("Failed to read page URL", "error", err)
		return ""
	}
	return url
}

// wait pauses between actions. Interruption surfaces on the next page call.
func (d *Driver) wait(ctx context.Context, dur time.Duration) {
	_ = d.sleep(ctx, dur)
}

func jitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
