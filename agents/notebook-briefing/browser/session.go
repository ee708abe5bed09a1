package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"podcast-agent/agents/notebook-briefing/auth"
	"podcast-agent/agents/notebook-briefing/notebook"
	"podcast-agent/shared/config"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// lockFiles are left behind in the profile when Chrome dies without cleanup
var lockFiles = []string{"SingletonLock", "SingletonCookie", "SingletonSocket", "Lockfile"}

// Options configures a browser launch
type Options struct {
	ProfileDir string
	StateFile  string
	Headless   bool
	UserAgent  string
	ChromePath string
}

// OptionsFromConfig maps the browser section of the config
func OptionsFromConfig(cfg *config.BrowserConfig, headless bool) Options {
	return Options{
		ProfileDir: cfg.ProfileDir,
		StateFile:  cfg.StateFile,
		Headless:   headless,
		UserAgent:  cfg.UserAgent,
		ChromePath: cfg.ChromePath,
	}
}

// Session owns one Chrome process bound to a persistent profile
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	log         *slog.Logger
	closeOnce   sync.Once
	closeErr    error
}

// Launch starts Chrome and injects the saved session cookies. A missing or
// unreadable credential file is logged and the session starts unauthenticated.
func Launch(ctx context.Context, opts Options, logger *slog.Logger) (*Session, error) {
	if opts.ProfileDir != "" {
		if err := os.MkdirAll(opts.ProfileDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create profile directory: %w", err)
		}
		for _, name := range CleanStaleLocks(opts.ProfileDir) {
			logger.Info("Removed stale profile lock", "file", name)
		}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocatorOptions(opts)...)
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...), "source", "chromedp")
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...), "source", "chromedp")
		}),
	)

	s := &Session{ctx: browserCtx, cancel: cancel, allocCancel: allocCancel, log: logger}

	// the first Run starts the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	logger.Info("Browser started", "headless", opts.Headless, "profile", opts.ProfileDir)

	if opts.StateFile != "" {
		n, err := s.InjectState(ctx, opts.StateFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Info("No saved session, continuing unauthenticated", "path", opts.StateFile)
		case err != nil:
			logger.Warn("Failed to inject session cookies, continuing unauthenticated", "error", err)
		default:
			logger.Info("Injected session cookies", "count", n, "path", opts.StateFile)
		}
	}

	return s, nil
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	ua := opts.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}

	options := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("enable-automation", false),
		chromedp.NoSandbox,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.UserAgent(ua),
	)
	if opts.ProfileDir != "" {
		options = append(options, chromedp.UserDataDir(opts.ProfileDir))
	}
	if opts.ChromePath != "" {
		options = append(options, chromedp.ExecPath(opts.ChromePath))
	}
	return options
}

// CleanStaleLocks removes lock files left by a previous abnormal exit and
// returns the names it removed. Failures are ignored.
func CleanStaleLocks(profileDir string) []string {
	var removed []string
	for _, name := range lockFiles {
		path := filepath.Join(profileDir, name)
		// SingletonLock is a dangling symlink when the owning process is gone
		if _, err := os.Lstat(path); err != nil {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed = append(removed, name)
		}
	}
	return removed
}

// InjectState loads the credential file and sets its cookies in the browser
func (s *Session) InjectState(ctx context.Context, path string) (int, error) {
	state, err := auth.LoadState(path)
	if err != nil {
		return 0, err
	}

	if age, err := auth.StateAge(path, time.Now()); err == nil && auth.IsStale(age) {
		s.log.Warn("Saved session is old, login may be required", "age_hours", int(age.Hours()))
	}

	params := cookieParams(state.Cookies)
	if len(params) == 0 {
		return 0, nil
	}

	err = s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookies(params).Do(ctx)
	}))
	if err != nil {
		return 0, fmt.Errorf("failed to set cookies: %w", err)
	}
	return len(params), nil
}

// SaveState writes every cookie of the browser to path in the credential format
func (s *Session) SaveState(ctx context.Context, path string) (int, error) {
	var cookies []*network.Cookie
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return 0, fmt.Errorf("failed to read cookies: %w", err)
	}

	state := &auth.StorageState{Cookies: savedCookies(cookies), Origins: []json.RawMessage{}}
	if err := auth.SaveState(path, state); err != nil {
		return 0, err
	}
	return len(state.Cookies), nil
}

// WaitForURL polls the page location until it matches pattern
func (s *Session) WaitForURL(ctx context.Context, pattern *regexp.Regexp, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	page := s.Page()
	for {
		if url, err := page.URL(ctx); err == nil && pattern.MatchString(url) {
			return url, nil
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("timed out waiting for %s: %w", pattern, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Page returns the automation surface of the session's tab
func (s *Session) Page() notebook.Page {
	return &chromePage{ctx: s.ctx}
}

// Close terminates the browser. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancel()
		s.allocCancel()
		if s.closeErr != nil && !errors.Is(s.closeErr, context.Canceled) {
			s.log.Warn("Browser did not shut down cleanly", "error", s.closeErr)
		} else {
			s.closeErr = nil
			s.log.Info("Browser closed")
		}
	})
	return s.closeErr
}

func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	return (&chromePage{ctx: s.ctx}).run(ctx, actions...)
}
