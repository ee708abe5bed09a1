package notebook

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrProbeExhausted is returned when no candidate of a probe matched
var ErrProbeExhausted = errors.New("no selector candidate matched")

// DefaultProbeTimeout bounds each candidate attempt when a probe sets none
const DefaultProbeTimeout = 3 * time.Second

// Probe is an ordered list of locators for the same logical element across UI
// variants. Each candidate gets its own timeout and the first success wins.
type Probe struct {
	Name       string
	Candidates []Locator
	Timeout    time.Duration
}

func (p Probe) Click(ctx context.Context, page Page) (Locator, error) {
	return p.try(ctx, func(ctx context.Context, sel Selector) error {
		return page.Click(ctx, sel)
	})
}

func (p Probe) Fill(ctx context.Context, page Page, text string) (Locator, error) {
	return p.try(ctx, func(ctx context.Context, sel Selector) error {
		return page.Fill(ctx, sel, text)
	})
}

func (p Probe) WaitVisible(ctx context.Context, page Page) (Locator, error) {
	return p.try(ctx, func(ctx context.Context, sel Selector) error {
		return page.WaitVisible(ctx, sel)
	})
}

// WithMinimum returns a copy of p whose per-candidate timeout is at least d
func (p Probe) WithMinimum(d time.Duration) Probe {
	if p.Timeout < d {
		p.Timeout = d
	}
	return p
}

func (p Probe) try(ctx context.Context, action func(context.Context, Selector) error) (Locator, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	var lastErr error
	for _, candidate := range p.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err := action(attemptCtx, candidate.Selector())
		cancel()
		if err == nil {
			return candidate, nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %s (last error: %v)", ErrProbeExhausted, p.Name, lastErr)
	}
	return nil, fmt.Errorf("%w: %s", ErrProbeExhausted, p.Name)
}
