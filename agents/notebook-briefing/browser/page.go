package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"podcast-agent/agents/notebook-briefing/notebook"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

var errElementNotFound = errors.New("element not found")

// chromePage implements notebook.Page on a chromedp tab
type chromePage struct {
	ctx context.Context
}

// run executes actions on the tab, bounded by the caller's deadline and
// cancelled together with the caller's context.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if dl, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(p.ctx, dl)
	} else {
		runCtx, cancel = context.WithCancel(p.ctx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func queryOptions(sel notebook.Selector, extra ...chromedp.QueryOption) []chromedp.QueryOption {
	by := chromedp.ByQuery
	if sel.Kind == notebook.XPath {
		by = chromedp.BySearch
	}
	return append([]chromedp.QueryOption{by}, extra...)
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *chromePage) URL(ctx context.Context) (string, error) {
	var url string
	err := p.run(ctx, chromedp.Location(&url))
	return url, err
}

func (p *chromePage) Click(ctx context.Context, sel notebook.Selector) error {
	return p.run(ctx, chromedp.Click(sel.Expr, queryOptions(sel, chromedp.NodeVisible)...))
}

func (p *chromePage) ForceClick(ctx context.Context, sel notebook.Selector) error {
	script := fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) return false;
	el.click();
	return true;
})()`, jsLookup(sel))

	var clicked bool
	if err := p.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("%w: %s", errElementNotFound, sel)
	}
	return nil
}

func (p *chromePage) Fill(ctx context.Context, sel notebook.Selector, text string) error {
	opts := queryOptions(sel, chromedp.NodeVisible)
	return p.run(ctx,
		chromedp.Click(sel.Expr, opts...),
		chromedp.SetValue(sel.Expr, "", opts...),
		chromedp.SendKeys(sel.Expr, text, opts...),
	)
}

func (p *chromePage) WaitVisible(ctx context.Context, sel notebook.Selector) error {
	return p.run(ctx, chromedp.WaitVisible(sel.Expr, queryOptions(sel)...))
}

func (p *chromePage) Exists(ctx context.Context, sel notebook.Selector) (bool, error) {
	var nodes []*cdp.Node
	if err := p.run(ctx, chromedp.Nodes(sel.Expr, &nodes, queryOptions(sel, chromedp.AtLeast(0))...)); err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

func (p *chromePage) Press(ctx context.Context, key string) error {
	switch key {
	case notebook.KeyEscape:
		key = kb.Escape
	case notebook.KeyEnter:
		key = kb.Enter
	}
	return p.run(ctx, chromedp.KeyEvent(key))
}

func (p *chromePage) SelectAll(ctx context.Context) error {
	return p.run(ctx, chromedp.KeyEvent("a", chromedp.KeyModifiers(input.ModifierCtrl)))
}

func (p *chromePage) Type(ctx context.Context, text string) error {
	return p.run(ctx, chromedp.KeyEvent(text))
}

func (p *chromePage) Evaluate(ctx context.Context, script string, out any) error {
	return p.run(ctx, chromedp.Evaluate(script, out))
}

func (p *chromePage) HTML(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// jsLookup returns a script expression resolving sel to its first element or null
func jsLookup(sel notebook.Selector) string {
	if sel.Kind == notebook.XPath {
		return fmt.Sprintf("document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue",
			strconv.Quote(sel.Expr))
	}
	return fmt.Sprintf("document.querySelector(%s)", strconv.Quote(sel.Expr))
}
