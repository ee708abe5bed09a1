package notebook

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

var errNoElement = errors.New("no element matches selector")

// fakePage is a scripted Page keyed by selector expression
type fakePage struct {
	mu sync.Mutex

	url       string
	landing   string
	clickable map[string]bool
	fillable  map[string]bool
	visible   map[string]bool
	exists    map[string]func() bool
	onClick   map[string]func(*fakePage)
	evaluate  func(script string) (any, error)
	html      string
	panicOn   string

	clicks      []string
	forceClicks []string
	fills       map[string]string
	typed       []string
	presses     []string
	selectAlls  int
}

func newFakePage() *fakePage {
	return &fakePage{
		landing:   "https://notebooklm.google.com/",
		clickable: make(map[string]bool),
		fillable:  make(map[string]bool),
		visible:   make(map[string]bool),
		exists:    make(map[string]func() bool),
		onClick:   make(map[string]func(*fakePage)),
		fills:     make(map[string]string),
		html:      "<html><body>snapshot</body></html>",
	}
}

func (f *fakePage) allowClick(l Locator) { f.clickable[l.Selector().Expr] = true }
func (f *fakePage) allowFill(l Locator)  { f.fillable[l.Selector().Expr] = true }
func (f *fakePage) show(l Locator)       { f.visible[l.Selector().Expr] = true }

func (f *fakePage) present(l Locator, fn func() bool) {
	f.exists[l.Selector().Expr] = fn
}

func (f *fakePage) check(op string) {
	if f.panicOn == op {
		panic("fake page failure in " + op)
	}
}

func (f *fakePage) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.check("navigate")
	f.url = f.landing
	return nil
}

func (f *fakePage) URL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.check("url")
	return f.url, nil
}

func (f *fakePage) Click(ctx context.Context, sel Selector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.check("click")
	if !f.clickable[sel.Expr] {
		return errNoElement
	}
	f.clicks = append(f.clicks, sel.Expr)
	if fn := f.onClick[sel.Expr]; fn != nil {
		fn(f)
	}
	return nil
}

func (f *fakePage) ForceClick(ctx context.Context, sel Selector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forceClicks = append(f.forceClicks, sel.Expr)
	return nil
}

func (f *fakePage) Fill(ctx context.Context, sel Selector, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.fillable[sel.Expr] {
		return errNoElement
	}
	f.fills[sel.Expr] = text
	return nil
}

func (f *fakePage) WaitVisible(ctx context.Context, sel Selector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.visible[sel.Expr] {
		return errNoElement
	}
	return nil
}

func (f *fakePage) Exists(ctx context.Context, sel Selector) (bool, error) {
	f.mu.Lock()
	fn := f.exists[sel.Expr]
	f.mu.Unlock()
	if fn == nil {
		return false, nil
	}
	return fn(), nil
}

func (f *fakePage) Press(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presses = append(f.presses, key)
	return nil
}

func (f *fakePage) SelectAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectAlls++
	return nil
}

func (f *fakePage) Type(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed = append(f.typed, text)
	return nil
}

func (f *fakePage) Evaluate(ctx context.Context, script string, out any) error {
	if f.evaluate == nil {
		return errors.New("evaluate not scripted")
	}
	v, err := f.evaluate(script)
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (f *fakePage) HTML(ctx context.Context) (string, error) {
	return f.html, nil
}

func (f *fakePage) clicked(l Locator) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.clicks {
		if c == l.Selector().Expr {
			return true
		}
	}
	return false
}

// fakeMenuFinder returns a fixed answer and records the name it was asked for
type fakeMenuFinder struct {
	sel   Selector
	found bool
	err   error
	asked []string
}

func (m *fakeMenuFinder) FindMenuTrigger(ctx context.Context, page Page, name string) (Selector, bool, error) {
	m.asked = append(m.asked, name)
	return m.sel, m.found, m.err
}
