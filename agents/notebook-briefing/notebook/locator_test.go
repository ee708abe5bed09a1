package notebook

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorSelectors(t *testing.T) {
	tests := []struct {
		name    string
		locator Locator
		want    Selector
	}{
		{
			"Text in button",
			ByText{Tag: "button", Text: "소스 추가"},
			Selector{Expr: "//button[contains(normalize-space(.), '소스 추가')]", Kind: XPath},
		},
		{
			"Text owner of any tag",
			ByText{Text: "Website"},
			Selector{Expr: "//*[text()[contains(normalize-space(.), 'Website')]]", Kind: XPath},
		},
		{
			"Text scoped to ancestor",
			ByText{Within: "//dialog", Tag: "button", Text: "삭제"},
			Selector{Expr: "//dialog//button[contains(normalize-space(.), '삭제')]", Kind: XPath},
		},
		{
			"Attribute equals",
			ByAttr{Tag: "textarea", Attr: "formcontrolname", Value: "urls"},
			Selector{Expr: `textarea[formcontrolname="urls"]`, Kind: CSS},
		},
		{
			"Attribute contains without tag",
			ByAttr{Attr: "aria-label", Value: "옵션", Op: AttrContains},
			Selector{Expr: `[aria-label*="옵션"]`, Kind: CSS},
		},
		{
			"Attribute prefix escapes quotes",
			ByAttr{Tag: "a", Attr: "title", Value: `say "hi"`, Op: AttrPrefix},
			Selector{Expr: `a[title^="say \"hi\""]`, Kind: CSS},
		},
		{
			"Role only",
			ByRole{Role: "dialog"},
			Selector{Expr: "//*[@role='dialog' or self::dialog or self::mat-dialog-container]", Kind: XPath},
		},
		{
			"Role with name",
			ByRole{Role: "button", Name: "Add"},
			Selector{Expr: "//*[@role='button' or self::button][contains(@aria-label, 'Add') or contains(normalize-space(.), 'Add')]", Kind: XPath},
		},
		{
			"Raw CSS",
			ByCSS{Expr: ".cdk-overlay-pane textarea"},
			Selector{Expr: ".cdk-overlay-pane textarea", Kind: CSS},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.locator.Selector())
		})
	}
}

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "'plain'"},
		{"it's", `"it's"`},
		{`say "it's"`, `concat('say "it', "'", 's"')`},
		{`'"`, `concat("'", '"')`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, xpathLiteral(tt.in))
		})
	}
}

func TestProbeFirstSuccessWins(t *testing.T) {
	page := newFakePage()
	second := ByText{Tag: "button", Text: "Insert"}
	third := ByText{Tag: "button", Text: "Submit"}
	page.allowClick(second)
	page.allowClick(third)

	p := Probe{Name: "insert", Candidates: []Locator{ByText{Tag: "button", Text: "삽입"}, second, third}}
	got, err := p.Click(context.Background(), page)

	require.NoError(t, err)
	assert.Equal(t, second, got)
	assert.Equal(t, []string{second.Selector().Expr}, page.clicks)
}

func TestProbeExhausted(t *testing.T) {
	p := Probe{Name: "url_input", Candidates: []Locator{ByCSS{Expr: "textarea"}, ByCSS{Expr: "input"}}}

	_, err := p.Fill(context.Background(), newFakePage(), "https://example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProbeExhausted)
	assert.Contains(t, err.Error(), "url_input")

	_, err = Probe{Name: "empty"}.WaitVisible(context.Background(), newFakePage())
	assert.ErrorIs(t, err, ErrProbeExhausted)
}

// deadlinePage records the deadline each attempt receives
type deadlinePage struct {
	*fakePage
	budgets []time.Duration
}

func (p *deadlinePage) WaitVisible(ctx context.Context, sel Selector) error {
	dl, ok := ctx.Deadline()
	if !ok {
		return errors.New("no deadline")
	}
	p.budgets = append(p.budgets, time.Until(dl))
	return errNoElement
}

func TestProbePerCandidateTimeout(t *testing.T) {
	page := &deadlinePage{fakePage: newFakePage()}
	p := Probe{Name: "audio", Timeout: 2 * time.Second, Candidates: []Locator{ByText{Text: "오디오"}, ByText{Text: "Audio"}}}

	_, err := p.WaitVisible(context.Background(), page)
	require.ErrorIs(t, err, ErrProbeExhausted)
	require.Len(t, page.budgets, 2)
	for _, b := range page.budgets {
		assert.InDelta(t, float64(2*time.Second), float64(b), float64(200*time.Millisecond))
	}

	raised := p.WithMinimum(4 * time.Second)
	assert.Equal(t, 4*time.Second, raised.Timeout)
	assert.Equal(t, 2*time.Second, p.WithMinimum(time.Second).Timeout)
}

func TestProbeStopsOnCanceledContext(t *testing.T) {
	page := newFakePage()
	page.allowClick(ByCSS{Expr: "button"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Probe{Name: "x", Candidates: []Locator{ByCSS{Expr: "button"}}}.Click(ctx, page)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, page.clicks)
}

func TestMatchesWorkspaceName(t *testing.T) {
	tests := []struct {
		title string
		name  string
		want  bool
	}{
		{"Daily new", "daily new", true},
		{"  DAILY NEW \n", "Daily new", true},
		{"Daily new 2", "daily new", false},
		{"My Daily new", "Daily new", false},
		{"Straße", "STRASSE", true},
		{"데일리 브리핑", "데일리 브리핑", true},
		// precomposed vs decomposed Hangul
		{"\uD55C", "\u1112\u1161\u11AB", true},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.title+"/"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesWorkspaceName(tt.title, tt.name))
		})
	}
}

func TestAncestorMenuFinder(t *testing.T) {
	t.Run("Marks trigger of matching title", func(t *testing.T) {
		page := newFakePage()
		var markScript string
		page.evaluate = func(script string) (any, error) {
			if strings.HasPrefix(script, "Array.from") {
				return []string{"", "Weekly recap", "daily NEW"}, nil
			}
			markScript = script
			return true, nil
		}

		sel, found, err := NewAncestorMenuFinder().FindMenuTrigger(context.Background(), page, "Daily new")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, Selector{Expr: `[data-briefing-target="workspace-menu"]`, Kind: CSS}, sel)
		assert.Contains(t, markScript, ")[2];")
		assert.Contains(t, markScript, `setAttribute("data-briefing-target", "workspace-menu")`)
	})

	t.Run("No match", func(t *testing.T) {
		page := newFakePage()
		page.evaluate = func(string) (any, error) {
			return []string{"Daily new 2"}, nil
		}

		_, found, err := NewAncestorMenuFinder().FindMenuTrigger(context.Background(), page, "Daily new")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Card without trigger", func(t *testing.T) {
		page := newFakePage()
		page.evaluate = func(script string) (any, error) {
			if strings.HasPrefix(script, "Array.from") {
				return []string{"Daily new"}, nil
			}
			return false, nil
		}

		_, found, err := NewAncestorMenuFinder().FindMenuTrigger(context.Background(), page, "Daily new")
		assert.Error(t, err)
		assert.False(t, found)
	})
}
