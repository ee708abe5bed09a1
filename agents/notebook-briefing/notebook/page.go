package notebook

import "context"

// SelectorKind tells a Page how to interpret a selector expression
type SelectorKind int

const (
	CSS SelectorKind = iota
	XPath
)

func (k SelectorKind) String() string {
	if k == XPath {
		return "xpath"
	}
	return "css"
}

// Selector is a compiled locator the page can query
type Selector struct {
	Expr string
	Kind SelectorKind
}

func (s Selector) String() string {
	return s.Kind.String() + ":" + s.Expr
}

// Keys accepted by Page.Press
const (
	KeyEscape = "Escape"
	KeyEnter  = "Enter"
)

// Page is the browser surface the driver works against. Every blocking call
// honours the deadline of the context it receives.
type Page interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)

	Click(ctx context.Context, sel Selector) error
	// ForceClick dispatches a click without waiting for visibility
	ForceClick(ctx context.Context, sel Selector) error
	// Fill replaces the value of a text field
	Fill(ctx context.Context, sel Selector, text string) error
	WaitVisible(ctx context.Context, sel Selector) error
	Exists(ctx context.Context, sel Selector) (bool, error)

	Press(ctx context.Context, key string) error
	SelectAll(ctx context.Context) error
	Type(ctx context.Context, text string) error

	// Evaluate runs a script and decodes its result into out
	Evaluate(ctx context.Context, script string, out any) error
	HTML(ctx context.Context) (string, error)
}
