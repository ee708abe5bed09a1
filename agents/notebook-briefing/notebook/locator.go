package notebook

import (
	"fmt"
	"strings"
)

// Locator describes one way of finding a logical element
type Locator interface {
	Selector() Selector
}

// ByText matches an element whose normalized text contains Text. With an empty
// Tag it matches the element that directly owns the text node. Within is an
// optional XPath path to an ancestor that scopes the match.
type ByText struct {
	Within string
	Tag    string
	Text   string
}

func (l ByText) Selector() Selector {
	lit := xpathLiteral(l.Text)
	prefix := "/"
	if l.Within != "" {
		prefix = l.Within + "/"
	}
	if l.Tag == "" {
		return Selector{Expr: fmt.Sprintf("%s/*[text()[contains(normalize-space(.), %s)]]", prefix, lit), Kind: XPath}
	}
	return Selector{Expr: fmt.Sprintf("%s/%s[contains(normalize-space(.), %s)]", prefix, l.Tag, lit), Kind: XPath}
}

// AttrOp is the attribute comparison used by ByAttr
type AttrOp string

const (
	AttrEquals   AttrOp = "="
	AttrContains AttrOp = "*="
	AttrPrefix   AttrOp = "^="
)

// ByAttr matches on an attribute value
type ByAttr struct {
	Tag   string
	Attr  string
	Value string
	Op    AttrOp
}

func (l ByAttr) Selector() Selector {
	op := l.Op
	if op == "" {
		op = AttrEquals
	}
	return Selector{Expr: fmt.Sprintf("%s[%s%s%s]", l.Tag, l.Attr, op, cssString(l.Value)), Kind: CSS}
}

var implicitRoles = map[string][]string{
	"button":   {"button"},
	"textbox":  {"textarea", "input"},
	"dialog":   {"dialog", "mat-dialog-container"},
	"menuitem": {"button"},
	"link":     {"a"},
}

// ByRole matches an element by ARIA role, explicit or implied by its tag, and
// optionally by accessible name taken from aria-label or text.
type ByRole struct {
	Role string
	Name string
}

func (l ByRole) Selector() Selector {
	roleTests := []string{"@role=" + xpathLiteral(l.Role)}
	for _, tag := range implicitRoles[l.Role] {
		roleTests = append(roleTests, "self::"+tag)
	}
	expr := "//*[" + strings.Join(roleTests, " or ") + "]"

	if l.Name != "" {
		name := xpathLiteral(l.Name)
		expr += fmt.Sprintf("[contains(@aria-label, %s) or contains(normalize-space(.), %s)]", name, name)
	}
	return Selector{Expr: expr, Kind: XPath}
}

// ByCSS passes a raw CSS selector through
type ByCSS struct {
	Expr string
}

func (l ByCSS) Selector() Selector {
	return Selector{Expr: l.Expr, Kind: CSS}
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
