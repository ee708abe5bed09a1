package notebook

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MatchesWorkspaceName reports whether a visible workspace title equals the
// configured name, ignoring case and surrounding whitespace. It is an exact
// match: "Daily new 2" does not match "daily new".
func MatchesWorkspaceName(title, name string) bool {
	want := foldName(name)
	return want != "" && foldName(title) == want
}

func foldName(s string) string {
	// A Caser keeps state between calls, so each comparison gets its own
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}
