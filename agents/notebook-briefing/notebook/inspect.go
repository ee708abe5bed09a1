package notebook

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Control is one interactive element found in a page snapshot
type Control struct {
	Tag             string
	Text            string
	AriaLabel       string
	Class           string
	Type            string
	Placeholder     string
	FormControlName string
}

// SnapshotReport summarizes a debug snapshot for selector maintenance
type SnapshotReport struct {
	Controls []Control
	Inputs   []Control
	Hints    []string
}

const (
	clickableSelector = `button, [role="button"], .mat-mdc-button, .mat-mdc-card, mat-card, .create-new-button, project-button`
	inputSelector     = `input:not([type="hidden"]), textarea`
	hintSelector      = `audio-overview, notebook-guide, [class*="audio"], [class*="guide"], [class*="studio"]`
	maxTextLen        = 80
)

var hintKeywords = []string{"오디오", "Audio", "가이드", "guide", "스튜디오", "Studio"}

// InspectSnapshot lists the clickable controls, text inputs and audio or
// guide related elements of a saved page.
func InspectSnapshot(r io.Reader) (*SnapshotReport, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	report := &SnapshotReport{}

	doc.Find(clickableSelector).Each(func(_ int, s *goquery.Selection) {
		// nested matches such as a mat-card inside a role=button wrapper are reported once
		if s.ParentsFiltered(clickableSelector).Length() > 0 && goquery.NodeName(s) != "button" {
			return
		}
		report.Controls = append(report.Controls, control(s))
	})

	doc.Find(inputSelector).Each(func(_ int, s *goquery.Selection) {
		report.Inputs = append(report.Inputs, control(s))
	})

	seen := make(map[string]bool)
	addHint := func(h string) {
		if h != "" && !seen[h] {
			seen[h] = true
			report.Hints = append(report.Hints, h)
		}
	}
	doc.Find(hintSelector).Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		addHint(fmt.Sprintf("<%s class=%q> %s", goquery.NodeName(s), class, clip(s.Text())))
	})
	doc.Find("button, h1, h2, h3, span").Each(func(_ int, s *goquery.Selection) {
		text := clip(s.Text())
		for _, kw := range hintKeywords {
			if strings.Contains(text, kw) {
				addHint(fmt.Sprintf("<%s> %s", goquery.NodeName(s), text))
				return
			}
		}
	})

	return report, nil
}

func control(s *goquery.Selection) Control {
	c := Control{Tag: goquery.NodeName(s), Text: clip(s.Text())}
	c.AriaLabel, _ = s.Attr("aria-label")
	c.Class, _ = s.Attr("class")
	c.Type, _ = s.Attr("type")
	c.Placeholder, _ = s.Attr("placeholder")
	c.FormControlName, _ = s.Attr("formcontrolname")
	return c
}

func clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxTextLen {
		return string(r[:maxTextLen]) + "..."
	}
	return s
}

// Write prints the report in a plain, greppable layout
func (r *SnapshotReport) Write(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Controls (%d)\n", len(r.Controls))
	for i, c := range r.Controls {
		fmt.Fprintf(&b, "  %3d. <%s> text=%q aria=%q class=%q\n", i+1, c.Tag, c.Text, c.AriaLabel, c.Class)
	}

	fmt.Fprintf(&b, "\nInputs (%d)\n", len(r.Inputs))
	for i, c := range r.Inputs {
		fmt.Fprintf(&b, "  %3d. <%s> type=%q placeholder=%q aria=%q formcontrolname=%q\n",
			i+1, c.Tag, c.Type, c.Placeholder, c.AriaLabel, c.FormControlName)
	}

	fmt.Fprintf(&b, "\nAudio and guide hints (%d)\n", len(r.Hints))
	for _, h := range r.Hints {
		fmt.Fprintf(&b, "  - %s\n", h)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
