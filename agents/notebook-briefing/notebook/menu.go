package notebook

import (
	"context"
	"fmt"
	"strconv"
)

// MenuFinder locates the options trigger of the workspace named name on the
// workspace list. found is false when no workspace matches.
type MenuFinder interface {
	FindMenuTrigger(ctx context.Context, page Page, name string) (sel Selector, found bool, err error)
}

const (
	workspaceTitles    = `.notebook-title, .title, a[href*="notebook"] .name`
	workspaceCards     = `a, div[role="button"], .notebook-card, mat-card, project-button`
	menuTriggers       = `button[aria-label*="option"], button[aria-label*="옵션"], button .mat-icon`
	menuTargetAttr     = "data-briefing-target"
	menuTargetValue    = "workspace-menu"
	listTitlesScript   = `Array.from(document.querySelectorAll(%s)).map((el) => {
	const r = el.getBoundingClientRect();
	const style = window.getComputedStyle(el);
	const visible = r.width > 0 && r.height > 0 && style.visibility !== "hidden" && style.display !== "none";
	return visible ? (el.innerText || "").trim() : "";
})`
	markTriggerScript = `(() => {
	document.querySelectorAll("[%[4]s]").forEach((el) => el.removeAttribute(%[4]q));
	const title = document.querySelectorAll(%[1]s)[%[2]d];
	if (!title) return false;
	const card = title.closest(%[3]s);
	if (!card) return false;
	const trigger = card.querySelector(%[5]s);
	if (!trigger) return false;
	trigger.setAttribute(%[4]q, %[6]q);
	return true;
})()`
)

// ancestorMenuFinder walks from the matching title element up to the nearest
// card container and tags the first options trigger inside it, so that the
// driver can click it through an ordinary selector.
type ancestorMenuFinder struct{}

// NewAncestorMenuFinder returns the default MenuFinder
func NewAncestorMenuFinder() MenuFinder {
	return ancestorMenuFinder{}
}

func (ancestorMenuFinder) FindMenuTrigger(ctx context.Context, page Page, name string) (Selector, bool, error) {
	var titles []string
	if err := page.Evaluate(ctx, fmt.Sprintf(listTitlesScript, strconv.Quote(workspaceTitles)), &titles); err != nil {
		return Selector{}, false, fmt.Errorf("failed to list workspace titles: %w", err)
	}

	index := -1
	for i, title := range titles {
		if MatchesWorkspaceName(title, name) {
			index = i
			break
		}
	}
	if index < 0 {
		return Selector{}, false, nil
	}

	var marked bool
	script := fmt.Sprintf(markTriggerScript,
		strconv.Quote(workspaceTitles), index, strconv.Quote(workspaceCards),
		menuTargetAttr, strconv.Quote(menuTriggers), menuTargetValue)
	if err := page.Evaluate(ctx, script, &marked); err != nil {
		return Selector{}, false, fmt.Errorf("failed to mark workspace menu: %w", err)
	}
	if !marked {
		return Selector{}, false, fmt.Errorf("workspace %q has no options trigger", name)
	}

	return ByAttr{Attr: menuTargetAttr, Value: menuTargetValue}.Selector(), true, nil
}
