package notebook

import "time"

// The target application is localized; every probe lists the Korean and
// English variants together with markup fallbacks. Probe names double as the
// debug snapshot names.

var createNotebookProbe = Probe{
	Name:    "create_notebook",
	Timeout: 5 * time.Second,
	Candidates: []Locator{
		ByCSS{Expr: ".create-new-action-button"},
		ByCSS{Expr: ".create-new-button"},
		ByText{Tag: "button", Text: "새 노트북"},
		ByText{Tag: "button", Text: "New notebook"},
		ByText{Tag: "button", Text: "새로 만들기"},
		ByAttr{Tag: "button", Attr: "aria-label", Value: "노트북 만들기"},
	},
}

var titleFieldProbe = Probe{
	Name:    "title_input",
	Timeout: 5 * time.Second,
	Candidates: []Locator{
		ByCSS{Expr: "input.title-input"},
		ByCSS{Expr: ".notebook-title"},
		ByAttr{Attr: "contenteditable", Value: "true"},
	},
}

var addSourceProbe = Probe{
	Name:    "add_source_btn",
	Timeout: 8 * time.Second,
	Candidates: []Locator{
		ByAttr{Attr: "aria-label", Value: "소스 추가"},
		ByAttr{Attr: "aria-label", Value: "Add source"},
		ByText{Tag: "button", Text: "소스 추가"},
		ByText{Tag: "button", Text: "Add source"},
		ByRole{Role: "button", Name: "add"},
	},
}

var websiteOptionProbe = Probe{
	Name:    "source_type",
	Timeout: 5 * time.Second,
	Candidates: []Locator{
		ByText{Text: "웹사이트"},
		ByText{Text: "Website"},
		ByAttr{Attr: "data-value", Value: "WEBSITE"},
		ByText{Text: "YouTube"},
	},
}

var urlInputProbe = Probe{
	Name:    "url_input",
	Timeout: 8 * time.Second,
	Candidates: []Locator{
		ByAttr{Tag: "textarea", Attr: "formcontrolname", Value: "urls"},
		ByAttr{Tag: "textarea", Attr: "aria-label", Value: "URL 입력"},
		ByAttr{Tag: "textarea", Attr: "placeholder", Value: "붙여넣", Op: AttrContains},
		ByAttr{Tag: "textarea", Attr: "placeholder", Value: "aste", Op: AttrContains},
		ByAttr{Tag: "textarea", Attr: "placeholder", Value: "ink", Op: AttrContains},
		ByCSS{Expr: ".cdk-overlay-pane textarea"},
		ByCSS{Expr: "mat-dialog-container textarea"},
		ByCSS{Expr: "add-sources-dialog textarea"},
		ByCSS{Expr: "textarea.mat-mdc-input-element"},
		ByCSS{Expr: "textarea[matinput]"},
	},
}

var insertProbe = Probe{
	Name:    "insert_btn",
	Timeout: 5 * time.Second,
	Candidates: []Locator{
		ByText{Tag: "button", Text: "삽입"},
		ByText{Tag: "button", Text: "Insert"},
		ByText{Tag: "button", Text: "제출"},
		ByText{Tag: "button", Text: "Submit"},
		ByText{Tag: "button", Text: "추가"},
		ByText{Tag: "button", Text: "Add"},
		ByCSS{Expr: ".cdk-overlay-pane button.mat-primary"},
		ByCSS{Expr: ".cdk-overlay-pane button.mat-accent"},
		ByCSS{Expr: "mat-dialog-container button.mat-primary"},
	},
}

var guideToggleProbe = Probe{
	Name:    "guide_panel",
	Timeout: 3 * time.Second,
	Candidates: []Locator{
		ByText{Tag: "button", Text: "tune"},
		ByAttr{Tag: "button", Attr: "aria-label", Value: "노트북 가이드"},
		ByAttr{Tag: "button", Attr: "aria-label", Value: "Notebook guide"},
		ByCSS{Expr: ".notebook-guide-toggle"},
		ByText{Tag: "button", Text: "노트북 가이드"},
		ByAttr{Tag: "button", Attr: "aria-label", Value: "스튜디오"},
		ByText{Tag: "button", Text: "스튜디오"},
	},
}

var audioTextProbes = []Probe{
	{Name: "guide_audio_ko", Timeout: 5 * time.Second, Candidates: []Locator{ByText{Text: "오디오"}}},
	{Name: "guide_audio_en", Timeout: 3 * time.Second, Candidates: []Locator{ByText{Text: "Audio"}}},
}

var deleteMenuProbe = Probe{
	Name:    "delete_menu",
	Timeout: 3 * time.Second,
	Candidates: []Locator{
		ByText{Text: "Delete"},
		ByText{Text: "삭제"},
		ByText{Tag: "button", Text: "Delete"},
		ByText{Tag: "button", Text: "삭제"},
	},
}

var deleteConfirmProbe = Probe{
	Name:    "delete_confirm",
	Timeout: 3 * time.Second,
	Candidates: []Locator{
		ByText{Within: "//dialog", Tag: "button", Text: "Delete"},
		ByText{Within: "//dialog", Tag: "button", Text: "삭제"},
		ByText{Within: "//mat-dialog-container", Tag: "button", Text: "Delete"},
		ByText{Within: "//mat-dialog-container", Tag: "button", Text: "삭제"},
	},
}

const overlayPane = "//*[contains(concat(' ', normalize-space(@class), ' '), ' cdk-overlay-pane ')]"

var (
	overlayBackdrop   = ByCSS{Expr: ".cdk-overlay-backdrop"}
	addSourcesOverlay = ByCSS{Expr: ".cdk-overlay-pane:has(add-sources-dialog)"}
	overlayErrors     = []Locator{
		ByText{Within: overlayPane, Text: "오류"},
		ByText{Within: overlayPane, Text: "Error"},
	}
)
