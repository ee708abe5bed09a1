package models

import "time"

// SourceOutcome describes how a bulk source insertion ended
type SourceOutcome string

const (
	// SourcesConfirmed means the insertion dialog closed on its own
	SourcesConfirmed SourceOutcome = "confirmed"
	// SourcesFailed means the dialog reported an error or a step could not be reached
	SourcesFailed SourceOutcome = "failed"
	// SourcesUnconfirmed means the poll ran out without a close or an error
	SourcesUnconfirmed SourceOutcome = "unconfirmed"
)

// SourceReport is the result of one bulk insertion attempt
type SourceReport struct {
	Outcome SourceOutcome `json:"outcome"`
	Added   int           `json:"added"`
	Elapsed time.Duration `json:"elapsed"`
}

// RunResult is persisted once per run to a dated file
type RunResult struct {
	RunID            string        `json:"run_id"`
	Success          bool          `json:"success"`
	NotebookURL      string        `json:"notebook_url"`
	SourcesAdded     int           `json:"sources_added"`
	SourcesOutcome   SourceOutcome `json:"sources_outcome,omitempty"`
	AudioGenerated   bool          `json:"audio_generated"`
	GuidePanelOpened bool          `json:"guide_panel_opened"`
	VideosFound      int           `json:"videos_found"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       time.Time     `json:"finished_at"`
	Error            string        `json:"error,omitempty"`
}
