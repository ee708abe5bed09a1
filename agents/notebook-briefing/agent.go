package notebookbriefing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"podcast-agent/agents/notebook-briefing/browser"
	"podcast-agent/agents/notebook-briefing/notebook"
	"podcast-agent/agents/notebook-briefing/youtube"
	"podcast-agent/internal/models"
	"podcast-agent/shared/config"
	"podcast-agent/shared/email"
	"podcast-agent/shared/scheduler"
	"podcast-agent/shared/storage"

	"github.com/google/uuid"
)

// ErrRunFailed is returned by RunOnce when no source made it into the notebook
var ErrRunFailed = errors.New("briefing run failed")

// VideoSource supplies the videos for one run
type VideoSource interface {
	CollectRecent(ctx context.Context) []models.VideoRecord
}

// Automator pushes video URLs into the notebook application
type Automator interface {
	Run(ctx context.Context, urls []string) *models.RunResult
}

// Notifier delivers the outcome email
type Notifier interface {
	Notify(n *email.Notification) error
}

// BriefingMetrics summarizes a run for the scheduler monitor
type BriefingMetrics struct {
	VideosFound    int                  `json:"videos_found"`
	SourcesAdded   int                  `json:"sources_added"`
	SourcesOutcome models.SourceOutcome `json:"sources_outcome"`
	GuideOpened    bool                 `json:"guide_opened"`
}

// GetSummary implements the scheduler.Metrics interface
func (m BriefingMetrics) GetSummary() string {
	if m.VideosFound == 0 {
		return "no new videos"
	}
	summary := fmt.Sprintf("found %d videos, added %d sources", m.VideosFound, m.SourcesAdded)
	if m.SourcesOutcome != "" {
		summary += fmt.Sprintf(" (%s)", m.SourcesOutcome)
	}
	if !m.GuideOpened {
		summary += ", guide panel not opened"
	}
	return summary
}

// BriefingAgent implements the scheduler.Agent interface
type BriefingAgent struct {
	config    *config.Config
	headless  bool
	videos    VideoSource
	automator Automator
	notifier  Notifier
	store     *storage.ResultStore
	log       *slog.Logger
	now       func() time.Time

	// Acknowledge is handed to the driver in visible mode
	Acknowledge func(ctx context.Context) error
}

func NewBriefingAgent(cfg *config.Config, logger *slog.Logger) *BriefingAgent {
	return &BriefingAgent{
		config:   cfg,
		headless: cfg.Notebook.Headless,
		log:      logger,
		now:      time.Now,
	}
}

func (b *BriefingAgent) Name() string {
	return "Notebook Briefing"
}

// SetHeadless overrides the configured browser visibility
func (b *BriefingAgent) SetHeadless(headless bool) {
	b.headless = headless
}

func (b *BriefingAgent) Initialize() error {
	b.log.Info("Initializing agent", "agent", b.Name())

	if b.store == nil {
		store, err := storage.NewResultStore(b.config.OutputDir)
		if err != nil {
			return fmt.Errorf("failed to create result store: %w", err)
		}
		b.store = store
	}

	if b.videos == nil {
		lookup := youtube.LookupFromConfig(context.Background(), &b.config.YouTube, b.log)
		b.videos = youtube.NewCollector(&b.config.YouTube, lookup, b.log)
		b.log.Info("Video collector initialized", "channels", len(b.config.YouTube.Channels))
	}

	if b.automator == nil {
		b.automator = &browserAutomator{
			config:      b.config,
			headless:    b.headless,
			acknowledge: b.Acknowledge,
			log:         b.log,
		}
	}

	if b.notifier == nil {
		b.notifier = email.NewSender(&b.config.Email, b.config.Timezone, b.log)
	}

	return nil
}

// RunOnce executes the pipeline and reports the outcome to events
func (b *BriefingAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	if err := b.Initialize(); err != nil {
		return err
	}

	result := b.Execute(ctx)
	duration := result.FinishedAt.Sub(result.StartedAt)

	if result.Success {
		if events != nil && events.OnSuccess != nil {
			events.OnSuccess(BriefingMetrics{
				VideosFound:    result.VideosFound,
				SourcesAdded:   result.SourcesAdded,
				SourcesOutcome: result.SourcesOutcome,
				GuideOpened:    result.GuidePanelOpened,
			}, duration)
		}
		if result.VideosFound > 0 && !result.GuidePanelOpened && events != nil && events.OnPartialFailure != nil {
			events.OnPartialFailure(fmt.Errorf("guide panel not opened for %s", result.NotebookURL), duration)
		}
		return nil
	}

	err := fmt.Errorf("%w: %s", ErrRunFailed, result.Error)
	if events != nil && events.OnCriticalFailure != nil {
		events.OnCriticalFailure(err, duration)
	}
	return err
}

// Execute runs collection, automation, notification and persistence once.
// It never returns nil.
func (b *BriefingAgent) Execute(ctx context.Context) *models.RunResult {
	// result files are dated in the configured zone
	started := b.now().In(b.config.Location())
	runID := uuid.NewString()
	log := b.log.With("run_id", runID)

	log.Info("Collecting recent videos", "channels", len(b.config.YouTube.Channels))
	videos := b.videos.CollectRecent(ctx)
	if path, err := b.store.SaveVideos(videos); err != nil {
		log.Warn("Failed to save video list", "error", err)
	} else {
		log.Info("Saved video list", "count", len(videos), "path", path)
	}

	var result *models.RunResult
	if len(videos) == 0 {
		log.Info("No new videos in the collection window, skipping notebook automation")
		result = &models.RunResult{Success: true}
	} else {
		result = b.automator.Run(ctx, models.VideoURLs(videos))
		if result == nil {
			result = &models.RunResult{Error: "automation returned no result"}
		}
	}

	result.RunID = runID
	result.VideosFound = len(videos)
	result.StartedAt = started
	result.FinishedAt = b.now().In(started.Location())

	if len(videos) > 0 {
		if err := b.notifier.Notify(notification(result, videos)); err != nil {
			log.Error("Failed to send notification", "error", err)
		}
	}

	if path, err := b.store.SaveResult(result, started); err != nil {
		log.Error("Failed to save run result", "error", err)
	} else {
		log.Info("Saved run result", "path", path)
	}

	if result.Success {
		log.Info("Run complete", "videos", result.VideosFound, "sources_added", result.SourcesAdded,
			"outcome", result.SourcesOutcome, "notebook_url", result.NotebookURL,
			"duration", result.FinishedAt.Sub(started).Round(time.Second))
	} else {
		log.Error("Run failed", "videos", result.VideosFound, "error", result.Error)
	}
	return result
}

func notification(result *models.RunResult, videos []models.VideoRecord) *email.Notification {
	n := &email.Notification{
		Success: result.Success,
		Videos:  videos,
		Result:  result,
	}

	var body strings.Builder
	if result.Success {
		n.Subject = fmt.Sprintf("NotebookLM sources added (%d)", result.SourcesAdded)
		fmt.Fprintf(&body, "%d of %d videos were added to the notebook.\n", result.SourcesAdded, result.VideosFound)
		if result.SourcesOutcome == models.SourcesUnconfirmed {
			body.WriteString("The insertion was not confirmed by the page; check the notebook sources.\n")
		}
		if result.GuidePanelOpened {
			body.WriteString("The guide panel is open. Start the audio overview from the notebook.\n")
		} else {
			body.WriteString("The guide panel could not be opened. Open it manually to start the audio overview.\n")
		}
	} else {
		n.Subject = "NotebookLM run failed"
		fmt.Fprintf(&body, "The notebook automation failed after collecting %d videos.\n", result.VideosFound)
		if result.Error != "" {
			fmt.Fprintf(&body, "Error: %s\n", result.Error)
		}
		if strings.Contains(result.Error, notebook.ErrNotAuthenticated.Error()) {
			body.WriteString("The saved session is no longer valid. Run authctl setup or restore to sign in again.\n")
		}
	}
	n.Body = body.String()
	return n
}

// browserAutomator runs the notebook driver in a fresh browser session
type browserAutomator struct {
	config      *config.Config
	headless    bool
	acknowledge func(ctx context.Context) error
	log         *slog.Logger
}

func (a *browserAutomator) Run(ctx context.Context, urls []string) *models.RunResult {
	session, err := browser.Launch(ctx, browser.OptionsFromConfig(&a.config.Browser, a.headless), a.log)
	if err != nil {
		a.log.Error("Failed to launch browser", "error", err)
		return &models.RunResult{Error: err.Error()}
	}
	defer session.Close()

	opts := notebook.OptionsFromConfig(&a.config.Notebook)
	opts.Headless = a.headless
	opts.Acknowledge = a.acknowledge

	return notebook.NewDriver(session.Page(), opts, a.log).Run(ctx, urls)
}
