package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"podcast-agent/agents/notebook-briefing/synthesis"
	"podcast-agent/agents/notebook-briefing/youtube"
	"podcast-agent/internal/models"
	"podcast-agent/shared/ai"
	"podcast-agent/shared/config"
	"podcast-agent/shared/logging"
	"podcast-agent/shared/storage"

	"github.com/jessevdk/go-flags"
)

type options struct {
	Videos string `long:"videos" description:"Read videos from this JSON list instead of collecting"`
	AI     bool   `long:"ai" description:"Also ask Gemini to write the script from the prompt"`
	Hours  int    `long:"hours" description:"Collection window in hours (defaults to youtube.recent_hours)"`
	Config string `short:"c" long:"config" env:"CONFIG_FILE" default:"config.yaml" description:"Path to the YAML config file"`
}

func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := config.LoadFile(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, os.Stdout)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Error("Script generation failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger) error {
	captions := youtube.NewCaptionExtractor(cfg.YouTube.CaptionLanguages, cfg.YouTube.RequestsPerSecond, logger)

	var videos []models.VideoRecord
	if opts.Videos != "" {
		loaded, err := loadVideos(ctx, cfg, opts.Videos, captions, logger)
		if err != nil {
			return err
		}
		videos = loaded
	} else {
		lookup := youtube.LookupFromConfig(ctx, &cfg.YouTube, logger)
		collector := youtube.NewCollector(&cfg.YouTube, lookup, logger)
		if opts.Hours > 0 {
			collector.SetWindow(time.Duration(opts.Hours) * time.Hour)
		}
		videos = collector.CollectWithCaptions(ctx, captions)
	}

	if len(videos) == 0 {
		logger.Info("No videos to synthesize")
		return nil
	}

	day := time.Now().In(cfg.Location())
	synth := synthesis.NewSynthesizer(cfg.YouTube.CaptionDir, cfg.OutputDir, logger)
	path, err := writeScript(synth, cfg.YouTube.CaptionDir, videos, day, logger)
	if err != nil {
		return err
	}
	fmt.Println(path)

	if !opts.AI {
		return nil
	}
	if cfg.AI.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set, skipping model-written script")
		return nil
	}

	writer, err := ai.NewScriptWriter(ctx, &cfg.AI, logger)
	if err != nil {
		return err
	}
	script, err := writer.Write(ctx, synth.BuildPrompt(videos))
	if err != nil {
		return err
	}

	aiPath := filepath.Join(cfg.OutputDir, synthesis.AIScriptFileName(day))
	if err := os.WriteFile(aiPath, []byte(script+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write model script: %w", err)
	}
	logger.Info("Saved model-written script", "path", aiPath, "chars", len([]rune(script)))
	fmt.Println(aiPath)
	return nil
}

// loadVideos reads a saved video list and fetches captions for the videos that
// have none on disk. Videos without any caption are kept.
func loadVideos(ctx context.Context, cfg *config.Config, path string, captions youtube.CaptionFetcher, logger *slog.Logger) ([]models.VideoRecord, error) {
	loaded, err := storage.LoadVideos(path)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded video list", "path", path, "count", len(loaded))
	return youtube.FillCaptions(ctx, loaded, captions, cfg.YouTube.CaptionDir, logger), nil
}

// writeScript saves freshly fetched captions and renders the dated script
func writeScript(synth *synthesis.Synthesizer, captionDir string, videos []models.VideoRecord, day time.Time, logger *slog.Logger) (string, error) {
	for _, v := range videos {
		if v.Caption == "" {
			continue
		}
		if _, err := youtube.SaveCaption(captionDir, v.VideoID, v.Caption); err != nil {
			logger.Warn("Failed to save caption", "video_id", v.VideoID, "error", err)
		}
	}
	return synth.Generate(videos, day)
}
