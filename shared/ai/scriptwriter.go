package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"podcast-agent/shared/config"

	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model produced no text
var ErrEmptyResponse = errors.New("empty response from model")

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ScriptWriter turns a synthesis prompt into a finished podcast script with Gemini
type ScriptWriter struct {
	models contentGenerator
	model  string
	log    *slog.Logger
}

func NewScriptWriter(ctx context.Context, cfg *config.AIConfig, logger *slog.Logger) (*ScriptWriter, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &ScriptWriter{models: client.Models, model: cfg.Model, log: logger}, nil
}

// Write sends prompt to the model and returns the script text
func (w *ScriptWriter) Write(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	w.log.Info("Requesting script from model", "model", w.model, "prompt_chars", len([]rune(prompt)))
	result, err := w.models.GenerateContent(ctx, w.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate script: %w", err)
	}

	text := stripCodeFence(result.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// stripCodeFence removes a markdown fence wrapping the whole response
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// drop the opening fence line, including any language tag
	nl := strings.IndexByte(s, '\n')
	if nl == -1 {
		return ""
	}
	s = s[nl+1:]

	s = strings.TrimRight(s, " \t\n")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
