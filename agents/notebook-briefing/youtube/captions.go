package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podcast-agent/internal/models"

	"golang.org/x/time/rate"
)

// Terminal caption outcomes. They are expected and logged at info level.
var (
	ErrCaptionsDisabled = errors.New("captions are disabled for this video")
	ErrNoCaptionTrack   = errors.New("no caption track in the requested languages")
	ErrVideoUnavailable = errors.New("video is unavailable")
)

var playerResponseMarkers = []string{"ytInitialPlayerResponse = ", "ytInitialPlayerResponse="}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		Renderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

// CaptionExtractor fetches caption text from a video's watch page
type CaptionExtractor struct {
	client    *http.Client
	baseURL   string
	languages []string
	limiter   *rate.Limiter
	log       *slog.Logger
}

// NewCaptionExtractor prefers languages in the given order
func NewCaptionExtractor(languages []string, requestsPerSecond float64, logger *slog.Logger) *CaptionExtractor {
	if len(languages) == 0 {
		languages = []string{"ko", "en"}
	}
	return &CaptionExtractor{
		client:    &http.Client{Timeout: 30 * time.Second},
		baseURL:   "https://www.youtube.com",
		languages: languages,
		limiter:   newLimiter(requestsPerSecond),
		log:       logger,
	}
}

// Fetch returns the caption text for videoID. It never fails: every error is
// logged and reported as no caption.
func (e *CaptionExtractor) Fetch(ctx context.Context, videoID string) (string, bool) {
	text, err := e.fetch(ctx, videoID)
	switch {
	case err == nil && text != "":
		e.log.Info("Fetched captions", "video_id", videoID, "chars", len([]rune(text)))
		return text, true
	case err == nil:
		e.log.Info("Caption track is empty", "video_id", videoID)
	case errors.Is(err, ErrCaptionsDisabled), errors.Is(err, ErrNoCaptionTrack), errors.Is(err, ErrVideoUnavailable):
		e.log.Info("No captions available", "video_id", videoID, "reason", err)
	default:
		e.log.Warn("Failed to fetch captions", "video_id", videoID, "error", err)
	}
	return "", false
}

func (e *CaptionExtractor) fetch(ctx context.Context, videoID string) (string, error) {
	page, err := e.get(ctx, e.baseURL+"/watch?v="+url.QueryEscape(videoID))
	if err != nil {
		return "", fmt.Errorf("failed to fetch watch page: %w", err)
	}

	player, err := extractPlayerResponse(page)
	if err != nil {
		return "", err
	}

	if status := player.PlayabilityStatus.Status; status != "" && status != "OK" {
		return "", fmt.Errorf("%w: %s %s", ErrVideoUnavailable, status, player.PlayabilityStatus.Reason)
	}
	if player.Captions == nil || len(player.Captions.Renderer.CaptionTracks) == 0 {
		return "", ErrCaptionsDisabled
	}

	track, ok := pickTrack(player.Captions.Renderer.CaptionTracks, e.languages)
	if !ok {
		return "", fmt.Errorf("%w: wanted %s", ErrNoCaptionTrack, strings.Join(e.languages, ","))
	}

	trackURL := track.BaseURL
	if strings.HasPrefix(trackURL, "/") {
		trackURL = e.baseURL + trackURL
	}
	body, err := e.get(ctx, trackURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch caption track: %w", err)
	}
	return parseTimedText(body)
}

func (e *CaptionExtractor) get(ctx context.Context, target string) ([]byte, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}

func extractPlayerResponse(page []byte) (*playerResponse, error) {
	for _, marker := range playerResponseMarkers {
		idx := bytes.Index(page, []byte(marker))
		if idx < 0 {
			continue
		}
		var player playerResponse
		// Decode reads exactly one JSON value and ignores the trailing script
		if err := json.NewDecoder(bytes.NewReader(page[idx+len(marker):])).Decode(&player); err != nil {
			return nil, fmt.Errorf("failed to decode player response: %w", err)
		}
		return &player, nil
	}
	return nil, errors.New("player response not found in watch page")
}

// pickTrack walks the language preference list; within a language, manual
// tracks win over automatic ones.
func pickTrack(tracks []captionTrack, languages []string) (captionTrack, bool) {
	matches := func(t captionTrack, lang string) bool {
		code := strings.ToLower(t.LanguageCode)
		lang = strings.ToLower(lang)
		return code == lang || strings.HasPrefix(code, lang+"-")
	}

	for _, lang := range languages {
		for _, t := range tracks {
			if t.Kind != "asr" && matches(t, lang) {
				return t, true
			}
		}
		for _, t := range tracks {
			if t.Kind == "asr" && matches(t, lang) {
				return t, true
			}
		}
	}
	return captionTrack{}, false
}

type timedText struct {
	Texts []string `xml:"text"`
	Body  struct {
		Paragraphs []string `xml:"p"`
	} `xml:"body"`
}

func parseTimedText(data []byte) (string, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", fmt.Errorf("failed to parse caption track: %w", err)
	}

	segments := tt.Texts
	if len(segments) == 0 {
		segments = tt.Body.Paragraphs
	}

	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Join(strings.Fields(html.UnescapeString(s)), " ")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}

// SaveCaption writes caption text to dir under the video's caption file name
func SaveCaption(dir, videoID, text string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create caption directory: %w", err)
	}
	path := filepath.Join(dir, models.CaptionFileName(videoID))
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to save caption: %w", err)
	}
	return path, nil
}

// HasSavedCaption reports whether a caption file for videoID exists in dir
func HasSavedCaption(dir, videoID string) bool {
	if dir == "" || videoID == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, models.CaptionFileName(videoID)))
	return err == nil && !info.IsDir()
}

// FillCaptions fetches captions for videos that have neither attached text nor
// a saved caption file. Every video is kept; one whose fetch fails is returned
// without a caption.
func FillCaptions(ctx context.Context, videos []models.VideoRecord, captions CaptionFetcher, dir string, logger *slog.Logger) []models.VideoRecord {
	out := make([]models.VideoRecord, 0, len(videos))
	fetched, saved := 0, 0
	for _, v := range videos {
		switch {
		case v.Caption != "":
		case HasSavedCaption(dir, v.VideoID):
			saved++
		default:
			if text, ok := captions.Fetch(ctx, v.VideoID); ok {
				v.Caption = text
				fetched++
			}
		}
		v.CaptionLength = len([]rune(v.Caption))
		out = append(out, v)
	}
	logger.Info("Filled captions", "fetched", fetched, "saved", saved, "total", len(videos))
	return out
}
