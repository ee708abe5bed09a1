package youtube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"podcast-agent/internal/models"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
	ytapi "google.golang.org/api/youtube/v3"
	"google.golang.org/api/option"
)

// ErrChannelNotFound is returned when no embedding convention yields a channel id
var ErrChannelNotFound = errors.New("channel id not found")

var (
	channelIDPattern  = regexp.MustCompile(`^UC[a-zA-Z0-9_-]{22}$`)
	jsonChannelID     = regexp.MustCompile(`"channelId":"(UC[^"]+)"`)
	externalChannelID = regexp.MustCompile(`externalId.{0,5}(UC[a-zA-Z0-9_-]{22})`)
	canonicalPath     = regexp.MustCompile(`/channel/(UC[a-zA-Z0-9_-]{22})`)
)

// IsChannelID reports whether s already is a canonical channel id
func IsChannelID(s string) bool {
	return channelIDPattern.MatchString(s)
}

// ExtractChannelID scans a channel page for the channel id. The page conventions
// are tried in order and the first match wins.
func ExtractChannelID(page []byte) (string, bool) {
	if m := jsonChannelID.FindSubmatch(page); m != nil {
		return string(m[1]), true
	}
	if m := externalChannelID.FindSubmatch(page); m != nil {
		return string(m[1]), true
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", false
	}
	if content, ok := doc.Find(`meta[itemprop="channelId"]`).First().Attr("content"); ok && strings.HasPrefix(content, "UC") {
		return content, true
	}
	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		if m := canonicalPath.FindStringSubmatch(href); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ChannelLookup resolves a handle through an authoritative API
type ChannelLookup interface {
	LookupHandle(ctx context.Context, handle string) (string, error)
}

// DataAPILookup resolves handles with the YouTube Data API
type DataAPILookup struct {
	service *ytapi.Service
}

func NewDataAPILookup(ctx context.Context, apiKey string) (*DataAPILookup, error) {
	service, err := ytapi.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &DataAPILookup{service: service}, nil
}

func (l *DataAPILookup) LookupHandle(ctx context.Context, handle string) (string, error) {
	resp, err := l.service.Channels.List([]string{"id"}).ForHandle(handle).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("channels.list failed for %s: %w", handle, err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("%w: %s", ErrChannelNotFound, handle)
	}
	return resp.Items[0].Id, nil
}

// Resolver turns channel handles into channel ids. Results are cached for the
// lifetime of the process and never written back to configuration.
type Resolver struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	lookup  ChannelLookup
	log     *slog.Logger

	mu    sync.Mutex
	cache map[string]string
}

func newResolver(client *http.Client, limiter *rate.Limiter, lookup ChannelLookup, logger *slog.Logger) *Resolver {
	return &Resolver{
		client:  client,
		baseURL: "https://www.youtube.com",
		limiter: limiter,
		lookup:  lookup,
		log:     logger,
		cache:   make(map[string]string),
	}
}

// Resolve returns the channel id for ch
func (r *Resolver) Resolve(ctx context.Context, ch models.ChannelConfig) (string, error) {
	if IsChannelID(ch.ChannelID) {
		return ch.ChannelID, nil
	}
	if IsChannelID(strings.TrimSpace(ch.Handle)) {
		return strings.TrimSpace(ch.Handle), nil
	}
	handle := normalizeHandle(ch.Handle)
	if handle == "" {
		return "", fmt.Errorf("%w: channel %q has no handle", ErrChannelNotFound, ch.Name)
	}

	r.mu.Lock()
	cached, ok := r.cache[handle]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	id, err := r.fromPage(ctx, handle)
	if err != nil && r.lookup != nil {
		r.log.Debug("Channel page lookup failed, trying Data API", "handle", handle, "error", err)
		id, err = r.lookup.LookupHandle(ctx, handle)
	}
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cache[handle] = id
	r.mu.Unlock()

	r.log.Debug("Resolved channel id", "handle", handle, "channel_id", id)
	return id, nil
}

func (r *Resolver) fromPage(ctx context.Context, handle string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/"+handle, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch channel page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("channel page returned status %d", resp.StatusCode)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read channel page: %w", err)
	}

	id, ok := ExtractChannelID(page)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrChannelNotFound, handle)
	}
	return id, nil
}

func normalizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	handle = strings.TrimPrefix(handle, "https://www.youtube.com/")
	if handle == "" {
		return ""
	}
	if !strings.HasPrefix(handle, "@") {
		handle = "@" + handle
	}
	return handle
}
