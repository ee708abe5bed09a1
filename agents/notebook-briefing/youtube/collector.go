package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"podcast-agent/internal/models"
	"podcast-agent/shared/config"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

const (
	feedURLTemplate  = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"
	watchURLTemplate = "https://www.youtube.com/watch?v=%s"
	defaultTimeout   = 10 * time.Second
	maxPageBytes     = 8 << 20
	browserUserAgent = config.DefaultUserAgent
)

// InWindow reports whether published falls inside the trailing window ending at now.
// The boundary is inclusive: an entry exactly window old is kept.
func InWindow(now, published time.Time, window time.Duration) bool {
	return !published.UTC().Before(now.UTC().Add(-window))
}

// Collector polls channel feeds for recently published videos
type Collector struct {
	client     *http.Client
	parser     *gofeed.Parser
	resolver   *Resolver
	limiter    *rate.Limiter
	channels   []models.ChannelConfig
	window     time.Duration
	maxEntries int
	feedURL    string
	log        *slog.Logger
	now        func() time.Time
}

// NewCollector builds a collector over the configured channels. lookup may be nil.
func NewCollector(cfg *config.YouTubeConfig, lookup ChannelLookup, logger *slog.Logger) *Collector {
	client := &http.Client{Timeout: defaultTimeout}
	limiter := newLimiter(cfg.RequestsPerSecond)

	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 10
	}
	hours := cfg.RecentHours
	if hours <= 0 {
		hours = 24
	}

	return &Collector{
		client:     client,
		parser:     gofeed.NewParser(),
		resolver:   newResolver(client, limiter, lookup, logger),
		limiter:    limiter,
		channels:   append([]models.ChannelConfig(nil), cfg.Channels...),
		window:     time.Duration(hours) * time.Hour,
		maxEntries: maxEntries,
		feedURL:    feedURLTemplate,
		log:        logger,
		now:        time.Now,
	}
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 || math.IsInf(rps, 1) {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// SetWindow overrides the recency window
func (c *Collector) SetWindow(window time.Duration) {
	c.window = window
}

// Channels returns the channel list with any ids resolved so far
func (c *Collector) Channels() []models.ChannelConfig {
	return append([]models.ChannelConfig(nil), c.channels...)
}

// ResolveChannelID resolves a handle or returns the id unchanged
func (c *Collector) ResolveChannelID(ctx context.Context, ch models.ChannelConfig) (string, error) {
	return c.resolver.Resolve(ctx, ch)
}

// CollectRecent walks every channel in order and gathers in-window videos.
// A channel that cannot be resolved or fetched is logged and skipped.
func (c *Collector) CollectRecent(ctx context.Context) []models.VideoRecord {
	var all []models.VideoRecord
	seen := make(map[string]bool)

	for i := range c.channels {
		if ctx.Err() != nil {
			c.log.Warn("Collection interrupted", "error", ctx.Err())
			break
		}

		ch := &c.channels[i]
		name := displayName(*ch)

		id, err := c.resolver.Resolve(ctx, *ch)
		if err != nil {
			c.log.Warn("Skipping channel, id could not be resolved", "channel", name, "handle", ch.Handle, "error", err)
			continue
		}
		ch.ChannelID = id

		videos := c.FetchRecent(ctx, id, name)
		c.log.Info("Checked channel", "channel", name, "recent", len(videos))

		for _, v := range videos {
			if seen[v.VideoID] {
				continue
			}
			seen[v.VideoID] = true
			all = append(all, v)
		}
	}

	c.log.Info("Collected recent videos", "count", len(all), "channels", len(c.channels), "window", c.window)
	return all
}

// FetchRecent reads the newest feed entries for channelID and keeps those inside
// the recency window, in feed order. Fetch errors yield an empty result.
func (c *Collector) FetchRecent(ctx context.Context, channelID, channelName string) []models.VideoRecord {
	feed, err := c.fetchFeed(ctx, channelID)
	if err != nil {
		c.log.Warn("Failed to fetch feed", "channel", channelName, "channel_id", channelID, "error", err)
		return nil
	}

	now := c.now()
	var videos []models.VideoRecord
	for i, item := range feed.Items {
		if i >= c.maxEntries {
			break
		}

		published := itemPublished(item)
		if published.IsZero() || !InWindow(now, published, c.window) {
			continue
		}

		id := itemVideoID(item)
		if id == "" {
			c.log.Debug("Feed entry without video id", "channel", channelName, "title", item.Title)
			continue
		}

		videos = append(videos, models.VideoRecord{
			Title:     item.Title,
			URL:       fmt.Sprintf(watchURLTemplate, id),
			VideoID:   id,
			Published: published.UTC(),
			Channel:   channelName,
		})
	}
	return videos
}

// CaptionFetcher returns the caption text of a video, or false when it has none
type CaptionFetcher interface {
	Fetch(ctx context.Context, videoID string) (string, bool)
}

// LookupFromConfig returns the Data API handle lookup when an API key is
// configured, or nil to resolve handles from channel pages only
func LookupFromConfig(ctx context.Context, cfg *config.YouTubeConfig, logger *slog.Logger) ChannelLookup {
	if cfg.APIKey == "" {
		return nil
	}
	api, err := NewDataAPILookup(ctx, cfg.APIKey)
	if err != nil {
		logger.Warn("YouTube Data API unavailable, resolving handles from channel pages only", "error", err)
		return nil
	}
	return api
}

// CollectWithCaptions collects recent videos and keeps only those with captions
func (c *Collector) CollectWithCaptions(ctx context.Context, captions CaptionFetcher) []models.VideoRecord {
	return AttachCaptions(ctx, c.CollectRecent(ctx), captions, c.log)
}

// AttachCaptions fetches captions for each video and drops videos without one
func AttachCaptions(ctx context.Context, videos []models.VideoRecord, captions CaptionFetcher, logger *slog.Logger) []models.VideoRecord {
	var out []models.VideoRecord
	for _, v := range videos {
		if v.Caption == "" {
			text, ok := captions.Fetch(ctx, v.VideoID)
			if !ok {
				continue
			}
			v.Caption = text
		}
		v.CaptionLength = len([]rune(v.Caption))
		out = append(out, v)
	}
	logger.Info("Attached captions", "with_captions", len(out), "total", len(videos))
	return out
}

func (c *Collector) fetchFeed(ctx context.Context, channelID string) (*gofeed.Feed, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feedURL := fmt.Sprintf(c.feedURL, url.QueryEscape(channelID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	feed, err := c.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return feed, nil
}

func itemPublished(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

func itemVideoID(item *gofeed.Item) string {
	if yt, ok := item.Extensions["yt"]; ok {
		if ids := yt["videoId"]; len(ids) > 0 && ids[0].Value != "" {
			return ids[0].Value
		}
	}
	if u, err := url.Parse(item.Link); err == nil {
		if v := u.Query().Get("v"); v != "" {
			return v
		}
	}
	return ""
}

func displayName(ch models.ChannelConfig) string {
	if ch.Name != "" {
		return ch.Name
	}
	return ch.Handle
}
