package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"podcast-agent/internal/models"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Notebook   NotebookConfig   `yaml:"notebook"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	Browser    BrowserConfig    `yaml:"browser"`
	AI         AIConfig         `yaml:"ai"`
	Email      EmailConfig      `yaml:"email"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule"`
	Timezone   string           `yaml:"timezone"`
	OutputDir  string           `yaml:"output_dir"`
	LogLevel   string           `yaml:"log_level" env:"LOG_LEVEL"`
}

type NotebookConfig struct {
	Name         string `yaml:"name"`
	BaseURL      string `yaml:"base_url"`
	Headless     bool   `yaml:"headless" env:"NOTEBOOKLM_HEADLESS"`
	DebugDir     string `yaml:"debug_dir"`
	PollSeconds  int    `yaml:"poll_seconds"`
	PollCycles   int    `yaml:"poll_cycles"`
	ProbeTimeout int    `yaml:"probe_timeout_seconds"`
}

type YouTubeConfig struct {
	Channels          []models.ChannelConfig `yaml:"channels"`
	RecentHours       int                    `yaml:"recent_hours"`
	MaxEntries        int                    `yaml:"max_entries"`
	CaptionLanguages  []string               `yaml:"caption_languages"`
	APIKey            string                 `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	RequestsPerSecond float64                `yaml:"requests_per_second"`
	CaptionDir        string                 `yaml:"caption_dir"`
}

type BrowserConfig struct {
	ProfileDir   string `yaml:"profile_dir"`
	StateFile    string `yaml:"state_file"`
	AuthInfoFile string `yaml:"auth_info_file"`
	UserAgent    string `yaml:"user_agent"`
	AuthStateEnv string `yaml:"auth_state_env"`
	ChromePath   string `yaml:"chrome_path" env:"CHROME_PATH"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"GMAIL_USER"`
	Password   string `yaml:"password" env:"GMAIL_APP_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email" env:"GMAIL_TO"`
}

// Configured reports whether SMTP credentials are present
func (e *EmailConfig) Configured() bool {
	return e.Username != "" && e.Password != ""
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultSchedule  = "0 6 * * *"
)

// DefaultChannels is the channel set used when the config file lists none
var DefaultChannels = []models.ChannelConfig{
	{Handle: "@sosumonkey", Name: "소수몽키", ChannelID: "UCC3yfxS5qC6PCwDzetUuEWg"},
	{Handle: "@orlandocampus", Name: "올랜도 킴 미국주식", ChannelID: "UCwSSqi-s0wcH6pJbH3YPZqQ"},
	{Handle: "@buiknam_tv", Name: "부읽나TV_내집마련부터건물주까지", ChannelID: "UC2QeHNJFfuQWB4cy3M-745g"},
}

// LoadFile reads a YAML config file and applies env fallbacks and defaults.
// A missing file is not an error; the built-in defaults are used instead.
func LoadFile(configFile string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Config{Notebook: NotebookConfig{Headless: true}}

	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if c.Email.Username == "" {
		c.Email.Username = os.Getenv("GMAIL_USER")
	}
	if c.Email.Password == "" {
		c.Email.Password = os.Getenv("GMAIL_APP_PASSWORD")
	}
	if c.Email.ToEmail == "" {
		c.Email.ToEmail = os.Getenv("GMAIL_TO")
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.Browser.ChromePath == "" {
		c.Browser.ChromePath = os.Getenv("CHROME_PATH")
	}
	if c.LogLevel == "" {
		c.LogLevel = os.Getenv("LOG_LEVEL")
	}
	if v := os.Getenv("NOTEBOOKLM_HEADLESS"); v != "" {
		if headless, err := strconv.ParseBool(v); err == nil {
			c.Notebook.Headless = headless
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Notebook.Name == "" {
		c.Notebook.Name = "Daily new"
	}
	if c.Notebook.BaseURL == "" {
		c.Notebook.BaseURL = "https://notebooklm.google.com/"
	}
	if c.Notebook.DebugDir == "" {
		c.Notebook.DebugDir = "."
	}
	if c.Notebook.PollSeconds == 0 {
		c.Notebook.PollSeconds = 5
	}
	if c.Notebook.PollCycles == 0 {
		c.Notebook.PollCycles = 24
	}

	if len(c.YouTube.Channels) == 0 {
		c.YouTube.Channels = append([]models.ChannelConfig(nil), DefaultChannels...)
	}
	if c.YouTube.RecentHours == 0 {
		c.YouTube.RecentHours = 24
	}
	if c.YouTube.MaxEntries == 0 {
		c.YouTube.MaxEntries = 10
	}
	if len(c.YouTube.CaptionLanguages) == 0 {
		c.YouTube.CaptionLanguages = []string{"ko", "en"}
	}
	if c.YouTube.RequestsPerSecond == 0 {
		c.YouTube.RequestsPerSecond = 2
	}
	if c.YouTube.CaptionDir == "" {
		c.YouTube.CaptionDir = "."
	}

	if c.Browser.ProfileDir == "" {
		c.Browser.ProfileDir = "data/browser_state/browser_profile"
	}
	if c.Browser.StateFile == "" {
		c.Browser.StateFile = "data/browser_state/state.json"
	}
	if c.Browser.AuthInfoFile == "" {
		c.Browser.AuthInfoFile = "data/auth_info.json"
	}
	if c.Browser.UserAgent == "" {
		c.Browser.UserAgent = DefaultUserAgent
	}
	if c.Browser.AuthStateEnv == "" {
		c.Browser.AuthStateEnv = "NOTEBOOKLM_AUTH_STATE"
	}

	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}

	if c.Email.SMTPServer == "" {
		c.Email.SMTPServer = "smtp.gmail.com"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Email.FromEmail == "" {
		c.Email.FromEmail = c.Email.Username
	}
	if c.Email.ToEmail == "" {
		c.Email.ToEmail = c.Email.Username
	}

	if c.Schedule == "" {
		c.Schedule = DefaultSchedule // Daily at 6 AM
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Seoul"
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// CronSpec returns the schedule expression with its timezone attached
func (c *Config) CronSpec() string {
	if c.Timezone == "" || strings.HasPrefix(c.Schedule, "CRON_TZ=") || strings.HasPrefix(c.Schedule, "TZ=") {
		return c.Schedule
	}
	return fmt.Sprintf("CRON_TZ=%s %s", c.Timezone, c.Schedule)
}

// Location returns the configured timezone, or the host zone when it cannot be loaded
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Notebook.Name) == "" {
		return fmt.Errorf("notebook name is required (set notebook.name)")
	}
	if len(c.YouTube.Channels) == 0 {
		return fmt.Errorf("at least one channel is required (set youtube.channels)")
	}
	for i, ch := range c.YouTube.Channels {
		if ch.Handle == "" && ch.ChannelID == "" {
			return fmt.Errorf("channel %d needs a handle or channel_id", i)
		}
	}
	if c.YouTube.RecentHours < 0 {
		return fmt.Errorf("youtube.recent_hours must be positive, got %d", c.YouTube.RecentHours)
	}
	if c.Email.SMTPPort <= 0 || c.Email.SMTPPort > 65535 {
		return fmt.Errorf("invalid SMTP port %d", c.Email.SMTPPort)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if _, err := cron.ParseStandard(c.CronSpec()); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
	}
	return nil
}
