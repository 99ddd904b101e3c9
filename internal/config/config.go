package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultFeedURL     = "https://earthquake.usgs.gov/fdsnws/event/1/query"
	DefaultTelegramAPI = "https://api.telegram.org"
)

type TelegramConfig struct {
	Token   string
	ChatID  string
	APIURL  string
	Timeout time.Duration
}

type FeedConfig struct {
	URL          string
	MinMagnitude float64
	Overlap      time.Duration // backward offset applied to every query start
	Lookback     time.Duration // extra history for the very first query
	Timeout      time.Duration
}

type SeenConfig struct {
	Backend string // "file" or "sqlite"
	File    string
	DB      string
}

type KeepAliveConfig struct {
	Disable bool
	Port    string
}

type Config struct {
	Telegram  TelegramConfig
	Feed      FeedConfig
	Seen      SeenConfig
	KeepAlive KeepAliveConfig

	// PollInterval <= 0 means run one cycle and exit.
	PollInterval time.Duration
	LogLevel     string
	DryRun       bool
	NotifyTest   bool
	Tray         bool
	HideConsole  bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram_api_url", DefaultTelegramAPI)
	v.SetDefault("notify_timeout", "10s")
	v.SetDefault("min_magnitude", 2.0)
	v.SetDefault("poll_seconds", 300)
	v.SetDefault("feed_url", DefaultFeedURL)
	v.SetDefault("feed_overlap", "2m")
	v.SetDefault("feed_lookback", "2m")
	v.SetDefault("feed_timeout", "20s")
	v.SetDefault("seen_backend", "file")
	v.SetDefault("seen_file", "seen_ids.json")
	v.SetDefault("seen_db", "seen_ids.db")
	v.SetDefault("port", "8080")
	v.SetDefault("keepalive_disable", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("dry_run", false)
	v.SetDefault("notify_test", false)
	v.SetDefault("tray", false)
	v.SetDefault("hide_console", false)
}

// Load reads configuration from the environment and, when CONFIG_FILE is set,
// from that YAML file. Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := strings.TrimSpace(v.GetString("config_file")); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	c := &Config{
		Telegram: TelegramConfig{
			Token:   strings.TrimSpace(v.GetString("telegram_token")),
			ChatID:  strings.TrimSpace(v.GetString("chat_id")),
			APIURL:  strings.TrimRight(strings.TrimSpace(v.GetString("telegram_api_url")), "/"),
			Timeout: v.GetDuration("notify_timeout"),
		},
		Feed: FeedConfig{
			URL:          strings.TrimSpace(v.GetString("feed_url")),
			MinMagnitude: v.GetFloat64("min_magnitude"),
			Overlap:      v.GetDuration("feed_overlap"),
			Lookback:     v.GetDuration("feed_lookback"),
			Timeout:      v.GetDuration("feed_timeout"),
		},
		Seen: SeenConfig{
			Backend: strings.ToLower(strings.TrimSpace(v.GetString("seen_backend"))),
			File:    v.GetString("seen_file"),
			DB:      v.GetString("seen_db"),
		},
		KeepAlive: KeepAliveConfig{
			Disable: v.GetBool("keepalive_disable"),
			Port:    strings.TrimSpace(v.GetString("port")),
		},
		PollInterval: time.Duration(v.GetInt("poll_seconds")) * time.Second,
		LogLevel:     v.GetString("log_level"),
		DryRun:       v.GetBool("dry_run"),
		NotifyTest:   v.GetBool("notify_test"),
		Tray:         v.GetBool("tray"),
		HideConsole:  v.GetBool("hide_console"),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error
	if !c.DryRun {
		if c.Telegram.Token == "" {
			errs = append(errs, errors.New("TELEGRAM_TOKEN is required"))
		}
		if c.Telegram.ChatID == "" {
			errs = append(errs, errors.New("CHAT_ID is required"))
		}
	}
	if c.Feed.URL == "" {
		errs = append(errs, errors.New("FEED_URL must not be empty"))
	}
	if c.Feed.MinMagnitude < 0 {
		errs = append(errs, fmt.Errorf("MIN_MAGNITUDE must be >= 0, got %g", c.Feed.MinMagnitude))
	}
	if c.Feed.Overlap < 0 {
		errs = append(errs, fmt.Errorf("FEED_OVERLAP must be >= 0, got %s", c.Feed.Overlap))
	}
	if c.Feed.Lookback < 0 {
		errs = append(errs, fmt.Errorf("FEED_LOOKBACK must be >= 0, got %s", c.Feed.Lookback))
	}
	if c.Feed.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("FEED_TIMEOUT must be > 0, got %s", c.Feed.Timeout))
	}
	if c.Telegram.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("NOTIFY_TIMEOUT must be > 0, got %s", c.Telegram.Timeout))
	}
	switch c.Seen.Backend {
	case "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("SEEN_BACKEND must be file or sqlite, got %q", c.Seen.Backend))
	}
	return errors.Join(errs...)
}

// QueryWindow is the span each steady-state query covers: the time since the
// previous poll plus the overlap. Events reported later than Overlap after
// they occurred are missed.
func (c *Config) QueryWindow() time.Duration {
	if c.PollInterval <= 0 {
		return c.Feed.Lookback + c.Feed.Overlap
	}
	return c.PollInterval + c.Feed.Overlap
}
