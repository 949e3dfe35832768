// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string
	Env         string
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Feed describes the news stream connection.
type Feed struct {
	URL                string `yaml:"url"`
	ReconnectDelaySecs int    `yaml:"reconnect_delay_secs"`
}

// Assistant configures the remote signal-analysis service.
type Assistant struct {
	BaseURL        string `yaml:"base_url"`
	PollIntervalMs int    `yaml:"poll_interval_ms"`
	TimeoutSecs    int    `yaml:"timeout_secs"`
}

// Filter holds the keyword and importance gates applied to incoming news.
type Filter struct {
	Whitelist     []string `yaml:"whitelist"`
	Blacklist     []string `yaml:"blacklist"`
	MinImportance int      `yaml:"min_importance"`
	AllowedTypes  []string `yaml:"allowed_types"`
}

// RiskTiers maps news importance (1..3) to the percent of balance risked per trade.
type RiskTiers struct {
	Low    float64 `yaml:"low"`
	Medium float64 `yaml:"medium"`
	High   float64 `yaml:"high"`
}

// Risk encodes volatility and position-sizing parameters.
type Risk struct {
	ATRPeriod        int       `yaml:"atr_period"`
	ATRTimeframeMins int       `yaml:"atr_timeframe_mins"`
	StopMultiplier   float64   `yaml:"stop_multiplier"`
	TargetMultiplier float64   `yaml:"target_multiplier"`
	Tiers            RiskTiers `yaml:"tiers"`
}

// Guard configures the execution guard rails.
type Guard struct {
	MaxTradesPerDay    int     `yaml:"max_trades_per_day"`
	CooldownMins       int     `yaml:"cooldown_mins"`
	LiquidityStartHour int     `yaml:"liquidity_start_hour"`
	MaxSpreadPoints    float64 `yaml:"max_spread_points"`
}

// Order sets broker submission parameters shared by every order this engine sends.
type Order struct {
	DeviationPoints int   `yaml:"deviation_points"`
	MagicNumber     int64 `yaml:"magic_number"`
}

// Monitor configures the closed-deal poller feeding the cooldown state.
type Monitor struct {
	PollSecs      int `yaml:"poll_secs"`
	ErrorPollSecs int `yaml:"error_poll_secs"`
	LookbackDays  int `yaml:"lookback_days"`
}

// Broker points at the terminal gateway the engine talks to.
type Broker struct {
	GatewayURL string `yaml:"gateway_url"`
}

// Audit locates the append-only record store.
type Audit struct {
	Path string `yaml:"path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App       App       `yaml:"app"`
	Feed      Feed      `yaml:"feed"`
	Assistant Assistant `yaml:"assistant"`
	Filter    Filter    `yaml:"filter"`
	Risk      Risk      `yaml:"risk"`
	Guard     Guard     `yaml:"guard"`
	Order     Order     `yaml:"order"`
	Monitor   Monitor   `yaml:"monitor"`
	Broker    Broker    `yaml:"broker"`
	Audit     Audit     `yaml:"audit"`
}

// Load reads a YAML file from disk and hydrates a Config struct with defaults applied.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Feed.ReconnectDelaySecs <= 0 {
		c.Feed.ReconnectDelaySecs = 10
	}
	if c.Assistant.PollIntervalMs <= 0 {
		c.Assistant.PollIntervalMs = 1000
	}
	if c.Assistant.TimeoutSecs <= 0 {
		c.Assistant.TimeoutSecs = 60
	}
	if c.Risk.ATRPeriod <= 0 {
		c.Risk.ATRPeriod = 14
	}
	if c.Risk.ATRTimeframeMins <= 0 {
		c.Risk.ATRTimeframeMins = 15
	}
	if c.Risk.StopMultiplier <= 0 {
		c.Risk.StopMultiplier = 1.5
	}
	if c.Risk.TargetMultiplier <= 0 {
		c.Risk.TargetMultiplier = 3.0
	}
	if c.Risk.Tiers.Low <= 0 {
		c.Risk.Tiers.Low = 1.0
	}
	if c.Risk.Tiers.Medium <= 0 {
		c.Risk.Tiers.Medium = 2.5
	}
	if c.Risk.Tiers.High <= 0 {
		c.Risk.Tiers.High = 5.0
	}
	if c.Order.DeviationPoints <= 0 {
		c.Order.DeviationPoints = 10
	}
	if c.Monitor.PollSecs <= 0 {
		c.Monitor.PollSecs = 5
	}
	if c.Monitor.ErrorPollSecs <= 0 {
		c.Monitor.ErrorPollSecs = 10
	}
	if c.Monitor.LookbackDays <= 0 {
		c.Monitor.LookbackDays = 2
	}
	if c.Audit.Path == "" {
		c.Audit.Path = "data/audit.jsonl"
	}
}

// Credentials carries the secrets required at startup. They come from the
// environment, never from the YAML file.
type Credentials struct {
	FeedToken        string
	AssistantKey     string
	AssistantID      string
	TelegramBotToken string
	TelegramChatID   string
}

// CredentialsFromEnv reads required secrets, returning an error naming every
// missing variable. A missing credential is fatal at startup.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		FeedToken:        os.Getenv("FEED_API_TOKEN"),
		AssistantKey:     os.Getenv("ASSISTANT_API_KEY"),
		AssistantID:      os.Getenv("ASSISTANT_ID"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
	}

	var missing []string
	for name, val := range map[string]string{
		"FEED_API_TOKEN":     creds.FeedToken,
		"ASSISTANT_API_KEY":  creds.AssistantKey,
		"ASSISTANT_ID":       creds.AssistantID,
		"TELEGRAM_BOT_TOKEN": creds.TelegramBotToken,
		"TELEGRAM_CHAT_ID":   creds.TelegramChatID,
	} {
		if val == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Credentials{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return creds, nil
}
