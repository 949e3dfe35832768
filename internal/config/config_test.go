package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "newsbot-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.Feed.URL != "wss://news.example.com/v1/stream" {
		t.Fatalf("unexpected Feed.URL: %s", cfg.Feed.URL)
	}
	if cfg.Feed.ReconnectDelaySecs != 10 {
		t.Fatalf("unexpected reconnect delay: %d", cfg.Feed.ReconnectDelaySecs)
	}
	if cfg.Assistant.PollIntervalMs != 1000 || cfg.Assistant.TimeoutSecs != 60 {
		t.Fatalf("unexpected assistant timing: %+v", cfg.Assistant)
	}
	if len(cfg.Filter.Whitelist) != 3 || cfg.Filter.Whitelist[0] != "cpi" {
		t.Fatalf("unexpected whitelist: %+v", cfg.Filter.Whitelist)
	}
	if len(cfg.Filter.Blacklist) != 1 || cfg.Filter.Blacklist[0] != "rumor" {
		t.Fatalf("unexpected blacklist: %+v", cfg.Filter.Blacklist)
	}
	if cfg.Filter.MinImportance != 2 {
		t.Fatalf("unexpected min importance: %d", cfg.Filter.MinImportance)
	}
	if cfg.Risk.ATRPeriod != 14 || cfg.Risk.ATRTimeframeMins != 15 {
		t.Fatalf("unexpected ATR settings: %+v", cfg.Risk)
	}
	if cfg.Risk.StopMultiplier != 1.5 || cfg.Risk.TargetMultiplier != 3.0 {
		t.Fatalf("unexpected multipliers: %+v", cfg.Risk)
	}
	if cfg.Risk.Tiers.Low != 1.0 || cfg.Risk.Tiers.Medium != 2.5 || cfg.Risk.Tiers.High != 5.0 {
		t.Fatalf("unexpected risk tiers: %+v", cfg.Risk.Tiers)
	}
	if cfg.Guard.MaxTradesPerDay != 5 {
		t.Fatalf("unexpected daily cap: %d", cfg.Guard.MaxTradesPerDay)
	}
	if cfg.Guard.CooldownMins != 60 {
		t.Fatalf("unexpected cooldown: %d", cfg.Guard.CooldownMins)
	}
	if cfg.Guard.LiquidityStartHour != 7 {
		t.Fatalf("unexpected liquidity start hour: %d", cfg.Guard.LiquidityStartHour)
	}
	if cfg.Guard.MaxSpreadPoints != 30 {
		t.Fatalf("unexpected max spread: %.1f", cfg.Guard.MaxSpreadPoints)
	}
	if cfg.Order.DeviationPoints != 10 || cfg.Order.MagicNumber != 230523 {
		t.Fatalf("unexpected order settings: %+v", cfg.Order)
	}
	if cfg.Monitor.PollSecs != 5 || cfg.Monitor.ErrorPollSecs != 10 || cfg.Monitor.LookbackDays != 2 {
		t.Fatalf("unexpected monitor settings: %+v", cfg.Monitor)
	}
	if cfg.Broker.GatewayURL != "http://127.0.0.1:8228" {
		t.Fatalf("unexpected gateway url: %s", cfg.Broker.GatewayURL)
	}
	if cfg.Audit.Path != "data/audit.jsonl" {
		t.Fatalf("unexpected audit path: %s", cfg.Audit.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefaultsApplied(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	if cfg.Assistant.PollIntervalMs != 1000 || cfg.Assistant.TimeoutSecs != 60 {
		t.Fatalf("unexpected assistant defaults: %+v", cfg.Assistant)
	}
	if cfg.Risk.ATRPeriod != 14 {
		t.Fatalf("unexpected ATR period default: %d", cfg.Risk.ATRPeriod)
	}
	if cfg.Risk.Tiers.High != 5.0 {
		t.Fatalf("unexpected high tier default: %.1f", cfg.Risk.Tiers.High)
	}
	if cfg.Feed.ReconnectDelaySecs != 10 {
		t.Fatalf("unexpected reconnect default: %d", cfg.Feed.ReconnectDelaySecs)
	}
	if cfg.Monitor.ErrorPollSecs != 10 {
		t.Fatalf("unexpected error poll default: %d", cfg.Monitor.ErrorPollSecs)
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("FEED_API_TOKEN", "feed-token")
	t.Setenv("ASSISTANT_API_KEY", "assistant-key")
	t.Setenv("ASSISTANT_ID", "asst_123")
	t.Setenv("TELEGRAM_BOT_TOKEN", "bot-token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	creds, err := CredentialsFromEnv()
	if err != nil {
		t.Fatalf("CredentialsFromEnv returned error: %v", err)
	}
	if creds.AssistantID != "asst_123" || creds.TelegramChatID != "42" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
}

func TestCredentialsMissing(t *testing.T) {
	t.Setenv("FEED_API_TOKEN", "feed-token")
	t.Setenv("ASSISTANT_API_KEY", "")
	t.Setenv("ASSISTANT_ID", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "bot-token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	_, err := CredentialsFromEnv()
	if err == nil {
		t.Fatalf("expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "ASSISTANT_API_KEY") || !strings.Contains(err.Error(), "ASSISTANT_ID") {
		t.Fatalf("error does not name missing variables: %v", err)
	}
}
