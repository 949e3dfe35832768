// Binary bot runs the live news-driven trading engine against the terminal
// gateway configured in config.yaml. Credentials come from the environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"newsbot-go/internal/audit"
	"newsbot-go/internal/broker"
	"newsbot-go/internal/config"
	"newsbot-go/internal/execution"
	"newsbot-go/internal/guard"
	"newsbot-go/internal/metrics"
	"newsbot-go/internal/news"
	"newsbot-go/internal/notify"
	"newsbot-go/internal/risk"
	"newsbot-go/internal/signal"
	"newsbot-go/internal/util"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	// Best effort: a missing .env is fine when the variables are already set.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := util.NewLogger(cfg.App.LogLevel)

	creds, err := config.CredentialsFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("startup configuration incomplete")
	}

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	term := broker.NewGateway(cfg.Broker.GatewayURL)
	account, err := term.Account(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("terminal gateway unreachable, check that the terminal is running")
	}
	log.Info().Int64("login", account.Login).Str("server", account.Server).
		Float64("balance", account.Balance).Str("currency", account.Currency).
		Msg("connected to trading account")

	auditLog, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Audit.Path).Msg("open audit log")
	}
	defer auditLog.Close()

	notifier := notify.NewTelegram(creds.TelegramBotToken, creds.TelegramChatID, util.Component(log, "notify"))
	g := guard.New(cfg.Guard, util.Component(log, "guard"))
	sizer := risk.NewSizer(cfg.Risk, util.Component(log, "risk"))
	assistant := signal.NewAssistant(cfg.Assistant.BaseURL, creds.AssistantKey, creds.AssistantID)
	acquirer := signal.NewAcquirer(
		assistant,
		time.Duration(cfg.Assistant.PollIntervalMs)*time.Millisecond,
		time.Duration(cfg.Assistant.TimeoutSecs)*time.Second,
		util.Component(log, "signal"),
	)
	executor := execution.NewExecutor(term, notifier, auditLog, cfg.Order, util.Component(log, "executor"))

	pipeline := &execution.Pipeline{
		Filter:       news.NewFilter(cfg.Filter),
		Acquirer:     acquirer,
		Sizer:        sizer,
		Guard:        g,
		Executor:     executor,
		Term:         term,
		Audit:        auditLog,
		Notifier:     notifier,
		Log:          util.Component(log, "pipeline"),
		ATRPeriod:    cfg.Risk.ATRPeriod,
		ATRTimeframe: time.Duration(cfg.Risk.ATRTimeframeMins) * time.Minute,
	}

	monitor := execution.NewMonitor(term, g, auditLog, notifier, cfg.Monitor, util.Component(log, "monitor"))
	go monitor.Run(ctx)

	commander := notify.NewCommander(notifier, auditLog, util.Component(log, "commands"))
	go commander.Run(ctx)

	feedURL := cfg.Feed.URL
	if creds.FeedToken != "" {
		feedURL += "?token=" + url.QueryEscape(creds.FeedToken)
	}
	feed := news.NewFeed(feedURL, time.Duration(cfg.Feed.ReconnectDelaySecs)*time.Second, util.Component(log, "feed"))
	events := make(chan news.Event, 256)
	go func() {
		if err := feed.Run(ctx, events); err != nil {
			log.Error().Err(err).Msg("news feed stopped")
			cancel()
		}
	}()

	notifier.Send(ctx, "✅ Bot started. Connected to the news stream.")
	log.Info().Msg("engine started")

	pipeline.Run(ctx, events)
	log.Info().Msg("shutting down")
}
