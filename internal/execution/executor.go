// Package execution orchestrates the news-to-order pipeline, submits orders,
// and watches the trade lifecycle.
package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"newsbot-go/internal/audit"
	"newsbot-go/internal/broker"
	"newsbot-go/internal/config"
	"newsbot-go/internal/metrics"
	"newsbot-go/internal/notify"
	"newsbot-go/internal/risk"
	"newsbot-go/internal/signal"
)

// Executor builds and submits orders and interprets broker results.
type Executor struct {
	term     broker.Terminal
	notifier notify.Notifier
	audit    *audit.Log
	log      zerolog.Logger

	deviation int
	magic     int64
	now       func() time.Time
}

// NewExecutor wires the executor to the terminal, the notifier, and the audit log.
func NewExecutor(term broker.Terminal, notifier notify.Notifier, auditLog *audit.Log, cfg config.Order, log zerolog.Logger) *Executor {
	return &Executor{
		term:      term,
		notifier:  notifier,
		audit:     auditLog,
		log:       log,
		deviation: cfg.DeviationPoints,
		magic:     cfg.MagicNumber,
		now:       time.Now,
	}
}

const maxCommentReason = 20

// Open re-fetches the tradable price, submits the order, and handles the
// result. It returns true only when the broker accepted the order. The price
// captured earlier in the pipeline is never reused here; quotes go stale
// while the signal and sizing stages run.
func (e *Executor) Open(ctx context.Context, sig signal.Signal, volume float64, lv risk.Levels, receivedAt time.Time) bool {
	tick, err := e.term.Tick(ctx, sig.Symbol)
	if err != nil {
		e.log.Error().Err(err).Str("symbol", sig.Symbol).Msg("no current price at execution")
		e.notifier.Send(ctx, fmt.Sprintf("⚠️ Could not fetch current price for %s, trade aborted.", sig.Symbol))
		metrics.OrdersFailed.Inc()
		return false
	}

	price := tick.Ask
	if sig.Action == signal.Sell {
		price = tick.Bid
	}

	reason := sig.Reason
	if len(reason) > maxCommentReason {
		reason = reason[:maxCommentReason]
	}

	req := broker.OrderRequest{
		Symbol:          sig.Symbol,
		Side:            broker.Side(sig.Action),
		Volume:          volume,
		Price:           price,
		Stop:            lv.Stop,
		Target:          lv.Target,
		DeviationPoints: e.deviation,
		Magic:           e.magic,
		Comment:         "NewsBot: " + reason,
		TimeInForce:     broker.TimeGTC,
		Filling:         broker.FillingIOC,
	}

	result, err := e.term.Send(ctx, req)
	if err != nil || result == nil {
		e.log.Error().Err(err).Str("symbol", sig.Symbol).Msg("order submission returned no result")
		e.notifier.Send(ctx, fmt.Sprintf("❌ Order failed for %s %s: unknown error.", sig.Action, sig.Symbol))
		metrics.OrdersFailed.Inc()
		return false
	}

	if !result.Done() {
		e.log.Error().Int("retcode", result.Retcode).Str("comment", result.Comment).Str("symbol", sig.Symbol).Msg("broker rejected order")
		e.notifier.Send(ctx, fmt.Sprintf("❌ Order rejected: %s %s\nBroker code: %d - %s", sig.Action, sig.Symbol, result.Retcode, result.Comment))
		metrics.OrdersFailed.Inc()
		return false
	}

	latency := e.now().Sub(receivedAt)
	e.log.Info().Int64("order", result.Order).Str("symbol", sig.Symbol).Float64("volume", result.Volume).Dur("latency", latency).Msg("trade opened")
	e.notifier.Send(ctx, fmt.Sprintf(
		"✅ Trade opened: %s %s\n🔹 Entry: %.5f\n🔹 Volume: %.2f\n🛑 Stop: %.5f\n🎯 Target: %.5f\nReason: %s\nLatency: %s",
		sig.Action, sig.Symbol, result.Price, result.Volume, lv.Stop, lv.Target, sig.Reason, latency.Round(time.Millisecond),
	))
	e.audit.Append(audit.NewOpenRecord(e.now(), audit.OpenEntry{
		Symbol:    sig.Symbol,
		Action:    string(sig.Action),
		Volume:    result.Volume,
		Price:     result.Price,
		Stop:      lv.Stop,
		Target:    lv.Target,
		Reason:    sig.Reason,
		LatencyMs: latency.Milliseconds(),
	}))
	metrics.OrdersPlaced.Inc()
	return true
}
