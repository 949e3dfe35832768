package execution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"newsbot-go/internal/audit"
	"newsbot-go/internal/broker"
	"newsbot-go/internal/guard"
	"newsbot-go/internal/metrics"
	"newsbot-go/internal/news"
	"newsbot-go/internal/notify"
	"newsbot-go/internal/risk"
	"newsbot-go/internal/signal"
)

// Pipeline runs the filter → signal → size → guard → execute chain. Each
// accepted news event is processed as its own goroutine so a slow remote
// signal call never blocks ingestion of the next event.
type Pipeline struct {
	Filter   *news.Filter
	Acquirer *signal.Acquirer
	Sizer    *risk.Sizer
	Guard    *guard.Guard
	Executor *Executor
	Term     broker.Terminal
	Audit    *audit.Log
	Notifier notify.Notifier
	Log      zerolog.Logger

	ATRPeriod    int
	ATRTimeframe time.Duration
}

// Run dispatches events until the context is canceled.
func (p *Pipeline) Run(ctx context.Context, events <-chan news.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			go p.Process(ctx, ev)
		}
	}
}

// Process handles one news event end to end. Unexpected failures are
// contained here: they terminate this task only, never the process.
func (p *Pipeline) Process(ctx context.Context, ev news.Event) {
	defer func() {
		if r := recover(); r != nil {
			p.Log.Error().Interface("panic", r).Str("title", ev.Title).Msg("news task failed unexpectedly")
			p.Notifier.Send(ctx, fmt.Sprintf("⚠️ Internal error while processing news: %v", r))
		}
	}()

	dec := p.Filter.Evaluate(ev)
	p.Audit.Append(audit.NewFilterRecord(ev.Received, ev.Title, dec.Accept, dec.Reason))
	if !dec.Accept {
		metrics.FilterRejects.WithLabelValues(rejectLabel(dec.Reason)).Inc()
		p.Log.Debug().Str("title", ev.Title).Str("reason", dec.Reason).Msg("news rejected")
		return
	}
	p.Log.Info().Str("title", ev.Title).Int("importance", ev.Importance).Msg("news accepted")

	sig, ok := p.Acquirer.Acquire(ctx, ev.Title)
	if !ok {
		return
	}
	if sig.Action == signal.Skip {
		p.Log.Info().Str("title", ev.Title).Str("reason", sig.Reason).Msg("assistant recommends skip")
		return
	}

	p.attempt(ctx, ev, sig)
}

func (p *Pipeline) attempt(ctx context.Context, ev news.Event, sig signal.Signal) {
	metrics.OrdersAttempted.Inc()

	info, err := p.Term.SymbolInfo(ctx, sig.Symbol)
	if err != nil {
		p.abort(ctx, fmt.Sprintf("Symbol %s metadata unavailable: %v", sig.Symbol, err))
		return
	}
	if !info.Visible {
		p.abort(ctx, fmt.Sprintf("Symbol %s is not available for trading at this broker.", sig.Symbol))
		return
	}

	release, ok := p.Guard.Acquire(sig.Symbol)
	if !ok {
		p.abort(ctx, fmt.Sprintf("Skipping %s: a position for this symbol is already pending or open.", sig.Symbol))
		return
	}
	defer release()

	if ok, reason := p.Guard.CanTrade(); !ok {
		p.abort(ctx, fmt.Sprintf("Skipping %s %s: %s.", sig.Action, sig.Symbol, reason))
		return
	}

	tick, err := p.Term.Tick(ctx, sig.Symbol)
	if err != nil {
		p.abort(ctx, fmt.Sprintf("No current price for %s: %v", sig.Symbol, err))
		return
	}
	if ok, reason := p.Guard.CheckMarket(tick, info); !ok {
		p.abort(ctx, fmt.Sprintf("Market conditions reject %s: %s.", sig.Symbol, reason))
		return
	}

	bars, err := p.Term.Bars(ctx, sig.Symbol, p.ATRTimeframe, p.ATRPeriod+1)
	if err != nil {
		p.abort(ctx, fmt.Sprintf("No volatility data for %s: %v", sig.Symbol, err))
		return
	}
	atr, err := risk.ATR(bars, p.ATRPeriod)
	if err != nil {
		p.abort(ctx, fmt.Sprintf("ATR calculation failed for %s: %v", sig.Symbol, err))
		return
	}

	entry := tick.Ask
	if sig.Action == signal.Sell {
		entry = tick.Bid
	}
	levels := p.Sizer.Levels(sig.Action, entry, atr)

	account, err := p.Term.Account(ctx)
	if err != nil {
		p.abort(ctx, fmt.Sprintf("Account query failed: %v", err))
		return
	}

	percent := p.Sizer.Percent(ev.Importance)
	volume, err := p.Sizer.Volume(account.Balance, percent, entry, levels.Stop, info)
	if err != nil {
		p.abort(ctx, fmt.Sprintf("Position sizing failed for %s: %v", sig.Symbol, err))
		return
	}

	if p.Executor.Open(ctx, sig, volume, levels, ev.Received) {
		p.Guard.RegisterTrade()
	}
}

func (p *Pipeline) abort(ctx context.Context, msg string) {
	p.Log.Error().Msg(msg)
	p.Notifier.Send(ctx, "⚠️ "+msg)
}

// rejectLabel collapses parameterized reject reasons to keep metric label
// cardinality bounded.
func rejectLabel(reason string) string {
	switch {
	case strings.HasPrefix(reason, "impact="):
		return "impact"
	case strings.HasPrefix(reason, "type="):
		return "type"
	case reason == "not in whitelist":
		return "whitelist"
	default:
		return reason
	}
}
