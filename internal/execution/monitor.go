package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"newsbot-go/internal/audit"
	"newsbot-go/internal/broker"
	"newsbot-go/internal/config"
	"newsbot-go/internal/guard"
	"newsbot-go/internal/metrics"
	"newsbot-go/internal/notify"
)

// Monitor polls closed-deal history and feeds losses into the guard's
// cooldown. Deals are deduplicated by ticket; seen tickets are evicted once
// their close time falls out of the lookback window, which keeps the set
// bounded.
type Monitor struct {
	term     broker.Terminal
	guard    *guard.Guard
	audit    *audit.Log
	notifier notify.Notifier
	log      zerolog.Logger

	poll     time.Duration
	errPoll  time.Duration
	lookback time.Duration

	seen map[int64]time.Time
	now  func() time.Time
}

// NewMonitor builds the lifecycle monitor from config.
func NewMonitor(term broker.Terminal, g *guard.Guard, auditLog *audit.Log, notifier notify.Notifier, cfg config.Monitor, log zerolog.Logger) *Monitor {
	return &Monitor{
		term:     term,
		guard:    g,
		audit:    auditLog,
		notifier: notifier,
		log:      log,
		poll:     time.Duration(cfg.PollSecs) * time.Second,
		errPoll:  time.Duration(cfg.ErrorPollSecs) * time.Second,
		lookback: time.Duration(cfg.LookbackDays) * 24 * time.Hour,
		seen:     make(map[int64]time.Time),
		now:      time.Now,
	}
}

// Run polls until the context is canceled, backing off to the error interval
// after a failed sweep.
func (m *Monitor) Run(ctx context.Context) {
	delay := m.poll
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if err := m.sweep(ctx); err != nil {
			m.log.Warn().Err(err).Msg("closed-deal sweep failed")
			delay = m.errPoll
		} else {
			delay = m.poll
		}
	}
}

func (m *Monitor) sweep(ctx context.Context) error {
	now := m.now()
	deals, err := m.term.ClosedDeals(ctx, now.Add(-m.lookback), now)
	if err != nil {
		return err
	}

	for _, deal := range deals {
		if _, dup := m.seen[deal.Ticket]; dup {
			continue
		}
		m.seen[deal.Ticket] = deal.Time
		m.handleClosed(ctx, now, deal)
	}

	cutoff := now.Add(-m.lookback)
	for ticket, closedAt := range m.seen {
		if closedAt.Before(cutoff) {
			delete(m.seen, ticket)
		}
	}
	return nil
}

func (m *Monitor) handleClosed(ctx context.Context, now time.Time, deal broker.Deal) {
	if deal.Profit < 0 {
		until := now.Add(m.guard.Cooldown())
		m.guard.ExtendCooldown(until)
		metrics.CooldownActivations.Inc()
		m.log.Info().Int64("ticket", deal.Ticket).Float64("profit", deal.Profit).Time("cooldown_until", until.UTC()).Msg("losing deal closed, cooldown extended")
		m.notifier.Send(ctx, fmt.Sprintf("🔻 Trade #%d %s closed at a loss (%.2f). Trading paused until %s.",
			deal.Ticket, deal.Symbol, deal.Profit, m.guard.CooldownUntil().UTC().Format(time.RFC822)))
	} else {
		m.log.Info().Int64("ticket", deal.Ticket).Float64("profit", deal.Profit).Msg("deal closed")
		m.notifier.Send(ctx, fmt.Sprintf("✅ Trade #%d %s closed, profit %.2f.", deal.Ticket, deal.Symbol, deal.Profit))
	}

	m.audit.Append(audit.NewCloseRecord(deal.Time, audit.CloseEntry{
		Ticket: deal.Ticket,
		Symbol: deal.Symbol,
		Action: string(deal.Side),
		Volume: deal.Volume,
		Price:  deal.Price,
		Profit: deal.Profit,
	}))
}
