// Package guard serializes trade attempts through one coarse lock: duplicate
// position protection, the daily trade cap, the post-loss cooldown, and
// market-condition checks.
package guard

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"newsbot-go/internal/broker"
	"newsbot-go/internal/config"
	"newsbot-go/internal/metrics"
)

// Guard owns the process-wide execution state. Every field behind mu is
// mutated only while holding it; callers never see the state directly.
type Guard struct {
	mu            sync.Mutex
	open          map[string]struct{}
	tradeDate     string // UTC calendar date of the counter
	tradesToday   int
	cooldownUntil time.Time

	maxPerDay          int
	cooldown           time.Duration
	liquidityStartHour int
	maxSpreadPoints    float64

	log zerolog.Logger
	now func() time.Time
}

// New builds a guard from config with a real clock.
func New(cfg config.Guard, log zerolog.Logger) *Guard {
	return &Guard{
		open:               make(map[string]struct{}),
		maxPerDay:          cfg.MaxTradesPerDay,
		cooldown:           time.Duration(cfg.CooldownMins) * time.Minute,
		liquidityStartHour: cfg.LiquidityStartHour,
		maxSpreadPoints:    cfg.MaxSpreadPoints,
		log:                log,
		now:                time.Now,
	}
}

// Cooldown returns the configured post-loss cooldown duration.
func (g *Guard) Cooldown() time.Duration { return g.cooldown }

// Acquire atomically claims the symbol's position slot. The second return is
// false when the symbol already holds a pending or open position. The caller
// must defer the release func on every exit path of the attempt.
func (g *Guard) Acquire(symbol string) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.open[symbol]; held {
		metrics.OrdersSuppressed.WithLabelValues("duplicate").Inc()
		return nil, false
	}
	g.open[symbol] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.open, symbol)
			g.mu.Unlock()
		})
	}
	return release, true
}

// CanTrade checks the daily cap and the cooldown. The daily counter resets
// lazily the first time a new UTC date is observed.
func (g *Guard) CanTrade() (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	g.rollDateLocked(now)

	if g.maxPerDay > 0 && g.tradesToday >= g.maxPerDay {
		metrics.OrdersSuppressed.WithLabelValues("daily_cap").Inc()
		return false, fmt.Sprintf("daily trade cap reached (%d)", g.maxPerDay)
	}
	if now.Before(g.cooldownUntil) {
		metrics.OrdersSuppressed.WithLabelValues("cooldown").Inc()
		return false, fmt.Sprintf("cooldown active until %s", g.cooldownUntil.UTC().Format(time.RFC3339))
	}
	return true, ""
}

// CheckMarket rejects trades before the liquidity-start hour and when the
// spread in points exceeds the configured maximum.
func (g *Guard) CheckMarket(tick broker.Tick, info broker.SymbolInfo) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if hour := g.now().UTC().Hour(); hour < g.liquidityStartHour {
		metrics.OrdersSuppressed.WithLabelValues("liquidity_hour").Inc()
		return false, fmt.Sprintf("hour %d before liquidity start %d", hour, g.liquidityStartHour)
	}
	if g.maxSpreadPoints > 0 && info.Point > 0 {
		spread := (tick.Ask - tick.Bid) / info.Point
		if spread > g.maxSpreadPoints {
			metrics.OrdersSuppressed.WithLabelValues("spread").Inc()
			return false, fmt.Sprintf("spread %.1f points exceeds max %.1f", spread, g.maxSpreadPoints)
		}
	}
	return true, ""
}

// RegisterTrade counts one successful order against today's cap.
func (g *Guard) RegisterTrade() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollDateLocked(g.now().UTC())
	g.tradesToday++
}

// TradesToday reports the counter for the current UTC date.
func (g *Guard) TradesToday() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollDateLocked(g.now().UTC())
	return g.tradesToday
}

// ExtendCooldown moves the cooldown deadline forward to until. A deadline
// earlier than the current one is ignored: the cooldown never shortens.
func (g *Guard) ExtendCooldown(until time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if until.After(g.cooldownUntil) {
		g.cooldownUntil = until
		g.log.Info().Time("until", until.UTC()).Msg("cooldown extended")
	}
}

// CooldownUntil returns the current cooldown deadline.
func (g *Guard) CooldownUntil() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cooldownUntil
}

func (g *Guard) rollDateLocked(now time.Time) {
	date := now.Format("2006-01-02")
	if date != g.tradeDate {
		g.tradeDate = date
		g.tradesToday = 0
	}
}
