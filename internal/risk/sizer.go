package risk

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"newsbot-go/internal/broker"
	"newsbot-go/internal/config"
	"newsbot-go/internal/signal"
)

// Levels are the stop and target prices for one order.
type Levels struct {
	Stop   float64
	Target float64
}

// Sizer derives stop/target distances from volatility and a position size
// bounded by account risk. The per-tier percentages are policy knobs; the
// engine does not cap them.
type Sizer struct {
	tiers            config.RiskTiers
	stopMultiplier   float64
	targetMultiplier float64
	log              zerolog.Logger
}

// NewSizer builds a sizer from config. Tiers above 2 percent get a startup
// warning but are honored as configured.
func NewSizer(cfg config.Risk, log zerolog.Logger) *Sizer {
	for tier, pct := range map[string]float64{"low": cfg.Tiers.Low, "medium": cfg.Tiers.Medium, "high": cfg.Tiers.High} {
		if pct > 2.0 {
			log.Warn().Str("tier", tier).Float64("risk_percent", pct).Msg("risk tier above 2% of balance per trade")
		}
	}
	return &Sizer{
		tiers:            cfg.Tiers,
		stopMultiplier:   cfg.StopMultiplier,
		targetMultiplier: cfg.TargetMultiplier,
		log:              log,
	}
}

// Percent selects the risk percentage for a news importance tier.
func (s *Sizer) Percent(importance int) float64 {
	switch {
	case importance <= 1:
		return s.tiers.Low
	case importance == 2:
		return s.tiers.Medium
	default:
		return s.tiers.High
	}
}

// Levels places the stop and target around the entry price using the ATR
// multipliers, mirrored for sells.
func (s *Sizer) Levels(action signal.Action, entry, atr float64) Levels {
	stopDist := atr * s.stopMultiplier
	targetDist := atr * s.targetMultiplier
	if action == signal.Sell {
		return Levels{Stop: entry + stopDist, Target: entry - targetDist}
	}
	return Levels{Stop: entry - stopDist, Target: entry + targetDist}
}

// Volume sizes the position so that a stop-out loses riskPercent of balance,
// then steps and clamps it into the broker's volume limits. Any zero divisor
// in the chain is a hard failure, never silently defaulted.
func (s *Sizer) Volume(balance, riskPercent, entry, stop float64, info broker.SymbolInfo) (float64, error) {
	if info.TickSize == 0 || info.Point == 0 {
		return 0, fmt.Errorf("invalid tick_size/point metadata for %s", info.Name)
	}

	riskAmount := balance * (riskPercent / 100.0)
	valuePerPoint := info.TickValue * (info.Point / info.TickSize)
	if valuePerPoint == 0 {
		return 0, fmt.Errorf("zero value per point for %s", info.Name)
	}

	stopPoints := math.Abs(entry-stop) / info.Point
	if stopPoints == 0 {
		return 0, fmt.Errorf("zero stop distance for %s", info.Name)
	}

	volume := riskAmount / (stopPoints * valuePerPoint)
	if info.VolumeStep > 0 {
		volume = math.Round(volume/info.VolumeStep) * info.VolumeStep
	}

	if volume < info.VolumeMin {
		s.log.Warn().Str("symbol", info.Name).Float64("volume", volume).Float64("min", info.VolumeMin).Msg("volume below broker minimum, clamping up")
		volume = info.VolumeMin
	}
	if info.VolumeMax > 0 && volume > info.VolumeMax {
		s.log.Warn().Str("symbol", info.Name).Float64("volume", volume).Float64("max", info.VolumeMax).Msg("volume above broker maximum, clamping down")
		volume = info.VolumeMax
	}
	return volume, nil
}
