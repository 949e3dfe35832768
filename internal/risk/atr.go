// Package risk computes volatility estimates and risk-bounded position sizes.
package risk

import (
	"fmt"
	"math"

	"newsbot-go/internal/broker"
)

// ATR averages the true range over the trailing period. It needs period+1
// bars so every true range has a previous close; fewer bars is a hard failure
// for the attempt.
func ATR(bars []broker.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("atr period must be positive, got %d", period)
	}
	if len(bars) < period+1 {
		return 0, fmt.Errorf("atr needs %d bars, have %d", period+1, len(bars))
	}

	bars = bars[len(bars)-(period+1):]
	var sum float64
	for i := 1; i < len(bars); i++ {
		sum += trueRange(bars[i], bars[i-1].Close)
	}
	return sum / float64(period), nil
}

func trueRange(bar broker.Bar, prevClose float64) float64 {
	tr := bar.High - bar.Low
	if hc := math.Abs(bar.High - prevClose); hc > tr {
		tr = hc
	}
	if lc := math.Abs(bar.Low - prevClose); lc > tr {
		tr = lc
	}
	return tr
}
