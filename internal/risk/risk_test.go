package risk

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"newsbot-go/internal/broker"
	"newsbot-go/internal/config"
	"newsbot-go/internal/signal"
)

func testSizer() *Sizer {
	return NewSizer(config.Risk{
		StopMultiplier:   1.5,
		TargetMultiplier: 3.0,
		Tiers:            config.RiskTiers{Low: 1.0, Medium: 2.5, High: 5.0},
	}, zerolog.Nop())
}

func majorsInfo() broker.SymbolInfo {
	return broker.SymbolInfo{
		Name:       "EURUSD",
		Point:      0.0001,
		TickSize:   0.0001,
		TickValue:  1,
		VolumeMin:  0.01,
		VolumeMax:  100,
		VolumeStep: 0.01,
		Visible:    true,
	}
}

func TestVolumeWorkedExample(t *testing.T) {
	// balance 10000, risk 5%, stop 20 points away => 10000*0.05/(20*1) = 25 lots.
	s := testSizer()
	vol, err := s.Volume(10000, 5, 1.1000, 1.0980, majorsInfo())
	if err != nil {
		t.Fatalf("Volume returned error: %v", err)
	}
	if math.Abs(vol-25) > 1e-9 {
		t.Fatalf("expected 25 lots, got %v", vol)
	}
}

func TestVolumeClampedToMax(t *testing.T) {
	info := majorsInfo()
	info.VolumeMax = 10
	s := testSizer()
	vol, err := s.Volume(10000, 5, 1.1000, 1.0980, info)
	if err != nil {
		t.Fatalf("Volume returned error: %v", err)
	}
	if vol != 10 {
		t.Fatalf("expected clamp to max 10, got %v", vol)
	}
}

func TestVolumeClampedToMin(t *testing.T) {
	s := testSizer()
	vol, err := s.Volume(100, 0.1, 1.1000, 1.0800, majorsInfo())
	if err != nil {
		t.Fatalf("Volume returned error: %v", err)
	}
	if vol != 0.01 {
		t.Fatalf("expected clamp to min 0.01, got %v", vol)
	}
}

func TestVolumeZeroDivisors(t *testing.T) {
	s := testSizer()

	info := majorsInfo()
	info.TickSize = 0
	if _, err := s.Volume(10000, 5, 1.1, 1.09, info); err == nil {
		t.Fatalf("expected error for zero tick size")
	}

	info = majorsInfo()
	info.Point = 0
	if _, err := s.Volume(10000, 5, 1.1, 1.09, info); err == nil {
		t.Fatalf("expected error for zero point")
	}

	info = majorsInfo()
	info.TickValue = 0
	if _, err := s.Volume(10000, 5, 1.1, 1.09, info); err == nil {
		t.Fatalf("expected error for zero value per point")
	}

	if _, err := s.Volume(10000, 5, 1.1, 1.1, majorsInfo()); err == nil {
		t.Fatalf("expected error for zero stop distance")
	}
}

func TestPercentByImportance(t *testing.T) {
	s := testSizer()
	if got := s.Percent(1); got != 1.0 {
		t.Fatalf("tier 1: got %v", got)
	}
	if got := s.Percent(2); got != 2.5 {
		t.Fatalf("tier 2: got %v", got)
	}
	if got := s.Percent(3); got != 5.0 {
		t.Fatalf("tier 3: got %v", got)
	}
}

func TestLevelsMirroredForSell(t *testing.T) {
	s := testSizer()
	atr := 0.0010

	buy := s.Levels(signal.Buy, 1.1000, atr)
	if math.Abs(buy.Stop-1.0985) > 1e-9 || math.Abs(buy.Target-1.1030) > 1e-9 {
		t.Fatalf("unexpected buy levels: %+v", buy)
	}

	sell := s.Levels(signal.Sell, 1.1000, atr)
	if math.Abs(sell.Stop-1.1015) > 1e-9 || math.Abs(sell.Target-1.0970) > 1e-9 {
		t.Fatalf("unexpected sell levels: %+v", sell)
	}
}

func TestATR(t *testing.T) {
	base := time.Now()
	bars := []broker.Bar{
		{Time: base, Open: 10, High: 11, Low: 9, Close: 10},
		{Time: base, Open: 10, High: 12, Low: 10, Close: 11}, // TR 2
		{Time: base, Open: 11, High: 11, Low: 9, Close: 10},  // TR 2
	}
	atr, err := ATR(bars, 2)
	if err != nil {
		t.Fatalf("ATR returned error: %v", err)
	}
	if math.Abs(atr-2) > 1e-9 {
		t.Fatalf("expected ATR 2, got %v", atr)
	}
}

func TestATRGapUsesPreviousClose(t *testing.T) {
	base := time.Now()
	bars := []broker.Bar{
		{Time: base, Close: 10},
		{Time: base, High: 15, Low: 14, Close: 14}, // gap up: TR = 15-10 = 5
	}
	atr, err := ATR(bars, 1)
	if err != nil {
		t.Fatalf("ATR returned error: %v", err)
	}
	if math.Abs(atr-5) > 1e-9 {
		t.Fatalf("expected ATR 5 across the gap, got %v", atr)
	}
}

func TestATRInsufficientBars(t *testing.T) {
	bars := make([]broker.Bar, 14)
	if _, err := ATR(bars, 14); err == nil {
		t.Fatalf("expected error with only period bars")
	}
}
