package execution

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"newsbot-go/internal/audit"
	"newsbot-go/internal/broker"
	"newsbot-go/internal/config"
	"newsbot-go/internal/risk"
	"newsbot-go/internal/signal"
)

type captureNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (c *captureNotifier) Send(ctx context.Context, text string) {
	c.mu.Lock()
	c.msgs = append(c.msgs, text)
	c.mu.Unlock()
}

func (c *captureNotifier) joined() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.msgs, "\n---\n")
}

func orderConfig() config.Order {
	return config.Order{DeviationPoints: 10, MagicNumber: 230523}
}

func eurusdSim() *broker.Sim {
	sim := broker.NewSim(10000)
	sim.AddSymbol(broker.SymbolInfo{
		Name: "EURUSD", Point: 0.0001, TickSize: 0.0001, TickValue: 1,
		VolumeMin: 0.01, VolumeMax: 100, VolumeStep: 0.01, Visible: true,
	})
	sim.SetTick("EURUSD", broker.Tick{Bid: 1.0999, Ask: 1.1001, Time: time.Now()})
	return sim
}

func TestOpenSuccess(t *testing.T) {
	sim := eurusdSim()
	notifier := &captureNotifier{}
	log := audit.NewMemory()
	exec := NewExecutor(sim, notifier, log, orderConfig(), zerolog.Nop())

	received := time.Now().Add(-2 * time.Second)
	sig := signal.Signal{Action: signal.Buy, Symbol: "EURUSD", Reason: "CPI beat forecast"}
	ok := exec.Open(context.Background(), sig, 0.5, risk.Levels{Stop: 1.0985, Target: 1.1030}, received)
	if !ok {
		t.Fatalf("expected successful open")
	}

	out := notifier.joined()
	if !strings.Contains(out, "Trade opened: BUY EURUSD") {
		t.Fatalf("missing open notification: %s", out)
	}
	if !strings.Contains(out, "CPI beat forecast") {
		t.Fatalf("missing reason in notification: %s", out)
	}

	last, found := log.LastTrade()
	if !found || last.Kind != audit.KindOpen {
		t.Fatalf("expected an open audit record, got %+v", last)
	}
	// BUY enters at the ask fetched at execution time.
	if last.Open.Price != 1.1001 {
		t.Fatalf("expected entry at ask 1.1001, got %.5f", last.Open.Price)
	}
	if last.Open.LatencyMs < 2000 {
		t.Fatalf("expected latency >= 2000ms, got %d", last.Open.LatencyMs)
	}
}

func TestOpenSellUsesBid(t *testing.T) {
	sim := eurusdSim()
	log := audit.NewMemory()
	exec := NewExecutor(sim, &captureNotifier{}, log, orderConfig(), zerolog.Nop())

	sig := signal.Signal{Action: signal.Sell, Symbol: "EURUSD", Reason: "NFP miss"}
	if !exec.Open(context.Background(), sig, 0.1, risk.Levels{Stop: 1.1015, Target: 1.0970}, time.Now()) {
		t.Fatalf("expected successful open")
	}
	last, _ := log.LastTrade()
	if last.Open.Price != 1.0999 {
		t.Fatalf("expected entry at bid 1.0999, got %.5f", last.Open.Price)
	}
}

func TestOpenBrokerRejection(t *testing.T) {
	sim := eurusdSim()
	sim.ForceRetcode(10018, "market closed")
	notifier := &captureNotifier{}
	log := audit.NewMemory()
	exec := NewExecutor(sim, notifier, log, orderConfig(), zerolog.Nop())

	sig := signal.Signal{Action: signal.Buy, Symbol: "EURUSD", Reason: "CPI"}
	if exec.Open(context.Background(), sig, 0.5, risk.Levels{}, time.Now()) {
		t.Fatalf("expected rejection")
	}
	out := notifier.joined()
	if !strings.Contains(out, "10018") || !strings.Contains(out, "market closed") {
		t.Fatalf("rejection notification missing broker code/text: %s", out)
	}
	if _, found := log.LastTrade(); found {
		t.Fatalf("rejected order must not append an audit record")
	}
}

func TestOpenNoResult(t *testing.T) {
	sim := eurusdSim()
	sim.ForceSendError(errors.New("gateway down"))
	notifier := &captureNotifier{}
	exec := NewExecutor(sim, notifier, audit.NewMemory(), orderConfig(), zerolog.Nop())

	sig := signal.Signal{Action: signal.Buy, Symbol: "EURUSD", Reason: "CPI"}
	if exec.Open(context.Background(), sig, 0.5, risk.Levels{}, time.Now()) {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(notifier.joined(), "unknown error") {
		t.Fatalf("expected unknown-error notification: %s", notifier.joined())
	}
}

func TestOpenTruncatesCommentReason(t *testing.T) {
	sim := eurusdSim()
	exec := NewExecutor(sim, &captureNotifier{}, audit.NewMemory(), orderConfig(), zerolog.Nop())

	long := strings.Repeat("x", 100)
	sig := signal.Signal{Action: signal.Buy, Symbol: "EURUSD", Reason: long}
	if !exec.Open(context.Background(), sig, 0.5, risk.Levels{}, time.Now()) {
		t.Fatalf("expected success")
	}

	req := sim.LastRequest()
	if req == nil {
		t.Fatalf("no order recorded")
	}
	if want := "NewsBot: " + strings.Repeat("x", 20); req.Comment != want {
		t.Fatalf("comment not truncated: %q", req.Comment)
	}
	if req.TimeInForce != broker.TimeGTC || req.Filling != broker.FillingIOC {
		t.Fatalf("unexpected order policies: %+v", req)
	}
	if req.Magic != 230523 || req.DeviationPoints != 10 {
		t.Fatalf("unexpected ownership tag or deviation: %+v", req)
	}
}
