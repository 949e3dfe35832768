// Binary paper runs the pipeline against the simulated terminal: scripted
// news, a scripted assistant, and in-memory fills. No real orders are sent.
package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"newsbot-go/internal/audit"
	"newsbot-go/internal/broker"
	"newsbot-go/internal/config"
	"newsbot-go/internal/execution"
	"newsbot-go/internal/guard"
	"newsbot-go/internal/news"
	"newsbot-go/internal/risk"
	"newsbot-go/internal/signal"
	"newsbot-go/internal/util"
)

type scriptedAssistant struct{}

func (scriptedAssistant) Submit(ctx context.Context, text string) (string, error) {
	return "paper-run", nil
}
func (scriptedAssistant) Poll(ctx context.Context, handle string) (signal.RunStatus, error) {
	return signal.StatusCompleted, nil
}
func (scriptedAssistant) Fetch(ctx context.Context, handle string) (string, error) {
	return "BUY EURUSD\nscripted paper signal", nil
}
func (scriptedAssistant) Cancel(ctx context.Context, handle string) error { return nil }

type consoleNotifier struct{}

func (consoleNotifier) Send(ctx context.Context, text string) {
	fmt.Println("[notify]", text)
}

func main() {
	log := util.NewLogger("debug")

	sim := broker.NewSim(10000)
	sim.AddSymbol(broker.SymbolInfo{
		Name: "EURUSD", Point: 0.0001, TickSize: 0.0001, TickValue: 1,
		VolumeMin: 0.01, VolumeMax: 100, VolumeStep: 0.01, Visible: true,
	})
	sim.SetTick("EURUSD", broker.Tick{Bid: 1.0999, Ask: 1.1001, Time: time.Now()})
	bars := make([]broker.Bar, 20)
	for i := range bars {
		bars[i] = broker.Bar{High: 1.1012, Low: 1.0991, Close: 1.1000}
	}
	sim.SetBars("EURUSD", bars)

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	auditLog := audit.NewMemory()
	notifier := consoleNotifier{}
	g := guard.New(config.Guard{MaxTradesPerDay: 5, CooldownMins: 60, MaxSpreadPoints: 100}, util.Component(log, "guard"))
	riskCfg := config.Risk{
		ATRPeriod: 14, ATRTimeframeMins: 15,
		StopMultiplier: 1.5, TargetMultiplier: 3.0,
		Tiers: config.RiskTiers{Low: 1.0, Medium: 2.5, High: 5.0},
	}

	pipeline := &execution.Pipeline{
		Filter:       news.NewFilter(config.Filter{Whitelist: []string{"cpi", "nfp", "fomc"}, MinImportance: 2}),
		Acquirer:     signal.NewAcquirer(scriptedAssistant{}, time.Second, 60*time.Second, util.Component(log, "signal")),
		Sizer:        risk.NewSizer(riskCfg, util.Component(log, "risk")),
		Guard:        g,
		Executor:     execution.NewExecutor(sim, notifier, auditLog, config.Order{DeviationPoints: 10, MagicNumber: 230523}, util.Component(log, "executor")),
		Term:         sim,
		Audit:        auditLog,
		Notifier:     notifier,
		Log:          util.Component(log, "pipeline"),
		ATRPeriod:    riskCfg.ATRPeriod,
		ATRTimeframe: time.Duration(riskCfg.ATRTimeframeMins) * time.Minute,
	}

	monitor := execution.NewMonitor(sim, g, auditLog, notifier, config.Monitor{PollSecs: 5, ErrorPollSecs: 10, LookbackDays: 2}, util.Component(log, "monitor"))
	go monitor.Run(ctx)

	events := make(chan news.Event, 8)
	go pipeline.Run(ctx, events)

	events <- news.Event{Title: "US CPI beats forecast", Kind: "macro", Importance: 3, Received: time.Now()}
	log.Info().Msg("paper engine running, ctrl-c to stop")

	<-ctx.Done()
	opened, profit := auditLog.TodaySummary(time.Now())
	log.Info().Int("opened", opened).Float64("closed_pl", profit).Msg("paper session summary")

	notifier.Send(context.Background(), "paper session finished")
}
