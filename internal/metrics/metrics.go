package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	NewsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "news_events_total", Help: "News events received from the feed"},
	)
	FilterRejects = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "news_filter_rejects_total", Help: "News events rejected by the filter"},
		[]string{"reason"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Trade signals parsed from assistant responses"},
		[]string{"action"},
	)
	OrdersAttempted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "orders_attempted_total", Help: "Trade attempts that reached the execution guard"},
	)
	OrdersPlaced = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "orders_placed_total", Help: "Orders accepted by the broker"},
	)
	OrdersFailed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "orders_failed_total", Help: "Orders rejected by the broker or lost"},
	)
	OrdersSuppressed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_suppressed_total", Help: "Trade attempts blocked by the execution guard"},
		[]string{"reason"},
	)
	CooldownActivations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "cooldown_activations_total", Help: "Loss-triggered cooldown extensions"},
	)
)

func init() {
	prometheus.MustRegister(
		NewsTotal, FilterRejects, SignalsTotal,
		OrdersAttempted, OrdersPlaced, OrdersFailed, OrdersSuppressed,
		CooldownActivations,
	)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
