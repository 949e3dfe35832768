// Package broker defines the brokerage terminal surface the engine trades
// through, plus the shared order and market-data types.
package broker

import (
	"context"
	"time"
)

// Side enumerates order directions.
type Side string

const (
	// Buy indicates a long order filled at the ask.
	Buy Side = "BUY"
	// Sell indicates a short order filled at the bid.
	Sell Side = "SELL"
)

// Time-in-force and filling policies this engine submits with.
const (
	TimeGTC    = "GTC"
	FillingIOC = "IOC"
)

// RetcodeDone is the broker status code for a fully accepted order.
const RetcodeDone = 10009

// AccountInfo is the trading account snapshot used for risk sizing.
type AccountInfo struct {
	Login    int64
	Server   string
	Balance  float64
	Currency string
}

// SymbolInfo carries the instrument metadata needed to price and size orders.
type SymbolInfo struct {
	Name       string
	Point      float64
	TickSize   float64
	TickValue  float64
	VolumeMin  float64
	VolumeMax  float64
	VolumeStep float64
	Visible    bool
}

// Tick is the current top-of-book quote for a symbol.
type Tick struct {
	Bid  float64
	Ask  float64
	Time time.Time
}

// Bar is one OHLC candle at the requested timeframe.
type Bar struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// OrderRequest is a market order submission.
type OrderRequest struct {
	Symbol          string
	Side            Side
	Volume          float64
	Price           float64
	Stop            float64
	Target          float64
	DeviationPoints int
	Magic           int64
	Comment         string
	TimeInForce     string
	Filling         string
}

// OrderResult is the broker's response to a submitted order.
type OrderResult struct {
	Order   int64
	Price   float64
	Volume  float64
	Retcode int
	Comment string
}

// Done reports whether the order was fully accepted.
func (r OrderResult) Done() bool { return r.Retcode == RetcodeDone }

// Deal is a closed trade reported by the broker's history query.
type Deal struct {
	Ticket int64
	Symbol string
	Side   Side
	Volume float64
	Price  float64
	Profit float64
	Time   time.Time
}

// Terminal is the brokerage surface consumed by the engine. The live
// implementation talks to a terminal gateway; Sim backs tests and paper runs.
type Terminal interface {
	Account(ctx context.Context) (AccountInfo, error)
	SymbolInfo(ctx context.Context, symbol string) (SymbolInfo, error)
	Tick(ctx context.Context, symbol string) (Tick, error)
	Bars(ctx context.Context, symbol string, timeframe time.Duration, count int) ([]Bar, error)
	Send(ctx context.Context, req OrderRequest) (*OrderResult, error)
	ClosedDeals(ctx context.Context, from, to time.Time) ([]Deal, error)
}
