package broker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Sim is an in-memory Terminal used by tests and the paper binary. Quotes,
// bars, and closed deals are injected by the caller; orders fill at the
// quoted side unless a rejection retcode is forced.
type Sim struct {
	mu         sync.Mutex
	account    AccountInfo
	symbols    map[string]SymbolInfo
	ticks      map[string]Tick
	bars       map[string][]Bar
	deals      []Deal
	nextTicket int64

	forcedRetcode int
	forcedComment string
	sendErr       error
	lastRequest   *OrderRequest
}

// NewSim creates a simulated terminal with the given starting balance.
func NewSim(balance float64) *Sim {
	return &Sim{
		account:    AccountInfo{Login: 1, Server: "sim", Balance: balance, Currency: "USD"},
		symbols:    make(map[string]SymbolInfo),
		ticks:      make(map[string]Tick),
		bars:       make(map[string][]Bar),
		nextTicket: 1000,
	}
}

// AddSymbol registers instrument metadata.
func (s *Sim) AddSymbol(info SymbolInfo) {
	s.mu.Lock()
	s.symbols[info.Name] = info
	s.mu.Unlock()
}

// SetTick injects the current quote for a symbol.
func (s *Sim) SetTick(symbol string, tick Tick) {
	s.mu.Lock()
	s.ticks[symbol] = tick
	s.mu.Unlock()
}

// SetBars injects candle history for a symbol.
func (s *Sim) SetBars(symbol string, bars []Bar) {
	s.mu.Lock()
	s.bars[symbol] = append([]Bar(nil), bars...)
	s.mu.Unlock()
}

// AddClosedDeal appends a closed trade to the reported history.
func (s *Sim) AddClosedDeal(deal Deal) {
	s.mu.Lock()
	s.deals = append(s.deals, deal)
	s.mu.Unlock()
}

// ForceRetcode makes subsequent Send calls return the given status instead of done.
func (s *Sim) ForceRetcode(retcode int, comment string) {
	s.mu.Lock()
	s.forcedRetcode = retcode
	s.forcedComment = comment
	s.mu.Unlock()
}

// ForceSendError makes subsequent Send calls fail with err and no result.
func (s *Sim) ForceSendError(err error) {
	s.mu.Lock()
	s.sendErr = err
	s.mu.Unlock()
}

func (s *Sim) Account(ctx context.Context) (AccountInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account, nil
}

func (s *Sim) SymbolInfo(ctx context.Context, symbol string) (SymbolInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.symbols[symbol]
	if !ok {
		return SymbolInfo{}, errors.New("unknown symbol " + symbol)
	}
	return info, nil
}

func (s *Sim) Tick(ctx context.Context, symbol string) (Tick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tick, ok := s.ticks[symbol]
	if !ok {
		return Tick{}, errors.New("no tick for " + symbol)
	}
	return tick, nil
}

func (s *Sim) Bars(ctx context.Context, symbol string, timeframe time.Duration, count int) ([]Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bars := s.bars[symbol]
	if len(bars) == 0 {
		return nil, errors.New("no bars for " + symbol)
	}
	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	out := make([]Bar, len(bars))
	copy(out, bars)
	return out, nil
}

// LastRequest returns the most recent order submission, or nil.
func (s *Sim) LastRequest() *OrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRequest
}

func (s *Sim) Send(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastRequest = &req
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	if req.Volume <= 0 {
		return nil, errors.New("volume must be positive")
	}
	if s.forcedRetcode != 0 {
		return &OrderResult{Retcode: s.forcedRetcode, Comment: s.forcedComment}, nil
	}

	s.nextTicket++
	return &OrderResult{
		Order:   s.nextTicket,
		Price:   req.Price,
		Volume:  req.Volume,
		Retcode: RetcodeDone,
		Comment: "done",
	}, nil
}

func (s *Sim) ClosedDeals(ctx context.Context, from, to time.Time) ([]Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Deal
	for _, d := range s.deals {
		if d.Time.Before(from) || d.Time.After(to) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
