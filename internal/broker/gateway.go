package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Gateway is a Terminal implementation over the HTTP bridge exposed by the
// trading terminal host.
type Gateway struct {
	baseURL string
	client  *http.Client
}

// NewGateway builds a gateway client for the given base URL.
func NewGateway(baseURL string) *Gateway {
	return &Gateway{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *Gateway) get(ctx context.Context, path string, query url.Values, out any) error {
	u := g.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return g.do(req, out)
}

func (g *Gateway) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req, out)
}

func (g *Gateway) do(req *http.Request, out any) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gateway %s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Account reports the trading account balance and identity.
func (g *Gateway) Account(ctx context.Context) (AccountInfo, error) {
	var info AccountInfo
	err := g.get(ctx, "/account", nil, &info)
	return info, err
}

// SymbolInfo fetches instrument metadata for the symbol.
func (g *Gateway) SymbolInfo(ctx context.Context, symbol string) (SymbolInfo, error) {
	var info SymbolInfo
	err := g.get(ctx, "/symbols/"+url.PathEscape(symbol), nil, &info)
	return info, err
}

// Tick returns the current bid/ask quote for the symbol.
func (g *Gateway) Tick(ctx context.Context, symbol string) (Tick, error) {
	var tick Tick
	err := g.get(ctx, "/symbols/"+url.PathEscape(symbol)+"/tick", nil, &tick)
	return tick, err
}

// Bars returns the most recent count candles at the requested timeframe.
func (g *Gateway) Bars(ctx context.Context, symbol string, timeframe time.Duration, count int) ([]Bar, error) {
	q := url.Values{}
	q.Set("timeframe_mins", strconv.Itoa(int(timeframe.Minutes())))
	q.Set("count", strconv.Itoa(count))
	var bars []Bar
	err := g.get(ctx, "/symbols/"+url.PathEscape(symbol)+"/bars", q, &bars)
	return bars, err
}

// Send submits a market order and returns the broker result, or nil when the
// gateway reported no result at all.
func (g *Gateway) Send(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	var result OrderResult
	if err := g.post(ctx, "/orders", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ClosedDeals queries closed-trade history within [from, to].
func (g *Gateway) ClosedDeals(ctx context.Context, from, to time.Time) ([]Deal, error) {
	q := url.Values{}
	q.Set("from", from.UTC().Format(time.RFC3339))
	q.Set("to", to.UTC().Format(time.RFC3339))
	var deals []Deal
	err := g.get(ctx, "/deals/closed", q, &deals)
	return deals, err
}
