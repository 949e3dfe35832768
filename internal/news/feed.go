package news

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"newsbot-go/internal/metrics"
)

type envelope struct {
	Type string    `json:"type"`
	Data eventData `json:"data"`
}

type eventData struct {
	Title      string `json:"title"`
	Kind       string `json:"kind"`
	Importance int    `json:"importance"`
}

// Feed streams news events from the provider websocket, reconnecting after a
// fixed delay for as long as the context lives.
type Feed struct {
	url            string
	reconnectDelay time.Duration
	log            zerolog.Logger
}

// NewFeed builds a feed client. The url must already carry the auth token.
func NewFeed(url string, reconnectDelay time.Duration, log zerolog.Logger) *Feed {
	if reconnectDelay <= 0 {
		reconnectDelay = 10 * time.Second
	}
	return &Feed{url: url, reconnectDelay: reconnectDelay, log: log}
}

// Run pushes events onto out until the context is canceled. Connection drops
// are retried without bound.
func (f *Feed) Run(ctx context.Context, out chan<- Event) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := f.consume(ctx, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Dur("retry_in", f.reconnectDelay).Msg("news feed disconnected, retrying")
			select {
			case <-time.After(f.reconnectDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		return nil
	}
}

func (f *Feed) consume(ctx context.Context, out chan<- Event) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	f.log.Info().Msg("connected to news stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Warn().Err(err).Msg("news feed ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			f.log.Warn().Err(err).Msg("unparseable feed message")
			continue
		}
		if env.Type != "news" {
			continue
		}

		ev := Event{
			Title:      env.Data.Title,
			Kind:       env.Data.Kind,
			Importance: env.Data.Importance,
			Received:   time.Now().UTC(),
		}
		metrics.NewsTotal.Inc()
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
