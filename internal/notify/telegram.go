// Package notify delivers operator messages over Telegram and serves the
// read-only operator command surface.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Notifier is the fire-and-forget message channel consumed by the engine.
type Notifier interface {
	Send(ctx context.Context, text string)
}

// Telegram sends messages to a fixed chat through the bot API. Delivery is
// best effort: failures are logged, never surfaced to the trading path.
type Telegram struct {
	baseURL string
	chatID  string
	client  *http.Client
	enabled bool
	log     zerolog.Logger
}

const telegramAPI = "https://api.telegram.org"

// NewTelegram builds a notifier. An empty token disables delivery.
func NewTelegram(token, chatID string, log zerolog.Logger) *Telegram {
	t := &Telegram{
		chatID:  chatID,
		client:  &http.Client{Timeout: 10 * time.Second},
		enabled: token != "" && chatID != "",
		log:     log,
	}
	if t.enabled {
		t.baseURL = fmt.Sprintf("%s/bot%s", telegramAPI, token)
	}
	return t
}

// newTelegramAt is the test seam for pointing at a local API server.
func newTelegramAt(baseURL, chatID string, log zerolog.Logger) *Telegram {
	return &Telegram{
		baseURL: baseURL,
		chatID:  chatID,
		client:  &http.Client{Timeout: 10 * time.Second},
		enabled: true,
		log:     log,
	}
}

// Send posts one message, logging any failure.
func (t *Telegram) Send(ctx context.Context, text string) {
	if !t.enabled {
		return
	}
	payload := map[string]string{"chat_id": t.chatID, "text": text}
	data, err := json.Marshal(payload)
	if err != nil {
		t.log.Error().Err(err).Msg("telegram payload marshal failed")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/sendMessage", bytes.NewReader(data))
	if err != nil {
		t.log.Error().Err(err).Msg("telegram request build failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		t.log.Error().Err(err).Msg("telegram send failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		t.log.Error().Int("status", resp.StatusCode).Msg("telegram send rejected")
	}
}
