package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"newsbot-go/internal/audit"
)

// Commander answers read-only operator commands over the bot's update feed.
// It runs on its own goroutine and only ever reads audit ledger snapshots; it
// never touches the execution state.
type Commander struct {
	tg     *Telegram
	log    zerolog.Logger
	audit  *audit.Log
	poll   time.Duration
	offset int64
	now    func() time.Time
}

// NewCommander wires the command loop to the notifier's bot and the audit log.
func NewCommander(tg *Telegram, auditLog *audit.Log, log zerolog.Logger) *Commander {
	return &Commander{
		tg:    tg,
		log:   log,
		audit: auditLog,
		poll:  2 * time.Second,
		now:   time.Now,
	}
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  struct {
		Text string `json:"text"`
	} `json:"message"`
}

type updatesResponse struct {
	OK     bool     `json:"ok"`
	Result []update `json:"result"`
}

// Run long-polls for commands until the context is canceled.
func (c *Commander) Run(ctx context.Context) {
	if !c.tg.enabled {
		c.log.Info().Msg("operator commands disabled, no bot token")
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.poll):
		}
		if err := c.sweep(ctx); err != nil && ctx.Err() == nil {
			c.log.Warn().Err(err).Msg("command poll failed")
		}
	}
}

func (c *Commander) sweep(ctx context.Context) error {
	url := fmt.Sprintf("%s/getUpdates?offset=%d&timeout=0", c.tg.baseURL, c.offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.tg.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var updates updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&updates); err != nil {
		return err
	}
	for _, u := range updates.Result {
		if u.UpdateID >= c.offset {
			c.offset = u.UpdateID + 1
		}
		if reply := c.Handle(u.Message.Text); reply != "" {
			c.tg.Send(ctx, reply)
		}
	}
	return nil
}

// Handle maps one command to its reply text; unknown input yields no reply.
func (c *Commander) Handle(text string) string {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "/today":
		opened, profit := c.audit.TodaySummary(c.now())
		return fmt.Sprintf("Today: %d trades opened, closed P/L %.2f", opened, profit)
	case "/last":
		record, ok := c.audit.LastTrade()
		if !ok {
			return "No trades recorded yet."
		}
		return formatTrade(record)
	case "/help":
		return "Commands:\n/today - today's trade count and closed P/L\n/last - most recent trade record\n/help - this text"
	default:
		return ""
	}
}

func formatTrade(r audit.Record) string {
	switch r.Kind {
	case audit.KindOpen:
		return fmt.Sprintf("Open %s %s vol %.2f @ %.5f (SL %.5f, TP %.5f) - %s",
			r.Open.Action, r.Open.Symbol, r.Open.Volume, r.Open.Price, r.Open.Stop, r.Open.Target, r.Open.Reason)
	case audit.KindClose:
		return fmt.Sprintf("Close #%d %s %s vol %.2f @ %.5f, profit %.2f",
			r.Close.Ticket, r.Close.Action, r.Close.Symbol, r.Close.Volume, r.Close.Price, r.Close.Profit)
	default:
		return ""
	}
}
