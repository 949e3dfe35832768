// Package signal turns accepted news text into structured trade signals via a
// remote analysis service.
package signal

import (
	"errors"
	"fmt"
	"strings"
)

// Action is the trade direction requested by a signal.
type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
	Skip Action = "SKIP"
)

// Signal is one parsed assistant response.
type Signal struct {
	Action Action
	Symbol string
	Reason string
}

// defaultReason fills in when the response carries no second line.
const defaultReason = "no reason provided"

// Parse applies the strict two-line grammar: line one is "<ACTION> <SYMBOL>"
// with ACTION one of BUY/SELL/SKIP (case-insensitive) and separator characters
// stripped from the symbol; line two is a free-text reason.
func Parse(response string) (Signal, error) {
	text := strings.TrimSpace(response)
	if text == "" {
		return Signal{}, errors.New("empty response")
	}

	lines := strings.Split(text, "\n")
	parts := strings.Fields(strings.ToUpper(strings.TrimSpace(lines[0])))
	if len(parts) != 2 {
		return Signal{}, fmt.Errorf("expected two tokens on first line, got %d", len(parts))
	}

	action := Action(parts[0])
	switch action {
	case Buy, Sell, Skip:
	default:
		return Signal{}, fmt.Errorf("invalid action %q", parts[0])
	}

	symbol := stripSeparators(parts[1])
	if symbol == "" {
		return Signal{}, errors.New("empty symbol")
	}

	reason := defaultReason
	if len(lines) > 1 {
		if r := strings.TrimSpace(lines[1]); r != "" {
			reason = r
		}
	}

	return Signal{Action: action, Symbol: symbol, Reason: reason}, nil
}

func stripSeparators(sym string) string {
	var b strings.Builder
	for _, r := range sym {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
