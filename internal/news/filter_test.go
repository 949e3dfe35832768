package news

import (
	"testing"

	"newsbot-go/internal/config"
)

func testFilter() *Filter {
	return NewFilter(config.Filter{
		Whitelist:     []string{"cpi", "nfp", "interest rate"},
		Blacklist:     []string{"rumor"},
		MinImportance: 2,
		AllowedTypes:  []string{"macro", "central-bank"},
	})
}

func TestEvaluateOrder(t *testing.T) {
	f := testFilter()

	cases := []struct {
		name   string
		event  Event
		accept bool
		reason string
	}{
		{"blacklist wins over whitelist", Event{Title: "CPI rumor swirls", Importance: 3}, false, "blacklist"},
		{"no whitelist keyword", Event{Title: "Company earnings beat", Importance: 3}, false, "not in whitelist"},
		{"importance below minimum", Event{Title: "CPI release", Importance: 1}, false, "impact=1"},
		{"type not allowed", Event{Title: "CPI release", Importance: 3, Kind: "earnings"}, false, "type=earnings"},
		{"accepted with kind", Event{Title: "US CPI release", Importance: 3, Kind: "macro"}, true, "accept"},
		{"accepted without kind", Event{Title: "NFP surprise", Importance: 2}, true, "accept"},
		{"empty title", Event{Importance: 3}, false, "not in whitelist"},
		{"case insensitive match", Event{Title: "Fed sets INTEREST RATE", Importance: 3}, true, "accept"},
	}

	for _, tc := range cases {
		dec := f.Evaluate(tc.event)
		if dec.Accept != tc.accept || dec.Reason != tc.reason {
			t.Fatalf("%s: got accept=%v reason=%q", tc.name, dec.Accept, dec.Reason)
		}
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	f := testFilter()
	ev := Event{Title: "CPI release", Importance: 2, Kind: "macro"}
	first := f.Evaluate(ev)
	for i := 0; i < 10; i++ {
		if got := f.Evaluate(ev); got != first {
			t.Fatalf("filter verdict changed between identical calls: %+v vs %+v", got, first)
		}
	}
}

func TestEvaluateNoTypeRestriction(t *testing.T) {
	f := NewFilter(config.Filter{Whitelist: []string{"cpi"}, MinImportance: 1})
	dec := f.Evaluate(Event{Title: "cpi data", Importance: 1, Kind: "anything"})
	if !dec.Accept {
		t.Fatalf("expected accept when no type set configured, got %+v", dec)
	}
}
