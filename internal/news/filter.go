package news

import (
	"fmt"
	"strings"

	"newsbot-go/internal/config"
)

// Decision is the filter verdict for one event.
type Decision struct {
	Accept bool
	Reason string
}

// Filter classifies events as tradeable or not. It is pure text matching over
// static keyword and type sets; identical input always yields the same verdict.
type Filter struct {
	whitelist     []string
	blacklist     []string
	minImportance int
	allowedKinds  map[string]struct{}
}

// NewFilter builds a filter from config, lowering all keywords once.
func NewFilter(cfg config.Filter) *Filter {
	f := &Filter{
		whitelist:     lowerAll(cfg.Whitelist),
		blacklist:     lowerAll(cfg.Blacklist),
		minImportance: cfg.MinImportance,
	}
	if len(cfg.AllowedTypes) > 0 {
		f.allowedKinds = make(map[string]struct{}, len(cfg.AllowedTypes))
		for _, k := range cfg.AllowedTypes {
			f.allowedKinds[strings.ToLower(k)] = struct{}{}
		}
	}
	return f
}

// Evaluate applies the gates in order; the first match wins. A missing title
// is treated as an empty string.
func (f *Filter) Evaluate(ev Event) Decision {
	title := strings.ToLower(ev.Title)

	for _, kw := range f.blacklist {
		if strings.Contains(title, kw) {
			return Decision{Reason: "blacklist"}
		}
	}

	whitelisted := false
	for _, kw := range f.whitelist {
		if strings.Contains(title, kw) {
			whitelisted = true
			break
		}
	}
	if !whitelisted {
		return Decision{Reason: "not in whitelist"}
	}

	if ev.Importance < f.minImportance {
		return Decision{Reason: fmt.Sprintf("impact=%d", ev.Importance)}
	}

	if ev.Kind != "" && f.allowedKinds != nil {
		if _, ok := f.allowedKinds[strings.ToLower(ev.Kind)]; !ok {
			return Decision{Reason: fmt.Sprintf("type=%s", ev.Kind)}
		}
	}

	return Decision{Accept: true, Reason: "accept"}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(strings.ToLower(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
