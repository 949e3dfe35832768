// Package audit keeps the append-only record of filtering decisions and trade
// events, with an in-memory view serving operator queries.
package audit

import "time"

// Kind discriminates record variants.
type Kind string

const (
	KindFilter Kind = "filter"
	KindOpen   Kind = "open"
	KindClose  Kind = "close"
)

// FilterEntry records one news filtering verdict.
type FilterEntry struct {
	Title    string `json:"title"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

// OpenEntry records one opened trade.
type OpenEntry struct {
	Symbol    string  `json:"symbol"`
	Action    string  `json:"action"`
	Volume    float64 `json:"volume"`
	Price     float64 `json:"price"`
	Stop      float64 `json:"stop"`
	Target    float64 `json:"target"`
	Reason    string  `json:"reason"`
	LatencyMs int64   `json:"latency_ms"`
}

// CloseEntry records one closed deal reported by the broker.
type CloseEntry struct {
	Ticket int64   `json:"ticket"`
	Symbol string  `json:"symbol"`
	Action string  `json:"action"`
	Volume float64 `json:"volume"`
	Price  float64 `json:"price"`
	Profit float64 `json:"profit"`
}

// Record is one immutable audit entry. Exactly one variant field is set,
// matching Kind. Records are never mutated after append.
type Record struct {
	Kind   Kind         `json:"kind"`
	Time   time.Time    `json:"time"`
	Filter *FilterEntry `json:"filter,omitempty"`
	Open   *OpenEntry   `json:"open,omitempty"`
	Close  *CloseEntry  `json:"close,omitempty"`
}

// NewFilterRecord builds a filter-decision record.
func NewFilterRecord(at time.Time, title string, accepted bool, reason string) Record {
	return Record{
		Kind: KindFilter,
		Time: at.UTC(),
		Filter: &FilterEntry{
			Title:    title,
			Accepted: accepted,
			Reason:   reason,
		},
	}
}

// NewOpenRecord builds a trade-open record.
func NewOpenRecord(at time.Time, entry OpenEntry) Record {
	e := entry
	return Record{Kind: KindOpen, Time: at.UTC(), Open: &e}
}

// NewCloseRecord builds a trade-close record.
func NewCloseRecord(at time.Time, entry CloseEntry) Record {
	e := entry
	return Record{Kind: KindClose, Time: at.UTC(), Close: &e}
}
