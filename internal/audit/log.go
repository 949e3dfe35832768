package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Log appends records to a JSONL file and mirrors them in memory for operator
// queries. One mutex serializes the append path so records are never
// interleaved or truncated by concurrent writers; this lock is independent of
// the execution guard's.
type Log struct {
	mu      sync.Mutex
	file    *os.File
	enc     *json.Encoder
	records []Record
}

// Open creates/opens the target JSONL file in append mode.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Log{file: file, enc: json.NewEncoder(file)}, nil
}

// NewMemory builds an in-memory log with no file backing, for tests and
// paper runs.
func NewMemory() *Log {
	return &Log{}
}

// Append writes one record to the file and the in-memory view.
func (l *Log) Append(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.enc != nil {
		_ = l.enc.Encode(r)
	}
	l.records = append(l.records, r)
}

// Snapshot returns a copy of all records seen this process lifetime.
func (l *Log) Snapshot() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// LastTrade returns the most recent open or close record.
func (l *Log) LastTrade() (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].Kind == KindOpen || l.records[i].Kind == KindClose {
			return l.records[i], true
		}
	}
	return Record{}, false
}

// TodaySummary reports the number of trades opened and the aggregate closed
// profit for now's UTC date.
func (l *Log) TodaySummary(now time.Time) (opened int, profit float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	date := now.UTC().Format("2006-01-02")
	for _, r := range l.records {
		if r.Time.UTC().Format("2006-01-02") != date {
			continue
		}
		switch r.Kind {
		case KindOpen:
			opened++
		case KindClose:
			profit += r.Close.Profit
		}
	}
	return opened, profit
}

// Close flushes and closes the file handle.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.enc = nil
	return err
}
