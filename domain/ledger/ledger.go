package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
)

// Sink receives every entry as it is appended.
type Sink interface {
	Write(Entry)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Entry)

// Write calls f.
func (f SinkFunc) Write(e Entry) { f(e) }

// Ledger provides an append-only record of everything that happened in a run.
type Ledger struct {
	runID   string
	entries []Entry
	sinks   []Sink
	mu      sync.RWMutex
}

// New creates a new ledger for the given run.
func New(runID string) *Ledger {
	return &Ledger{
		runID:   runID,
		entries: make([]Entry, 0, 64),
	}
}

// Subscribe registers a sink for subsequent entries.
func (l *Ledger) Subscribe(s Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, s)
}

// Append adds an entry to the ledger and forwards it to every sink.
func (l *Ledger) Append(entry Entry) Entry {
	l.mu.Lock()
	entry.RunID = l.runID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	l.entries = append(l.entries, entry)
	sinks := l.sinks
	l.mu.Unlock()

	for _, s := range sinks {
		s.Write(entry)
	}
	return entry
}

// Record appends a formatted entry.
func (l *Ledger) Record(tag Tag, step int, state agent.State, format string, args ...any) Entry {
	return l.Append(NewEntry(tag, step, state, fmt.Sprintf(format, args...)))
}

// Entries returns a copy of all entries.
func (l *Ledger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]Entry, len(l.entries))
	copy(entries, l.entries)
	return entries
}

// EntriesByTag returns entries filtered by tag.
func (l *Ledger) EntriesByTag(tag Tag) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var filtered []Entry
	for _, e := range l.entries {
		if e.Tag == tag {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// LastEntry returns the most recent entry, or nil if empty.
func (l *Ledger) LastEntry() *Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return nil
	}
	entry := l.entries[len(l.entries)-1]
	return &entry
}

// Count returns the number of entries.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// RunID returns the associated run ID.
func (l *Ledger) RunID() string {
	return l.runID
}
