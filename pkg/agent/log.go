package agent

import (
	"fmt"
	"sync"

	"github.com/foodifind/foodifind/pkg/model"
)

// subscriber channels are buffered; a slow consumer drops entries rather
// than blocking the pipeline
const subscriberBuffer = 64

// Log is the append-only agent log. Entries are never mutated or removed;
// the log lives for the life of the process.
type Log struct {
	mu      sync.RWMutex
	entries []*model.LogEntry
	subs    map[int]chan *model.LogEntry
	nextSub int
}

func NewLog() *Log {
	return &Log{
		subs: make(map[int]chan *model.LogEntry),
	}
}

// Append adds a new entry and fans it out to subscribers
func (l *Log) Append(stage model.Stage, format string, args ...any) *model.LogEntry {
	entry := model.NewLogEntry(stage, fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	for _, ch := range l.subs {
		select {
		case ch <- entry:
		default:
		}
	}
	return entry
}

// Entries returns a snapshot of all entries in append order
func (l *Log) Entries() []*model.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snapshot := make([]*model.LogEntry, len(l.entries))
	copy(snapshot, l.entries)
	return snapshot
}

// Subscribe returns a channel receiving entries appended after this call,
// and a cancel function that must be called when done
func (l *Log) Subscribe() (<-chan *model.LogEntry, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextSub
	l.nextSub++
	ch := make(chan *model.LogEntry, subscriberBuffer)
	l.subs[id] = ch

	cancel := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}
