package conversion

import (
	"context"
	"sync"
	"time"
)

// EventType classifies messages emitted during a conversion.
type EventType string

const (
	EventProgress EventType = "progress"
	EventDone     EventType = "done"
	EventFailed   EventType = "failed"
)

// Event is one step of a conversion. Every conversion emits progress events
// followed by exactly one done or failed event.
type Event struct {
	Seq          int64     `json:"seq"`
	Timestamp    time.Time `json:"timestamp"`
	ConversionID string    `json:"conversion_id"`
	Type         EventType `json:"type"`
	Percent      int       `json:"percent"`
	OutputPath   string    `json:"output_path,omitempty"`
	Reason       string    `json:"reason,omitempty"`
}

// Terminal reports whether e ends its conversion.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventFailed
}

// EventLog keeps recent events of the session so late readers can catch up
// by sequence number.
type EventLog struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
	notify    chan struct{}
}

// NewEventLog creates a bounded in-memory event buffer.
func NewEventLog(maxEvents int) *EventLog {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventLog{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		notify:    make(chan struct{}),
	}
}

// Publish appends one event and assigns sequence and timestamp.
func (l *EventLog) Publish(event Event) Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextSeq++
	event.Seq = l.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	l.events = append(l.events, event)
	if len(l.events) > l.maxEvents {
		trim := len(l.events) - l.maxEvents
		l.events = append([]Event(nil), l.events[trim:]...)
	}

	close(l.notify)
	l.notify = make(chan struct{})
	return event
}

// Since returns events with sequence strictly greater than seq.
func (l *EventLog) Since(seq int64) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sinceLocked(seq)
}

func (l *EventLog) sinceLocked(seq int64) []Event {
	if len(l.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(l.events))
	for _, event := range l.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// Wait blocks until events newer than seq exist or ctx is done.
func (l *EventLog) Wait(ctx context.Context, seq int64) ([]Event, error) {
	for {
		l.mu.RLock()
		events := l.sinceLocked(seq)
		notify := l.notify
		l.mu.RUnlock()

		if len(events) > 0 {
			return events, nil
		}

		select {
		case <-notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// LastSeq returns the sequence of the newest event, or 0.
func (l *EventLog) LastSeq() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.nextSeq
}
