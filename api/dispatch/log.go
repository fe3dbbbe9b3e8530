// Package dispatch exposes the recent dispatch history over HTTP for
// commissioning: which slot received which command, when, and whether the
// send reached the controller. History lives in a bounded in-memory ring;
// nothing survives a restart.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/heatplan/heatplan/core/events"
	"github.com/heatplan/heatplan/internal/eventbus"
)

// Record is one send attempt of a dispatch pass.
type Record struct {
	Time      time.Time `json:"time"`
	TickID    string    `json:"tick_id"`
	Target    string    `json:"target"`
	Room      string    `json:"room"`
	PDOIndex  int       `json:"pdo_index"` // one-based, as configured
	On        bool      `json:"on"`
	Error     string    `json:"error,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
}

// Query filters log reads. Zero values match everything.
type Query struct {
	Room   string
	Target string
	Since  time.Time
	Limit  int
}

const defaultCapacity = 1024

// Log is a fixed-capacity ring of the most recent send attempts, fed from
// the event bus.
type Log struct {
	mu   sync.Mutex
	buf  []Record
	next int
	full bool

	events <-chan eventbus.Event
	cancel func()
}

// NewLog subscribes to the bus and returns a log holding the last capacity
// records; a default is applied when capacity is not positive. Run must be
// started for the log to fill.
func NewLog(capacity int, bus *eventbus.Bus) *Log {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	l := &Log{buf: make([]Record, capacity)}
	l.events, l.cancel = bus.Subscribe()
	return l
}

// Run consumes bus events until the context is canceled or the bus closes.
func (l *Log) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-l.events:
			if !ok {
				return
			}
			if se, ok := e.(events.SendEvent); ok {
				l.Add(fromSendEvent(se))
			}
		}
	}
}

// Close cancels the bus subscription.
func (l *Log) Close() { l.cancel() }

// Add appends one record, evicting the oldest once the ring is full.
func (l *Log) Add(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf[l.next] = r
	l.next = (l.next + 1) % len(l.buf)
	if l.next == 0 {
		l.full = true
	}
}

// Records returns matching records, newest first.
func (l *Log) Records(q Query) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.next
	if l.full {
		n = len(l.buf)
	}
	out := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		r := l.buf[(l.next-1-i+len(l.buf))%len(l.buf)]
		if q.Room != "" && r.Room != q.Room {
			continue
		}
		if q.Target != "" && r.Target != q.Target {
			continue
		}
		if !q.Since.IsZero() && r.Time.Before(q.Since) {
			continue
		}
		out = append(out, r)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out
}

func fromSendEvent(e events.SendEvent) Record {
	r := Record{
		Time:      e.At,
		TickID:    e.TickID,
		Target:    e.Target,
		Room:      e.Room,
		PDOIndex:  int(e.PDO) + 1,
		On:        e.On,
		LatencyMs: e.Latency.Milliseconds(),
	}
	if e.Err != nil {
		r.Error = e.Err.Error()
	}
	return r
}
