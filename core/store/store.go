// Package store keeps the latest per-room scheduling state shared between
// the booking poller, the decision engine and the dispatcher. Bookings and
// the latched heating command live in per-room cells so that a slow poll of
// one room never blocks reads for another.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/heatplan/heatplan/core/model"
)

// Interval is the JSON view of a booking window.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RoomStatus summarises one room for the status API.
type RoomStatus struct {
	Room      string     `json:"room"`
	Command   string     `json:"command"`
	HasData   bool       `json:"has_data"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	Bookings  []Interval `json:"bookings,omitempty"`
}

type cell struct {
	mu        sync.RWMutex
	bookings  []model.BookingInterval
	hasData   bool
	command   model.Command
	decidedAt time.Time
}

// Store holds one cell per configured room. The room set is fixed at
// construction, so cell lookups never need a lock of their own.
type Store struct {
	cells map[string]*cell
	names []string
}

func New(rooms []model.Room) *Store {
	s := &Store{cells: make(map[string]*cell, len(rooms))}
	for _, r := range rooms {
		if _, ok := s.cells[r.Name]; ok {
			continue
		}
		s.cells[r.Name] = &cell{command: model.CommandUnknown}
		s.names = append(s.names, r.Name)
	}
	sort.Strings(s.names)
	return s
}

// Rooms returns the configured room names in sorted order.
func (s *Store) Rooms() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// SetBookings replaces the booking set for a room. The first successful call
// marks the room as having data; a fetch failure never clears that flag, the
// stale bookings stay in place until the next success.
func (s *Store) SetBookings(room string, bookings []model.BookingInterval) {
	c, ok := s.cells[room]
	if !ok {
		return
	}
	c.mu.Lock()
	c.bookings = bookings
	c.hasData = true
	c.mu.Unlock()
}

// Bookings returns a copy of the room's booking set and whether the room has
// ever been polled successfully.
func (s *Store) Bookings(room string) ([]model.BookingInterval, bool) {
	c, ok := s.cells[room]
	if !ok {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.BookingInterval, len(c.bookings))
	copy(out, c.bookings)
	return out, c.hasData
}

// SetCommand latches the heating command for a room with its decision time
// and returns the previous value so callers can detect transitions.
func (s *Store) SetCommand(room string, cmd model.Command, at time.Time) model.Command {
	c, ok := s.cells[room]
	if !ok {
		return model.CommandUnknown
	}
	c.mu.Lock()
	prev := c.command
	c.command = cmd
	c.decidedAt = at
	c.mu.Unlock()
	return prev
}

// Command returns the latched heating command for a room. Rooms that were
// never evaluated, and unknown rooms, report CommandUnknown.
func (s *Store) Command(room string) model.Command {
	c, ok := s.cells[room]
	if !ok {
		return model.CommandUnknown
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.command
}

// Snapshot returns the status of every room sorted by name.
func (s *Store) Snapshot() []RoomStatus {
	out := make([]RoomStatus, 0, len(s.names))
	for _, name := range s.names {
		c := s.cells[name]
		c.mu.RLock()
		st := RoomStatus{
			Room:    name,
			Command: c.command.String(),
			HasData: c.hasData,
		}
		if !c.decidedAt.IsZero() {
			at := c.decidedAt
			st.DecidedAt = &at
		}
		for _, b := range c.bookings {
			st.Bookings = append(st.Bookings, Interval{Start: b.Start, End: b.End})
		}
		c.mu.RUnlock()
		out = append(out, st)
	}
	return out
}
