// Package booking periodically pulls upcoming bookings per room and hands
// each result to the decision engine. Rooms are isolated from each other: a
// fetch failure is logged, the room keeps its previous booking set, and the
// remaining rooms are still polled in the same pass.
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/heatplan/heatplan/core/events"
	"github.com/heatplan/heatplan/core/logger"
	coremetrics "github.com/heatplan/heatplan/core/metrics"
	"github.com/heatplan/heatplan/core/model"
	"github.com/heatplan/heatplan/core/store"
	"github.com/heatplan/heatplan/internal/eventbus"
)

// Source fetches the bookings of one room that overlap [from, to).
type Source interface {
	Bookings(ctx context.Context, roomID int64, from, to time.Time) ([]model.BookingInterval, error)
}

// Evaluator re-derives a room's heating command. The poller calls it after
// every fetch attempt, successful or not, so decisions always reflect the
// data a room currently has; the returned command is ignored here, dispatch
// reads the latched value from the store.
type Evaluator interface {
	Evaluate(room string, now time.Time) model.Command
}

// Config defines booking pull settings.
type Config struct {
	PullCadenceSeconds    int `json:"pull_cadence_seconds"`
	LookaheadHours        int `json:"lookahead_hours"`
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
}

// SetDefaults applies the default lookahead and request timeout.
func (c *Config) SetDefaults() {
	if c.LookaheadHours == 0 {
		c.LookaheadHours = 24
	}
	if c.RequestTimeoutSeconds == 0 {
		c.RequestTimeoutSeconds = 10
	}
}

// Validate rejects cadences that would disable or spin the loop.
func (c Config) Validate() error {
	if c.PullCadenceSeconds < 1 {
		return fmt.Errorf("booking: pull_cadence_seconds must be at least 1, got %d", c.PullCadenceSeconds)
	}
	if c.LookaheadHours < 1 {
		return fmt.Errorf("booking: lookahead_hours must be at least 1, got %d", c.LookaheadHours)
	}
	if c.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("booking: request_timeout_seconds must be at least 1, got %d", c.RequestTimeoutSeconds)
	}
	return nil
}

// Poller drives the booking pull loop.
type Poller struct {
	cadence   time.Duration
	lookahead time.Duration
	timeout   time.Duration
	source    Source
	store     *store.Store
	rooms     []model.Room
	eval      Evaluator
	bus       *eventbus.Bus
	rec       coremetrics.PollRecorder
	log       logger.Logger
}

// NewPoller validates cfg and builds a poller over the configured rooms.
// bus and rec may be nil.
func NewPoller(cfg Config, src Source, st *store.Store, rooms []model.Room, eval Evaluator, bus *eventbus.Bus, rec coremetrics.PollRecorder, log logger.Logger) (*Poller, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Poller{
		cadence:   time.Duration(cfg.PullCadenceSeconds) * time.Second,
		lookahead: time.Duration(cfg.LookaheadHours) * time.Hour,
		timeout:   time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		source:    src,
		store:     st,
		rooms:     rooms,
		eval:      eval,
		bus:       bus,
		rec:       rec,
		log:       log,
	}, nil
}

// Run polls immediately, then on every cadence tick until the context is
// cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.PollAll(ctx)
	ticker := time.NewTicker(p.cadence)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.PollAll(ctx)
		}
	}
}

// PollAll fetches every room once, in configuration order.
func (p *Poller) PollAll(ctx context.Context) {
	for _, room := range p.rooms {
		if ctx.Err() != nil {
			return
		}
		p.pollRoom(ctx, room)
	}
}

func (p *Poller) pollRoom(ctx context.Context, room model.Room) {
	now := time.Now().UTC()
	// Reach back by the room's maximum post-heating time: a booking that
	// just ended still drives heating until end+preshutdown.
	from := now.Add(-room.Preshutdown)
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	bookings, err := p.source.Bookings(reqCtx, room.ChurchToolsID, from, now.Add(p.lookahead))
	cancel()

	if err != nil {
		p.log.Errorf("poll room %s (id %d): %v", room.Name, room.ChurchToolsID, err)
	} else {
		p.store.SetBookings(room.Name, bookings)
		p.log.Debugf("poll room %s: %d bookings in the next %s", room.Name, len(bookings), p.lookahead)
	}

	if p.rec != nil {
		res := coremetrics.PollResult{Room: room.Name, Bookings: len(bookings), Time: now}
		if err != nil {
			res.Error = err.Error()
		}
		if recErr := p.rec.RecordPollResult(res); recErr != nil {
			p.log.Warnf("record poll result: %v", recErr)
		}
	}
	if p.bus != nil {
		p.bus.Publish(events.PollEvent{Room: room.Name, Bookings: len(bookings), Err: err, At: now})
	}

	// Decide with whatever the room has now: fresh bookings after a
	// success, the retained set after a failure.
	p.eval.Evaluate(room.Name, now)
}
