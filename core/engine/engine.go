// Package engine derives the heating command per room from its bookings,
// the external temperature and the hold-over scaling, and latches the
// result in the store for the dispatcher to pick up on its own cadence.
package engine

import (
	"time"

	"github.com/heatplan/heatplan/core/events"
	"github.com/heatplan/heatplan/core/holdover"
	"github.com/heatplan/heatplan/core/logger"
	coremetrics "github.com/heatplan/heatplan/core/metrics"
	"github.com/heatplan/heatplan/core/model"
	"github.com/heatplan/heatplan/core/store"
	"github.com/heatplan/heatplan/internal/eventbus"
)

// TemperatureSource answers whether a trustworthy external temperature is
// available at now. Implemented by temperature.Monitor.
type TemperatureSource interface {
	Current(now time.Time, timeout time.Duration) (float64, bool)
}

// Engine evaluates rooms. Safe for concurrent use; all mutable state lives
// in the store.
type Engine struct {
	store         *store.Store
	rooms         map[string]model.Room
	order         []model.Room
	temps         TemperatureSource
	scaler        *holdover.Scaler
	sensorTimeout time.Duration
	bus           *eventbus.Bus
	rec           coremetrics.CommandRecorder
	log           logger.Logger
}

// New builds an engine over the configured rooms. bus and rec may be nil.
func New(st *store.Store, rooms []model.Room, temps TemperatureSource, sc *holdover.Scaler, sensorTimeout time.Duration, bus *eventbus.Bus, rec coremetrics.CommandRecorder, log logger.Logger) *Engine {
	byName := make(map[string]model.Room, len(rooms))
	for _, r := range rooms {
		byName[r.Name] = r
	}
	return &Engine{
		store:         st,
		rooms:         byName,
		order:         rooms,
		temps:         temps,
		scaler:        sc,
		sensorTimeout: sensorTimeout,
		bus:           bus,
		rec:           rec,
		log:           log,
	}
}

// Evaluate re-derives and latches the heating command for one room. A room
// whose bookings were never fetched successfully keeps CommandUnknown: the
// dispatcher must not act on data we do not have.
func (e *Engine) Evaluate(room string, now time.Time) model.Command {
	r, ok := e.rooms[room]
	if !ok {
		return model.CommandUnknown
	}
	bookings, hasData := e.store.Bookings(room)
	if !hasData {
		return model.CommandUnknown
	}

	var temp *float64
	if celsius, fresh := e.temps.Current(now, e.sensorTimeout); fresh {
		temp = &celsius
	}
	lead, lag := e.scaler.Effective(r.Preheat, r.Preshutdown, temp)

	heat := false
	for _, b := range bookings {
		if b.HeatsAt(now, lead, lag) {
			heat = true
			break
		}
	}

	cmd := model.CommandFor(heat)
	prev := e.store.SetCommand(room, cmd, now)
	if prev != cmd {
		e.log.Infof("room %s heating %s (was %s, lead %s, lag %s)", room, cmd, prev, lead, lag)
		if e.bus != nil {
			e.bus.Publish(events.CommandEvent{Room: room, Command: cmd, Previous: prev, At: now})
		}
		if e.rec != nil {
			if err := e.rec.RecordRoomCommand(room, cmd == model.CommandOn, now); err != nil {
				e.log.Warnf("record room command: %v", err)
			}
		}
	}
	return cmd
}

// EvaluateAll evaluates every configured room in configuration order.
func (e *Engine) EvaluateAll(now time.Time) {
	for _, r := range e.order {
		e.Evaluate(r.Name, now)
	}
}
