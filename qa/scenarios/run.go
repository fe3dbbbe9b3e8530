package scenarios

import (
	"testing"
	"time"

	"github.com/heatplan/heatplan/core/engine"
	"github.com/heatplan/heatplan/core/holdover"
	"github.com/heatplan/heatplan/core/model"
	"github.com/heatplan/heatplan/core/store"
	"github.com/heatplan/heatplan/infra/logger"
)

// fixedTemp feeds the engine the scenario temperature; a nil value plays a
// stale or absent sensor.
type fixedTemp struct {
	c *float64
}

func (f fixedTemp) Current(time.Time, time.Duration) (float64, bool) {
	if f.c == nil {
		return 0, false
	}
	return *f.c, true
}

// RunScenario evaluates every room of the scenario at a fixed instant and
// compares the latched commands with the expectations. The default
// hold-over band applies, so temperatures map to scaling factors the same
// way they do in an unconfigured deployment.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()

	now := time.Date(2026, 1, 12, 7, 0, 0, 0, time.UTC)

	rooms := make([]model.Room, len(sc.Rooms))
	for i, r := range sc.Rooms {
		rooms[i] = r.ToModel()
	}
	st := store.New(rooms)

	noData := make(map[string]bool, len(sc.NoData))
	for _, name := range sc.NoData {
		noData[name] = true
	}
	byRoom := make(map[string][]model.BookingInterval)
	for _, b := range sc.Bookings {
		byRoom[b.Room] = append(byRoom[b.Room], b.ToModel(now))
	}
	for _, r := range rooms {
		if noData[r.Name] {
			continue
		}
		st.SetBookings(r.Name, byRoom[r.Name])
	}

	var hc holdover.Config
	hc.SetDefaults()
	scaler, err := holdover.New(hc)
	if err != nil {
		t.Fatalf("scaler: %v", err)
	}

	eng := engine.New(st, rooms, fixedTemp{c: sc.TemperatureC}, scaler, 30*time.Minute, nil, nil, logger.NopLogger{})
	eng.EvaluateAll(now)

	for room, want := range sc.Expected {
		wantCmd, err := parseCommand(want)
		if err != nil {
			t.Fatalf("scenario %s: %v", sc.Name, err)
		}
		if got := st.Command(room); got != wantCmd {
			t.Errorf("scenario %s: room %s latched %s, want %s", sc.Name, room, got, wantCmd)
		}
	}
}
