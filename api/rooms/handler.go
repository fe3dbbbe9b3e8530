package rooms

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/heatplan/heatplan/core/holdover"
	"github.com/heatplan/heatplan/core/model"
	"github.com/heatplan/heatplan/core/store"
	"github.com/heatplan/heatplan/core/temperature"
)

// Status is one room's latched state plus the hold-over times in effect at
// the time of the request.
type Status struct {
	store.RoomStatus
	EffectivePreheatMins     int `json:"effective_preheat_mins"`
	EffectivePreshutdownMins int `json:"effective_preshutdown_mins"`
}

// SensorStatus reports the external temperature feed driving the hold-over
// scaling. Celsius and At stay unset until the first reading arrives.
type SensorStatus struct {
	Celsius *float64   `json:"celsius,omitempty"`
	At      *time.Time `json:"at,omitempty"`
	Stale   bool       `json:"stale"`
}

// Response is the document served on GET /api/rooms.
type Response struct {
	Rooms               []Status     `json:"rooms"`
	ExternalTemperature SensorStatus `json:"external_temperature"`
}

// NewStatusHandler returns an HTTP handler exposing room heating status via
// GET /api/rooms. mon may be nil; the feed then reports stale and the
// configured maxima apply.
func NewStatusHandler(st *store.Store, rooms []model.Room, sc *holdover.Scaler, mon *temperature.Monitor, sensorTimeout time.Duration) http.Handler {
	byName := make(map[string]model.Room, len(rooms))
	for _, r := range rooms {
		byName[r.Name] = r
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		now := time.Now().UTC()
		var temp *float64
		if mon != nil {
			if c, ok := mon.Current(now, sensorTimeout); ok {
				temp = &c
			}
		}

		snapshot := st.Snapshot()
		resp := Response{Rooms: make([]Status, 0, len(snapshot))}
		for _, rs := range snapshot {
			room := byName[rs.Room]
			lead, lag := sc.Effective(room.Preheat, room.Preshutdown, temp)
			resp.Rooms = append(resp.Rooms, Status{
				RoomStatus:               rs,
				EffectivePreheatMins:     int(lead.Minutes()),
				EffectivePreshutdownMins: int(lag.Minutes()),
			})
		}
		resp.ExternalTemperature.Stale = temp == nil
		if mon != nil {
			if reading, ok := mon.Reading(); ok {
				resp.ExternalTemperature.Celsius = &reading.Celsius
				resp.ExternalTemperature.At = &reading.At
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
