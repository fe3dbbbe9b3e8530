// Package scenarios runs YAML-described decision cases against the engine:
// rooms, bookings and an external temperature in, expected commands out.
// Booking times are minute offsets from the evaluation instant, so cases
// read the way the heating rules are discussed.
package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/heatplan/heatplan/core/model"
)

type RoomDef struct {
	Name            string `yaml:"name"`
	PreheatMins     int    `yaml:"preheat_mins"`
	PreshutdownMins int    `yaml:"preshutdown_mins"`
}

func (r RoomDef) ToModel() model.Room {
	return model.Room{
		Name:        r.Name,
		Preheat:     time.Duration(r.PreheatMins) * time.Minute,
		Preshutdown: time.Duration(r.PreshutdownMins) * time.Minute,
	}
}

type BookingDef struct {
	Room         string `yaml:"room"`
	StartsInMins int    `yaml:"starts_in_mins"`
	DurationMins int    `yaml:"duration_mins"`
}

func (b BookingDef) ToModel(now time.Time) model.BookingInterval {
	start := now.Add(time.Duration(b.StartsInMins) * time.Minute)
	return model.BookingInterval{
		Start: start,
		End:   start.Add(time.Duration(b.DurationMins) * time.Minute),
	}
}

type Scenario struct {
	Name         string       `yaml:"name"`
	Description  string       `yaml:"description,omitempty"`
	TemperatureC *float64     `yaml:"temperature_c,omitempty"`
	Rooms        []RoomDef    `yaml:"rooms"`
	Bookings     []BookingDef `yaml:"bookings,omitempty"`
	// NoData lists rooms whose bookings were never fetched; they must
	// keep CommandUnknown.
	NoData   []string          `yaml:"no_data,omitempty"`
	Expected map[string]string `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func parseCommand(s string) (model.Command, error) {
	switch s {
	case "on":
		return model.CommandOn, nil
	case "off":
		return model.CommandOff, nil
	case "unknown":
		return model.CommandUnknown, nil
	default:
		return model.CommandUnknown, fmt.Errorf("unknown command %q", s)
	}
}
