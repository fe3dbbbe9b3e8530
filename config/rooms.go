package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/heatplan/heatplan/core/model"
)

const (
	defaultPreheatMins     = 30
	defaultPreshutdownMins = 10
)

// RoomConfig declares one monitored room. The hold-over minutes are
// optional; absent values fall back to 30/10.
type RoomConfig struct {
	// ChurchToolsID is the booking resource id polled for this room.
	ChurchToolsID int64 `json:"churchtools_id"`
	// PreheatMins is the maximum lead time in minutes, 0..255.
	PreheatMins *int `json:"preheat_mins"`
	// PreshutdownMins is the maximum lag time in minutes, 0..255.
	PreshutdownMins *int `json:"preshutdown_mins"`
}

// CMIRoomConfig maps a room onto one output slot of a CMI. PDOIndex uses the
// one-based numbering CMI web interfaces show; it goes zero-based on the
// wire.
type CMIRoomConfig struct {
	Name     string `json:"name"`
	PDOIndex int    `json:"pdo_index"`
}

// CMIConfig declares one controller target.
type CMIConfig struct {
	// Host is the device address; ":5442" is assumed when no port is given.
	Host string `json:"host"`
	// OurVirtualCANID is the CAN node id this process claims as sender, 1..62.
	OurVirtualCANID int `json:"our_virtual_can_id"`
	// Rooms lists the slots driven on this device.
	Rooms []CMIRoomConfig `json:"rooms"`
}

func validateRooms(rooms map[string]RoomConfig) error {
	if len(rooms) == 0 {
		return invalid("rooms", "", "at least one room must be configured")
	}
	for name, rc := range rooms {
		if rc.ChurchToolsID <= 0 {
			return invalid("rooms", name+".churchtools_id", "must be a positive resource id, got %d", rc.ChurchToolsID)
		}
		if err := validateMinutes("rooms", name+".preheat_mins", rc.PreheatMins); err != nil {
			return err
		}
		if err := validateMinutes("rooms", name+".preshutdown_mins", rc.PreshutdownMins); err != nil {
			return err
		}
	}
	return nil
}

func validateMinutes(section, field string, v *int) error {
	if v != nil && (*v < 0 || *v > 255) {
		return invalid(section, field, "must be within 0..255, got %d", *v)
	}
	return nil
}

func validateCMIs(cmis []CMIConfig, rooms map[string]RoomConfig) error {
	for i, cmi := range cmis {
		section := fmt.Sprintf("cmis[%d]", i)
		if cmi.Host == "" {
			return invalid(section, "host", "is required")
		}
		if cmi.OurVirtualCANID < 1 || cmi.OurVirtualCANID > 62 {
			return invalid(section, "our_virtual_can_id", "must be within 1..62, got %d", cmi.OurVirtualCANID)
		}
		if len(cmi.Rooms) == 0 {
			return invalid(section, "rooms", "needs at least one room mapping")
		}
		seen := make(map[int]string, len(cmi.Rooms))
		for _, slot := range cmi.Rooms {
			if _, ok := rooms[slot.Name]; !ok {
				return invalid(section, "rooms", "references unknown room %q", slot.Name)
			}
			if slot.PDOIndex < 1 || slot.PDOIndex > 64 {
				return invalid(section, "rooms", "pdo_index for %q must be within 1..64, got %d", slot.Name, slot.PDOIndex)
			}
			if other, dup := seen[slot.PDOIndex]; dup {
				return invalid(section, "rooms", "pdo_index %d used by both %q and %q", slot.PDOIndex, other, slot.Name)
			}
			seen[slot.PDOIndex] = slot.Name
		}
	}
	return nil
}

// ResolveRooms returns the immutable room views in name order.
func (c *Config) ResolveRooms() []model.Room {
	names := make([]string, 0, len(c.Rooms))
	for name := range c.Rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	rooms := make([]model.Room, 0, len(names))
	for _, name := range names {
		rc := c.Rooms[name]
		rooms = append(rooms, model.Room{
			Name:          name,
			ChurchToolsID: rc.ChurchToolsID,
			Preheat:       minutesOrDefault(rc.PreheatMins, defaultPreheatMins),
			Preshutdown:   minutesOrDefault(rc.PreshutdownMins, defaultPreshutdownMins),
		})
	}
	return rooms
}

func minutesOrDefault(v *int, def int) time.Duration {
	if v == nil {
		return time.Duration(def) * time.Minute
	}
	return time.Duration(*v) * time.Minute
}

// ResolveTargets returns the controller targets with wire-level (zero-based)
// slot indexes.
func (c *Config) ResolveTargets() []model.ControllerTarget {
	targets := make([]model.ControllerTarget, 0, len(c.CMIs))
	for _, cmi := range c.CMIs {
		t := model.ControllerTarget{
			Host:         cmi.Host,
			VirtualCANID: uint8(cmi.OurVirtualCANID),
		}
		for _, slot := range cmi.Rooms {
			t.Slots = append(t.Slots, model.RoomSlot{Room: slot.Name, PDOIndex: uint8(slot.PDOIndex - 1)})
		}
		targets = append(targets, t)
	}
	return targets
}
