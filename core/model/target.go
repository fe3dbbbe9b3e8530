package model

import "fmt"

// RoomSlot maps a room onto one output slot of a controller target.
// PDOIndex is zero-based on the wire; the config layer converts from the
// one-based indexes (1-64) that CMI web interfaces show.
type RoomSlot struct {
	Room     string
	PDOIndex uint8
}

// ControllerTarget is one CMI-style device receiving heating commands over
// CoE. A room may be mapped to any number of targets; slot indexes are
// unique within a target.
type ControllerTarget struct {
	// Host is the target address, host or host:port (5442 by default).
	Host string
	// VirtualCANID is the CAN node id this process claims as sender.
	VirtualCANID uint8
	Slots        []RoomSlot
}

// String identifies the target in logs and metrics labels.
func (t ControllerTarget) String() string {
	return fmt.Sprintf("%s/node%d", t.Host, t.VirtualCANID)
}
