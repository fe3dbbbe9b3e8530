package model

import "time"

// Room is the immutable configuration view of a monitored room. The mutable
// state (bookings, latched command) is owned by the store; nothing here
// changes after startup.
type Room struct {
	// Name uniquely identifies the room across config, store and targets.
	Name string
	// ChurchToolsID is the booking-service resource id polled for this room.
	ChurchToolsID int64
	// Preheat is the maximum lead time heating starts before a booking.
	Preheat time.Duration
	// Preshutdown is the maximum lag time heating stays on after a booking.
	Preshutdown time.Duration
}
