// Package events defines the event types emitted on the internal bus.
//
// Available event types:
//   - PollEvent: outcome of one booking fetch for one room
//   - CommandEvent: a room's latched heating command changed
//   - SendEvent: outcome of one CoE send to one (target, slot) pair
//   - TemperatureEvent: a new external temperature reading was accepted
//   - SensorStaleEvent: the temperature feed crossed the staleness boundary
package events
