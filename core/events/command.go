package events

import (
	"time"

	"github.com/heatplan/heatplan/core/model"
)

// CommandEvent is published when the decision engine latches a different
// command for a room than the one previously stored.
type CommandEvent struct {
	Room     string
	Command  model.Command
	Previous model.Command
	At       time.Time
}
