package model

// Command is the heating state derived for a room. A room stays Unknown
// until its first successful booking poll; Unknown commands are never
// dispatched.
type Command int

const (
	CommandUnknown Command = iota
	CommandOff
	CommandOn
)

// String returns a human-readable representation of the command.
func (c Command) String() string {
	switch c {
	case CommandOff:
		return "off"
	case CommandOn:
		return "on"
	default:
		return "unknown"
	}
}

// Known reports whether the command carries a dispatchable value.
func (c Command) Known() bool { return c == CommandOn || c == CommandOff }

// Bool converts the command to the digital value sent on the wire. It is
// only meaningful for known commands; Unknown maps to false.
func (c Command) Bool() bool { return c == CommandOn }

// CommandFor maps a boolean heating decision to a Command.
func CommandFor(on bool) Command {
	if on {
		return CommandOn
	}
	return CommandOff
}
