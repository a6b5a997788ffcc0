package garage

import (
	"encoding/json"
	"time"
)

// CommandTypeOpen asks the controller to pulse the door relay.
const CommandTypeOpen = "open"

// DefaultCommandSource identifies this client in published commands.
const DefaultCommandSource = "web-app"

// Command is the message published to the command topic.
type Command struct {
	Type      string `json:"type"`
	Source    string `json:"source"`
	Timestamp int64  `json:"timestamp"`
}

// NewOpenCommand builds an open command stamped with now.
func NewOpenCommand(source string, now time.Time) Command {
	return Command{
		Type:      CommandTypeOpen,
		Source:    source,
		Timestamp: now.UnixMilli(),
	}
}

// Encode renders the command as UTF-8 JSON text.
func (c Command) Encode() ([]byte, error) {
	return json.Marshal(c)
}
