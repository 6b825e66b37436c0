package webserver

import (
	"encoding/json"
)

// Commands a client can send after its initial session.Config.
const (
	CommandStart     = "start"
	CommandPause     = "pause"
	CommandReset     = "reset"
	CommandConfigure = "configure"
	CommandExport    = "export"
)

// Command is a client to server websocket message. Config is only read for
// CommandConfigure; fields it omits keep their current value.
type Command struct {
	Command string          `json:"command"`
	Config  json.RawMessage `json:"config,omitempty"`
}
