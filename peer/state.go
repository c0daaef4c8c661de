package peer

import "fmt"

// State is the lifecycle state of a Connection.
type State int32

// Connection states, in the order a successful connection goes through them.
const (
	StateDisconnected State = iota
	StateConnecting
	StateHandshaking
	StateEstablished
)

var stateStrings = map[State]string{
	StateDisconnected: "disconnected",
	StateConnecting:   "connecting",
	StateHandshaking:  "handshaking",
	StateEstablished:  "established",
}

// String returns the State in human-readable form.
func (s State) String() string {
	if str, ok := stateStrings[s]; ok {
		return str
	}
	return fmt.Sprintf("unknown state (%d)", int32(s))
}
