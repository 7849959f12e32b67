package domain

import "fmt"

// ConnectionOutcome tags the two CONNECTION_RESPONSE subvariants. The wire
// format stays string-based ("CONNECTED <code>" / "ROOM_FULL"); this type
// exists so call sites branch on a tag instead of sniffing the payload
// string.
type ConnectionOutcome int

const (
	ConnectionConnected ConnectionOutcome = iota
	ConnectionRoomFull
)

// ConnectionResponse is the payload of a CONNECTION_RESPONSE message.
type ConnectionResponse struct {
	Outcome ConnectionOutcome
	Code    RoomCode // only meaningful when Outcome == ConnectionConnected
}

// Payload renders the wire-format payload for CONNECTION_RESPONSE, i.e. the
// part after "CONNECTION_RESPONSE ".
func (r ConnectionResponse) Payload() string {
	switch r.Outcome {
	case ConnectionConnected:
		return fmt.Sprintf("CONNECTED %s", r.Code)
	case ConnectionRoomFull:
		return "ROOM_FULL"
	default:
		return "ROOM_FULL"
	}
}
