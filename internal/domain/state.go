package domain

// State is the advisory session state of a Room, mirrored to both members
// on every transition via a STATE broadcast.
type State string

const (
	// Impossible is the initial and terminal state: fewer than two members,
	// or a member just departed.
	Impossible State = "Impossible"
	// Ready holds once both members are present and no offer has been sent.
	Ready State = "Ready"
	// Creating holds between an OFFER being relayed and the matching ANSWER.
	Creating State = "Creating"
	// Active holds once an ANSWER has been relayed, or a member of a
	// two-member room announced START_CALL.
	Active State = "Active"
)

// String satisfies fmt.Stringer so States can be logged and interpolated
// into wire payloads directly.
func (s State) String() string { return string(s) }
