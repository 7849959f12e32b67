package core

import (
	"sync"
	"time"

	"github.com/tomlinvo/rtc-signal/internal/domain"
)

// maxMembers is the hard cap on room membership; this system pairs exactly
// two peers per room (spec Non-goal: rooms larger than two participants).
const maxMembers = 2

// Room is a pairing slot addressed by a room code. It owns the membership
// list and the session state exclusively; nothing outside the Coordinator
// mutates a Room. Room holds Peer references only in its membership slice —
// no other component holds a strong reference from Room to Peer.
type Room struct {
	mu sync.Mutex

	code    domain.RoomCode
	members []Peer // ordered by arrival: index 0 = initiator, index 1 = joiner
	state   domain.State

	lastActivity time.Time
}

// NewRoom creates an empty Room in the Impossible state.
func NewRoom(code domain.RoomCode) *Room {
	return &Room{
		code:         code,
		state:        domain.Impossible,
		lastActivity: time.Now(),
	}
}

func (r *Room) Code() domain.RoomCode { return r.code }

// State returns the room's current advisory state.
func (r *Room) State() domain.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SetState overwrites the state unconditionally. Callers (the Coordinator)
// are responsible for only calling this from valid transitions.
func (r *Room) SetState(s domain.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
	r.lastActivity = time.Now()
}

// MemberCount returns the current membership size (0, 1 or 2).
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Members returns a snapshot copy of the current membership, in arrival
// order. The caller must not mutate the underlying Peers' room association;
// only the Coordinator does that.
func (r *Room) Members() []Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Peer, len(r.members))
	copy(out, r.members)
	return out
}

// Has reports whether sid is currently a member.
func (r *Room) Has(sid SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.ID() == sid {
			return true
		}
	}
	return false
}

// AddMember appends p to the membership list if there is room. It returns
// false without mutating anything if the room is already full.
func (r *Room) AddMember(p Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) >= maxMembers {
		return false
	}
	r.members = append(r.members, p)
	r.lastActivity = time.Now()
	return true
}

// RemoveMember removes sid from the membership list, if present, and resets
// state to Impossible (per spec: any departure drives the room back to
// Impossible). It reports whether the member was present.
func (r *Room) RemoveMember(sid SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.members {
		if m.ID() == sid {
			r.members = append(r.members[:i], r.members[i+1:]...)
			r.state = domain.Impossible
			r.lastActivity = time.Now()
			return true
		}
	}
	return false
}

// Other returns the sole other member of a two-party room, if any.
func (r *Room) Other(sid SessionID) (Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.ID() != sid {
			return m, true
		}
	}
	return nil, false
}

// IsEmpty reports whether the room currently has no members.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members) == 0
}
