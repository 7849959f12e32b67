package core

import (
	"sync"

	"github.com/tomlinvo/rtc-signal/internal/domain"
	"github.com/tomlinvo/rtc-signal/internal/telemetry"
)

// Coordinator is the sole mutator of Rooms and the sole sender of outbound
// messages. It presents the three-entry-point contract from spec §4.4:
// OnOpen, OnMessage, OnClose. All three are serialized by a single coarse
// mutex; handlers never block on network I/O while holding it because
// Peer.Send is non-blocking by contract.
type Coordinator struct {
	mu sync.Mutex

	sessions map[SessionID]Peer
	peerRoom map[SessionID]*Room

	registry *Registry
	rec      *telemetry.Recorder
}

// NewCoordinator wires reg's empty-room eviction callback to rec for
// observability and returns a ready-to-use Coordinator.
func NewCoordinator(reg *Registry, rec *telemetry.Recorder) *Coordinator {
	c := &Coordinator{
		sessions: make(map[SessionID]Peer),
		peerRoom: make(map[SessionID]*Room),
		registry: reg,
		rec:      rec,
	}
	reg.OnRemoved(func(code domain.RoomCode) {
		rec.RoomEvicted(string(code))
	})
	return c
}

// send writes verb/payload to p, tearing p down on backpressure per spec §5:
// a full outbox makes the peer unhealthy and it is dropped, there is no
// retry queue.
func (c *Coordinator) send(p Peer, verb domain.Verb, payload string) {
	if err := p.Send(Format(verb, payload)); err != nil {
		p.Close("backpressure")
	}
}

// relay forwards rawLine verbatim to sid's roommate, if any, and records the
// event. It never touches the sender.
func (c *Coordinator) relay(sid SessionID, room *Room, verb domain.Verb, rawLine string) {
	other, ok := room.Other(sid)
	if !ok {
		return
	}
	if err := other.Send(rawLine); err != nil {
		other.Close("backpressure")
		return
	}
	c.rec.Relayed(string(sid), string(room.Code()), verb, rawLine)
}

func (c *Coordinator) broadcastState(room *Room) {
	payload := room.State().String()
	for _, m := range room.Members() {
		c.send(m, domain.VerbState, payload)
	}
}

func (c *Coordinator) roomCodeOf(sid SessionID) string {
	if r, ok := c.peerRoom[sid]; ok {
		return string(r.Code())
	}
	return ""
}

// OnOpen registers sid -> peer and sends the unsolicited connection-code
// prompt. The peer is not yet in any room.
func (c *Coordinator) OnOpen(sid SessionID, peer Peer) {
	c.mu.Lock()
	c.sessions[sid] = peer
	c.mu.Unlock()

	c.rec.Opened(string(sid))
	c.send(peer, domain.VerbWaitingForConnCode, "")
}

// OnMessage parses rawLine and dispatches it per spec §4.4.
func (c *Coordinator) OnMessage(sid SessionID, rawLine string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	peer, ok := c.sessions[sid]
	if !ok {
		return // session already torn down; stray message, ignore
	}

	msg := Parse(rawLine)
	if msg.Malformed {
		c.rec.Dropped(string(sid), c.roomCodeOf(sid), "malformed", rawLine)
		return
	}

	switch msg.Verb {
	case domain.VerbState:
		c.handleState(sid, peer)
	case domain.VerbConnection:
		c.handleConnection(sid, peer, domain.RoomCode(msg.Payload))
	case domain.VerbStartCall:
		c.handleStartCall(sid, rawLine)
	case domain.VerbOffer:
		c.handleOffer(sid, rawLine)
	case domain.VerbAnswer:
		c.handleAnswer(sid, rawLine)
	case domain.VerbICE:
		c.handleICE(sid, rawLine)
	default:
		// Known verb but not one a peer may send (e.g. CONNECTION_RESPONSE,
		// WAITING_FOR_CONNECTION_CODE), or a verb this table doesn't dispatch.
		c.rec.Dropped(string(sid), c.roomCodeOf(sid), "unhandled verb", rawLine)
	}
}

func (c *Coordinator) handleState(sid SessionID, peer Peer) {
	room, ok := c.peerRoom[sid]
	state := domain.Impossible
	if ok {
		state = room.State()
	}
	c.send(peer, domain.VerbState, state.String())
}

func (c *Coordinator) handleConnection(sid SessionID, peer Peer, code domain.RoomCode) {
	if !code.Valid() {
		c.rec.Dropped(string(sid), "", "invalid room code", string(code))
		return
	}

	if current, ok := c.peerRoom[sid]; ok {
		if current.Code() == code {
			// Duplicate CONNECTION for the peer's own room is idempotent.
			c.send(peer, domain.VerbConnectionResponse,
				domain.ConnectionResponse{Outcome: domain.ConnectionConnected, Code: code}.Payload())
			c.rec.Admitted(string(sid), string(code), true)
			return
		}
		// A peer may belong to at most one room.
		c.send(peer, domain.VerbConnectionResponse,
			domain.ConnectionResponse{Outcome: domain.ConnectionRoomFull}.Payload())
		c.rec.Admitted(string(sid), string(code), false)
		return
	}

	room := c.registry.GetOrCreate(code)
	if room.MemberCount() >= maxMembers {
		c.send(peer, domain.VerbConnectionResponse,
			domain.ConnectionResponse{Outcome: domain.ConnectionRoomFull}.Payload())
		c.rec.Admitted(string(sid), string(code), false)
		peer.Close("cannot accept: room full")
		return
	}

	room.AddMember(peer)
	c.peerRoom[sid] = room

	c.send(peer, domain.VerbConnectionResponse,
		domain.ConnectionResponse{Outcome: domain.ConnectionConnected, Code: code}.Payload())
	c.rec.Admitted(string(sid), string(code), true)

	if room.MemberCount() == maxMembers {
		from := room.State()
		room.SetState(domain.Ready)
		c.rec.Transition(string(sid), string(code), from, domain.Ready)
	}
	c.broadcastState(room)
}

func (c *Coordinator) handleStartCall(sid SessionID, rawLine string) {
	room, ok := c.peerRoom[sid]
	if !ok {
		c.rec.Dropped(string(sid), "", "start_call: no room", rawLine)
		return
	}
	if room.MemberCount() == maxMembers && room.State() != domain.Active {
		from := room.State()
		room.SetState(domain.Active)
		c.rec.Transition(string(sid), string(room.Code()), from, domain.Active)
		c.broadcastState(room)
	}
	c.relay(sid, room, domain.VerbStartCall, rawLine)
}

func (c *Coordinator) handleOffer(sid SessionID, rawLine string) {
	room, ok := c.peerRoom[sid]
	if !ok || room.State() != domain.Ready {
		c.rec.Dropped(string(sid), c.roomCodeOf(sid), "offer: wrong state", rawLine)
		return
	}
	from := room.State()
	room.SetState(domain.Creating)
	c.rec.Transition(string(sid), string(room.Code()), from, domain.Creating)
	c.broadcastState(room)
	c.relay(sid, room, domain.VerbOffer, rawLine)
}

func (c *Coordinator) handleAnswer(sid SessionID, rawLine string) {
	room, ok := c.peerRoom[sid]
	if !ok || room.State() != domain.Creating {
		c.rec.Dropped(string(sid), c.roomCodeOf(sid), "answer: wrong state", rawLine)
		return
	}
	c.relay(sid, room, domain.VerbAnswer, rawLine)

	from := room.State()
	room.SetState(domain.Active)
	c.rec.Transition(string(sid), string(room.Code()), from, domain.Active)
	c.broadcastState(room)
}

func (c *Coordinator) handleICE(sid SessionID, rawLine string) {
	room, ok := c.peerRoom[sid]
	if !ok {
		c.rec.Dropped(string(sid), "", "ice: no room", rawLine)
		return
	}
	if _, ok := room.Other(sid); !ok {
		c.rec.Dropped(string(sid), string(room.Code()), "ice: no other member", rawLine)
		return
	}
	c.relay(sid, room, domain.VerbICE, rawLine)
}

// OnClose tears down sid's session: it is removed from the session table,
// its room membership is cleared, remaining members are told the room is
// now Impossible, and empty-room GC is scheduled if that emptied the room.
func (c *Coordinator) OnClose(sid SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sessions[sid]; !ok {
		return
	}
	delete(c.sessions, sid)

	room, hadRoom := c.peerRoom[sid]
	if !hadRoom {
		c.rec.Closed(string(sid), "")
		return
	}
	delete(c.peerRoom, sid)

	prev := room.State()
	room.RemoveMember(sid)
	c.rec.Closed(string(sid), string(room.Code()))
	if prev != domain.Impossible {
		c.rec.Transition(string(sid), string(room.Code()), prev, domain.Impossible)
	}
	c.broadcastState(room)

	if room.IsEmpty() {
		c.registry.ScheduleGC(room.Code())
	}
}
