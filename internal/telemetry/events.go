// Package telemetry renders the coordinator's state machine and relay
// activity as structured zerolog events, per spec §4.6: every transition,
// membership event, relay and close produces one record with a timestamp,
// room code (if any), session id, event kind, and before/after state where
// applicable. Logged message lines are cut to payloadLogLimit bytes, so long
// SDP/ICE payloads never appear in full.
package telemetry

import (
	"github.com/rs/zerolog"

	"github.com/tomlinvo/rtc-signal/internal/domain"
)

// payloadLogLimit is how many bytes of an opaque OFFER/ANSWER/ICE payload
// are kept in a log line. The rest is elided — SDP blobs run to several KB
// and the server must not need to parse them to log this much.
const payloadLogLimit = 64

// Recorder wraps a zerolog.Logger with the field vocabulary this system
// uses everywhere: sid, room code, event kind, before/after state.
type Recorder struct {
	log zerolog.Logger
}

// New wraps logger. Pass log.Logger (the process-wide zerolog logger) from
// cmd/server for the default wiring.
func New(logger zerolog.Logger) *Recorder {
	return &Recorder{log: logger}
}

func truncate(s string) string {
	if len(s) <= payloadLogLimit {
		return s
	}
	return s[:payloadLogLimit] + "..."
}

// Opened records a new transport session being registered.
func (r *Recorder) Opened(sid string) {
	r.log.Info().
		Str("module", "coordinator").
		Str("event", "open").
		Str("sid", sid).
		Msg("peer connected")
}

// Admitted records a CONNECTION admission decision.
func (r *Recorder) Admitted(sid, code string, accepted bool) {
	ev := r.log.Info().
		Str("module", "coordinator").
		Str("event", "admission").
		Str("sid", sid).
		Str("room", code).
		Bool("accepted", accepted)
	if accepted {
		ev.Msg("peer admitted to room")
	} else {
		ev.Msg("peer rejected: room full")
	}
}

// Transition records a room state change.
func (r *Recorder) Transition(sid, code string, from, to domain.State) {
	r.log.Info().
		Str("module", "coordinator").
		Str("event", "transition").
		Str("sid", sid).
		Str("room", code).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("room state transition")
}

// Relayed records a verbatim relay of OFFER/ANSWER/ICE/START_CALL from one
// member to the other.
func (r *Recorder) Relayed(sid, code string, verb domain.Verb, payload string) {
	r.log.Info().
		Str("module", "coordinator").
		Str("event", "relay").
		Str("sid", sid).
		Str("room", code).
		Str("verb", string(verb)).
		Str("payload", truncate(payload)).
		Msg("relayed message to peer")
}

// Dropped records a malformed line or a protocol violation that was logged
// and otherwise ignored.
func (r *Recorder) Dropped(sid, code, reason, line string) {
	r.log.Warn().
		Str("module", "coordinator").
		Str("event", "dropped").
		Str("sid", sid).
		Str("room", code).
		Str("reason", reason).
		Str("line", truncate(line)).
		Msg("dropped inbound message")
}

// Closed records a session closing and, if it belonged to a room, the room
// it left.
func (r *Recorder) Closed(sid, code string) {
	r.log.Info().
		Str("module", "coordinator").
		Str("event", "close").
		Str("sid", sid).
		Str("room", code).
		Msg("peer disconnected")
}

// RoomEvicted records the empty-room GC actually removing a room.
func (r *Recorder) RoomEvicted(code string) {
	r.log.Info().
		Str("module", "registry").
		Str("event", "gc").
		Str("room", code).
		Msg("empty room evicted")
}
