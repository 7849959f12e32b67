// Package domain contains the wire-level vocabulary of the signaling
// protocol: verbs, session states, room codes and their sum-typed payloads.
// Nothing in this package touches sockets, timers or mutable process state.
package domain

import "strings"

// Verb is the tag of a signaling wire message.
type Verb string

const (
	VerbState              Verb = "STATE"
	VerbConnection         Verb = "CONNECTION"
	VerbConnectionResponse Verb = "CONNECTION_RESPONSE"
	VerbStartCall          Verb = "START_CALL"
	VerbOffer              Verb = "OFFER"
	VerbAnswer             Verb = "ANSWER"
	VerbICE                Verb = "ICE"
	VerbWaitingForConnCode Verb = "WAITING_FOR_CONNECTION_CODE"

	// VerbMalformed is never sent on the wire; Parse returns it for a line
	// whose first token doesn't match a known verb.
	VerbMalformed Verb = ""
)

// knownVerbs is the full wire vocabulary in both directions. ParseVerb
// doesn't distinguish direction — a peer sending a server-only verb like
// CONNECTION_RESPONSE parses fine here but has no case in the coordinator's
// dispatch switch, so it is dropped there as an unhandled verb.
var knownVerbs = map[string]Verb{
	"STATE":                       VerbState,
	"CONNECTION":                  VerbConnection,
	"CONNECTION_RESPONSE":         VerbConnectionResponse,
	"START_CALL":                  VerbStartCall,
	"OFFER":                       VerbOffer,
	"ANSWER":                      VerbAnswer,
	"ICE":                         VerbICE,
	"WAITING_FOR_CONNECTION_CODE": VerbWaitingForConnCode,
}

// ParseVerb upper-cases token and compares it against the known verb set.
// The second return is false for anything not in the set.
func ParseVerb(token string) (Verb, bool) {
	v, ok := knownVerbs[strings.ToUpper(token)]
	return v, ok
}
