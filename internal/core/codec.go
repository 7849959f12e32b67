package core

import (
	"strings"

	"github.com/tomlinvo/rtc-signal/internal/domain"
)

// Message is one parsed inbound line: a verb plus its raw payload. Malformed
// is true when the first token doesn't match a known verb, in which case
// Verb is domain.VerbMalformed and Payload holds the whole original line for
// logging.
type Message struct {
	Verb      domain.Verb
	Payload   string
	Malformed bool
}

// Parse splits the first whitespace-delimited token off line, upper-cases it
// for comparison against the verb set, and returns the remainder (leading
// whitespace stripped) as payload. Unknown verbs produce a Malformed result.
func Parse(line string) Message {
	trimmed := strings.TrimLeft(line, " \t")
	token := trimmed
	rest := ""
	if idx := strings.IndexAny(trimmed, " \t"); idx >= 0 {
		token = trimmed[:idx]
		rest = strings.TrimLeft(trimmed[idx+1:], " \t")
	}

	verb, ok := domain.ParseVerb(token)
	if !ok {
		return Message{Malformed: true, Payload: line}
	}
	return Message{Verb: verb, Payload: rest}
}

// Format renders one outbound wire message: "VERB[ payload]". An empty
// payload yields just "VERB" with no trailing space; Parse accepts both
// forms on the way back in.
func Format(verb domain.Verb, payload string) string {
	if payload == "" {
		return string(verb)
	}
	return string(verb) + " " + payload
}
