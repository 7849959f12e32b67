package core

import "errors"

// SessionID is a server-minted opaque identifier for one live connection.
type SessionID string

// ErrBackpressure is returned by Peer.Send when the peer's outbox is full.
// The coordinator treats it identically to a transport error: the peer is
// dropped via the same path as onClose.
var ErrBackpressure = errors.New("core: peer outbox full")

// Peer is a live bidirectional message channel to a remote client, as seen
// by the Coordinator. Its lifetime is bounded by the owning Transport
// session; a Peer MUST NOT be referenced by any Room after Close.
type Peer interface {
	ID() SessionID

	// Send enqueues line to the peer's outbox. It never blocks: a full
	// outbox returns ErrBackpressure immediately rather than waiting.
	Send(line string) error

	// Close tears down the connection. reason is surfaced to the transport
	// for use as a close-frame reason string; it is not sent as protocol
	// data. Close is idempotent.
	Close(reason string)
}
