package core

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomlinvo/rtc-signal/internal/domain"
	"github.com/tomlinvo/rtc-signal/internal/telemetry"
)

func newTestCoordinator() *Coordinator {
	reg := NewRegistry(RegistryConfig{})
	rec := telemetry.New(zerolog.Nop())
	return NewCoordinator(reg, rec)
}

func lastSent(p *fakePeer) string {
	if len(p.sent) == 0 {
		return ""
	}
	return p.sent[len(p.sent)-1]
}

func TestCoordinatorOnOpenSendsWaitingPrompt(t *testing.T) {
	c := newTestCoordinator()
	a := &fakePeer{id: "a"}

	c.OnOpen(a.ID(), a)

	if want := string(domain.VerbWaitingForConnCode); lastSent(a) != want {
		t.Fatalf("first message to a = %q, want %q", lastSent(a), want)
	}
}

func TestCoordinatorHappyPathToActive(t *testing.T) {
	c := newTestCoordinator()
	a := &fakePeer{id: "a"}
	b := &fakePeer{id: "b"}
	c.OnOpen(a.ID(), a)
	c.OnOpen(b.ID(), b)

	c.OnMessage(a.ID(), "CONNECTION ABCDEF")
	if want := "CONNECTION_RESPONSE CONNECTED ABCDEF"; a.sent[1] != want {
		t.Fatalf("a's CONNECTION_RESPONSE = %q, want %q", a.sent[1], want)
	}

	c.OnMessage(b.ID(), "CONNECTION ABCDEF")
	if want := "CONNECTION_RESPONSE CONNECTED ABCDEF"; b.sent[1] != want {
		t.Fatalf("b's CONNECTION_RESPONSE = %q, want %q", b.sent[1], want)
	}
	if want := "STATE Ready"; lastSent(a) != want || lastSent(b) != want {
		t.Fatalf("expected both peers to observe STATE Ready, got a=%q b=%q", lastSent(a), lastSent(b))
	}

	// OFFER: state flips to Creating and is broadcast before the offer is
	// relayed, so the sender's last message is the state change and the
	// roommate's last message is the relayed offer itself.
	c.OnMessage(a.ID(), "OFFER v=0 sdp-blob-a")
	if want := "STATE Creating"; lastSent(a) != want {
		t.Fatalf("a's last message = %q, want %q", lastSent(a), want)
	}
	if want := "OFFER v=0 sdp-blob-a"; lastSent(b) != want {
		t.Fatalf("b's last message = %q, want relayed offer %q", lastSent(b), want)
	}
	for _, line := range a.sent {
		if line == "OFFER v=0 sdp-blob-a" {
			t.Fatal("OFFER must never be relayed back to the sender")
		}
	}

	// ANSWER: relayed first, then the state flips to Active and is
	// broadcast, so the roommate sees the relayed answer before the state
	// change while the sender only sees the state change.
	c.OnMessage(b.ID(), "ANSWER v=0 sdp-blob-b")
	if want := "ANSWER v=0 sdp-blob-b"; a.sent[len(a.sent)-2] != want {
		t.Fatalf("expected ANSWER relayed to a before STATE, got %q", a.sent[len(a.sent)-2])
	}
	if want := "STATE Active"; lastSent(a) != want || lastSent(b) != want {
		t.Fatalf("expected STATE Active broadcast after ANSWER, got a=%q b=%q", lastSent(a), lastSent(b))
	}

	c.OnMessage(a.ID(), "ICE candidate:1 a")
	if want := "ICE candidate:1 a"; lastSent(b) != want {
		t.Fatalf("expected ICE relayed verbatim to b, got %q", lastSent(b))
	}
}

func TestCoordinatorRoomFullRejectsThirdPeer(t *testing.T) {
	c := newTestCoordinator()
	a := &fakePeer{id: "a"}
	b := &fakePeer{id: "b"}
	x := &fakePeer{id: "x"}
	c.OnOpen(a.ID(), a)
	c.OnOpen(b.ID(), b)
	c.OnOpen(x.ID(), x)

	c.OnMessage(a.ID(), "CONNECTION ABCDEF")
	c.OnMessage(b.ID(), "CONNECTION ABCDEF")

	c.OnMessage(x.ID(), "CONNECTION ABCDEF")
	if want := "CONNECTION_RESPONSE ROOM_FULL"; lastSent(x) != want {
		t.Fatalf("x's CONNECTION_RESPONSE = %q, want %q", lastSent(x), want)
	}
	if x.closed == "" {
		t.Fatal("expected x to be closed after ROOM_FULL rejection")
	}
}

func TestCoordinatorDuplicateConnectionIsIdempotent(t *testing.T) {
	c := newTestCoordinator()
	a := &fakePeer{id: "a"}
	c.OnOpen(a.ID(), a)

	c.OnMessage(a.ID(), "CONNECTION ABCDEF")
	first := a.sent[1] // CONNECTION_RESPONSE from the first admission

	c.OnMessage(a.ID(), "CONNECTION ABCDEF")
	second := lastSent(a) // the idempotent path replies with no trailing broadcast

	if first != second {
		t.Fatalf("duplicate CONNECTION for the same room should reply identically: %q vs %q", first, second)
	}
	if want := "CONNECTION_RESPONSE CONNECTED ABCDEF"; second != want {
		t.Fatalf("duplicate CONNECTION reply = %q, want %q", second, want)
	}
	if a.closed != "" {
		t.Fatal("duplicate CONNECTION for the same room must not close the peer")
	}
}

func TestCoordinatorConnectionToDifferentRoomIsRoomFull(t *testing.T) {
	c := newTestCoordinator()
	a := &fakePeer{id: "a"}
	c.OnOpen(a.ID(), a)

	c.OnMessage(a.ID(), "CONNECTION ABCDEF")
	c.OnMessage(a.ID(), "CONNECTION ZZZZZZ")
	if want := "CONNECTION_RESPONSE ROOM_FULL"; lastSent(a) != want {
		t.Fatalf("switching rooms mid-session should be rejected, got %q", lastSent(a))
	}
}

func TestCoordinatorDepartureResetsStateToImpossible(t *testing.T) {
	c := newTestCoordinator()
	a := &fakePeer{id: "a"}
	b := &fakePeer{id: "b"}
	c.OnOpen(a.ID(), a)
	c.OnOpen(b.ID(), b)
	c.OnMessage(a.ID(), "CONNECTION ABCDEF")
	c.OnMessage(b.ID(), "CONNECTION ABCDEF")

	room, ok := c.peerRoom[b.ID()]
	if !ok {
		t.Fatal("expected b to have joined a room")
	}
	if got := room.State(); got != domain.Ready {
		t.Fatalf("room state before departure = %q, want Ready", got)
	}

	c.OnClose(a.ID())

	if got := room.State(); got != domain.Impossible {
		t.Fatalf("room state after departure = %q, want Impossible", got)
	}
	if want := "STATE Impossible"; lastSent(b) != want {
		t.Fatalf("b should observe STATE Impossible after a leaves, got %q", lastSent(b))
	}
}

func TestCoordinatorMalformedInputIsDropped(t *testing.T) {
	c := newTestCoordinator()
	a := &fakePeer{id: "a"}
	c.OnOpen(a.ID(), a)
	before := len(a.sent)

	c.OnMessage(a.ID(), "NOT_A_VERB some garbage")

	if len(a.sent) != before {
		t.Fatalf("malformed input should not produce a reply, sent grew from %d to %d", before, len(a.sent))
	}
	if a.closed != "" {
		t.Fatal("malformed input alone should not close the peer")
	}
}

func TestCoordinatorOfferIgnoredOutsideReadyState(t *testing.T) {
	c := newTestCoordinator()
	a := &fakePeer{id: "a"}
	c.OnOpen(a.ID(), a)
	c.OnMessage(a.ID(), "CONNECTION ABCDEF") // only one member: room stays Impossible

	before := len(a.sent)
	c.OnMessage(a.ID(), "OFFER v=0 sdp")
	if len(a.sent) != before {
		t.Fatalf("OFFER before Ready should produce no broadcast, sent grew from %d to %d", before, len(a.sent))
	}
}

func TestCoordinatorICEWithNoRoommateIsDropped(t *testing.T) {
	c := newTestCoordinator()
	a := &fakePeer{id: "a"}
	c.OnOpen(a.ID(), a)
	c.OnMessage(a.ID(), "CONNECTION ABCDEF")

	c.OnMessage(a.ID(), "ICE candidate:1")
	// No roommate yet: nothing should have been sent beyond a's own replies.
	for _, line := range a.sent {
		if strings.HasPrefix(line, "ICE") {
			t.Fatalf("ICE should not be echoed back to the sender, got %q", line)
		}
	}
}

func TestCoordinatorInvalidRoomCodeRejected(t *testing.T) {
	c := newTestCoordinator()
	a := &fakePeer{id: "a"}
	c.OnOpen(a.ID(), a)

	before := len(a.sent)
	c.OnMessage(a.ID(), "CONNECTION not-a-code")
	if len(a.sent) != before {
		t.Fatalf("invalid room code should not produce a reply, sent grew from %d to %d", before, len(a.sent))
	}
}
