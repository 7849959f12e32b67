package domain

import "testing"

func TestConnectionResponsePayload(t *testing.T) {
	connected := ConnectionResponse{Outcome: ConnectionConnected, Code: "ABCDEF"}
	if got, want := connected.Payload(), "CONNECTED ABCDEF"; got != want {
		t.Fatalf("Payload() = %q, want %q", got, want)
	}

	full := ConnectionResponse{Outcome: ConnectionRoomFull}
	if got, want := full.Payload(), "ROOM_FULL"; got != want {
		t.Fatalf("Payload() = %q, want %q", got, want)
	}
}
