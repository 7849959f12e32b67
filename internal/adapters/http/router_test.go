package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomlinvo/rtc-signal/internal/config"
	"github.com/tomlinvo/rtc-signal/internal/core"
	"github.com/tomlinvo/rtc-signal/internal/telemetry"
)

func newTestRouter(t *testing.T) (*core.Registry, http.Handler) {
	t.Helper()
	cfg := &config.Config{Mode: "release", Secret: "test-secret"}
	reg := core.NewRegistry(core.RegistryConfig{})
	rec := telemetry.New(zerolog.Nop())
	coord := core.NewCoordinator(reg, rec)
	return reg, SetupRouter(cfg, coord, reg)
}

func TestHealthz(t *testing.T) {
	_, r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusOK)
	}
	if rw.Body.String() != "ok" {
		t.Fatalf("body = %q, want %q", rw.Body.String(), "ok")
	}
}

func TestGenerateCode(t *testing.T) {
	_, r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/generate-code", nil)
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusOK)
	}
	if len(rw.Body.String()) != 6 {
		t.Fatalf("body = %q, want a 6-character room code", rw.Body.String())
	}
}

func TestGenerateCodeExhaustsRoomCap(t *testing.T) {
	cfg := &config.Config{Mode: "release", Secret: "test-secret"}
	reg := core.NewRegistry(core.RegistryConfig{RoomCap: 1})
	rec := telemetry.New(zerolog.Nop())
	coord := core.NewCoordinator(reg, rec)
	r := SetupRouter(cfg, coord, reg)

	req1 := httptest.NewRequest(http.MethodGet, "/generate-code", nil)
	rw1 := httptest.NewRecorder()
	r.ServeHTTP(rw1, req1)
	if rw1.Code != http.StatusOK {
		t.Fatalf("first generate-code status = %d, want %d", rw1.Code, http.StatusOK)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/generate-code", nil)
	rw2 := httptest.NewRecorder()
	r.ServeHTTP(rw2, req2)
	if rw2.Code != http.StatusServiceUnavailable {
		t.Fatalf("second generate-code status = %d, want %d", rw2.Code, http.StatusServiceUnavailable)
	}
}

func TestRoomsEndpointReflectsRegistry(t *testing.T) {
	reg, r := newTestRouter(t)
	code, err := reg.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusOK)
	}

	var rooms []core.RoomSnapshot
	if err := json.Unmarshal(rw.Body.Bytes(), &rooms); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	found := false
	for _, room := range rooms {
		if room.Code == code {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected /rooms to list generated code %q, got %+v", code, rooms)
	}
}

func TestClientTokenCookieIsSetOnce(t *testing.T) {
	_, r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	var token string
	for _, c := range rw.Result().Cookies() {
		if c.Name == "ct" {
			token = c.Value
		}
	}
	if token == "" {
		t.Fatal("expected a ct cookie to be set on first request")
	}

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(&http.Cookie{Name: "ct", Value: token})
	rw2 := httptest.NewRecorder()
	r.ServeHTTP(rw2, req2)

	for _, c := range rw2.Result().Cookies() {
		if c.Name == "ct" && c.Value != token {
			t.Fatalf("ct cookie changed on second request: %q vs %q", c.Value, token)
		}
	}
}
