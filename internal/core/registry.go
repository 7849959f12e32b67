package core

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/tomlinvo/rtc-signal/internal/domain"
)

// ErrResourceExhausted is returned by Generate when either code-generation
// retries or the configured room cap is exhausted.
var ErrResourceExhausted = errors.New("core: resource exhausted")

// maxGenerateAttempts bounds the retry-on-collision loop in Generate.
const maxGenerateAttempts = 8

// RegistryConfig carries the tunables Generate and the empty-room GC need.
type RegistryConfig struct {
	// GCGracePeriod is how long an empty room survives before removal.
	// Zero means the spec default of 60s.
	GCGracePeriod time.Duration
	// RoomCap bounds the number of simultaneous rooms. Zero means unlimited.
	RoomCap int
}

// Registry maps room code to Room, generates unused codes, and evicts empty
// rooms after a grace period. It is the exclusive owner of the
// code -> Room mapping.
type Registry struct {
	mu     sync.Mutex
	rooms  map[domain.RoomCode]*Room
	timers map[domain.RoomCode]*time.Timer

	cfg RegistryConfig
	rng *rand.Rand

	// onRemoved is invoked (outside the lock) whenever a scheduled GC actually
	// removes a room, so the Coordinator can record the eviction.
	onRemoved func(domain.RoomCode)
}

// NewRegistry constructs a Registry whose code generator draws from a
// time-seeded random source.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.GCGracePeriod <= 0 {
		cfg.GCGracePeriod = 60 * time.Second
	}
	return &Registry{
		rooms:  make(map[domain.RoomCode]*Room),
		timers: make(map[domain.RoomCode]*time.Timer),
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// OnRemoved registers a callback fired whenever the empty-room GC removes a
// room. Not safe to call concurrently with registry operations; call once at
// startup before traffic begins.
func (reg *Registry) OnRemoved(fn func(domain.RoomCode)) {
	reg.onRemoved = fn
}

// Generate draws a fresh, currently-unused code, registers an empty Room
// under it, and returns the code. It retries on collision up to
// maxGenerateAttempts times before returning ErrResourceExhausted.
func (reg *Registry) Generate() (domain.RoomCode, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.cfg.RoomCap > 0 && len(reg.rooms) >= reg.cfg.RoomCap {
		return "", ErrResourceExhausted
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code := domain.DrawCode(reg.rng)
		if _, exists := reg.rooms[code]; exists {
			continue
		}
		reg.rooms[code] = NewRoom(code)
		return code, nil
	}
	return "", ErrResourceExhausted
}

// Lookup returns the Room registered under code, if any. Lookup is
// case-sensitive, matching the alphabet's uppercase-only codes.
func (reg *Registry) Lookup(code domain.RoomCode) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[code]
	return r, ok
}

// GetOrCreate returns the Room registered under code, creating and
// inserting an empty one if absent. This is the path by which a joiner who
// knows a code implicitly creates the room when the initiator's code
// issuance happened out-of-band (spec §4.3). Any pending empty-room GC for
// code is canceled in the same critical section as the lookup, so a room
// handed back to a caller can never be concurrently evicted by a timer that
// fired in the gap before the caller adds its member.
func (reg *Registry) GetOrCreate(code domain.RoomCode) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.cancelTimerLocked(code)
	if r, ok := reg.rooms[code]; ok {
		return r
	}
	r := NewRoom(code)
	reg.rooms[code] = r
	return r
}

// Remove unconditionally deletes code from the registry and cancels any
// pending GC timer for it.
func (reg *Registry) Remove(code domain.RoomCode) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.cancelTimerLocked(code)
	delete(reg.rooms, code)
}

// ScheduleGC arms a removal of code in reg.cfg.GCGracePeriod, unless the room
// is no longer empty or no longer registered when the timer fires. Calling
// ScheduleGC again before the timer fires reschedules it (does not coalesce),
// matching spec §4.3.
func (reg *Registry) ScheduleGC(code domain.RoomCode) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.cancelTimerLocked(code)
	reg.timers[code] = time.AfterFunc(reg.cfg.GCGracePeriod, func() {
		reg.fireGC(code)
	})
}

// CancelGC disarms any pending removal of code, e.g. because a peer rejoined
// before the grace period elapsed.
func (reg *Registry) CancelGC(code domain.RoomCode) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.cancelTimerLocked(code)
}

func (reg *Registry) cancelTimerLocked(code domain.RoomCode) {
	if t, ok := reg.timers[code]; ok {
		t.Stop()
		delete(reg.timers, code)
	}
}

func (reg *Registry) fireGC(code domain.RoomCode) {
	reg.mu.Lock()
	room, ok := reg.rooms[code]
	if !ok {
		reg.mu.Unlock()
		return
	}
	if !room.IsEmpty() {
		// A peer joined in the interim; the join path already canceled this
		// timer, but guard anyway in case of a race with the timer firing.
		reg.mu.Unlock()
		return
	}
	delete(reg.rooms, code)
	delete(reg.timers, code)
	reg.mu.Unlock()

	if reg.onRemoved != nil {
		reg.onRemoved(code)
	}
}

// Snapshot returns a point-in-time list of all registered rooms, for the
// admin /rooms endpoint.
func (reg *Registry) Snapshot() []RoomSnapshot {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.Unlock()

	out := make([]RoomSnapshot, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomSnapshot{
			Code:        r.Code(),
			MemberCount: r.MemberCount(),
			State:       r.State(),
		})
	}
	return out
}

// RoomSnapshot is a read-only view of a Room for introspection endpoints.
type RoomSnapshot struct {
	Code        domain.RoomCode `json:"code"`
	MemberCount int             `json:"memberCount"`
	State       domain.State    `json:"state"`
}
