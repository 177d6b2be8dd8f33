package room

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"flip7server/backend/collaborator"
	"flip7server/backend/logging"
	"flip7server/backend/metrics"
)

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const roomCodeLength = 6

// Registry is the process-wide `roomCode -> Room` map plus a
// `sessionId -> roomCode` index, per spec.md §4.5. The map itself is guarded
// by a single lock; once a Room reference is in hand, callers talk to it
// through its own serialized input queue, never through the Registry lock.
type Registry struct {
	cfg      Config
	recorder collaborator.Recorder

	mu       sync.RWMutex
	rooms    map[string]*Room
	sessions map[string]string // sessionId -> roomCode

	sweepStop chan struct{}
}

// NewRegistry constructs an empty Registry and starts its sweep goroutine.
func NewRegistry(cfg Config, recorder collaborator.Recorder) *Registry {
	reg := &Registry{
		cfg:       cfg,
		recorder:  recorder,
		rooms:     make(map[string]*Room),
		sessions:  make(map[string]string),
		sweepStop: make(chan struct{}),
	}
	go reg.sweepLoop()
	return reg
}

// NewRoom mints a fresh room code, registers and starts a Room with no seats
// yet, and returns it. Used both by CreateRoom (single host join) and by the
// matchmaking queue (which seats several pre-existing sessions at once).
func (reg *Registry) NewRoom() *Room {
	code := reg.mintRoomCode()
	r := New(code, reg.cfg, reg, reg.recorder).WithLogger(logging.ForRoom(code))

	reg.mu.Lock()
	reg.rooms[code] = r
	reg.mu.Unlock()
	go r.Run()
	metrics.RoomsActive.Inc()
	return r
}

// CreateRoom mints a fresh room code, starts its worker goroutine, and seats
// the host. Returns the room, the host's session id, and its snapshot.
func (reg *Registry) CreateRoom(hostName string) (*Room, string, *Snapshot, *Error) {
	r := reg.NewRoom()
	code := r.Code

	sessionID := uuid.NewString()
	snap, rerr := r.Join(sessionID, hostName, nil)
	if rerr != nil {
		reg.forget(code)
		return nil, "", nil, rerr
	}
	reg.mu.Lock()
	reg.sessions[sessionID] = code
	reg.mu.Unlock()
	return r, sessionID, snap, nil
}

// JoinRoom seats a new player in an existing room.
func (reg *Registry) JoinRoom(code, name string) (*Room, string, *Snapshot, *Error) {
	r, ok := reg.lookup(code)
	if !ok {
		return nil, "", nil, newError(ErrRoomNotFound, "no room with that code")
	}
	sessionID := uuid.NewString()
	snap, rerr := r.Join(sessionID, name, nil)
	if rerr != nil {
		return nil, "", nil, rerr
	}
	reg.mu.Lock()
	reg.sessions[sessionID] = code
	reg.mu.Unlock()
	return r, sessionID, snap, nil
}

// FindBySession resolves a session id back to its Room, for reconnects and
// ordinary per-socket dispatch alike.
func (reg *Registry) FindBySession(sessionID string) (*Room, bool) {
	reg.mu.RLock()
	code, ok := reg.sessions[sessionID]
	reg.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return reg.lookup(code)
}

// Lookup resolves a room by its code.
func (reg *Registry) Lookup(code string) (*Room, bool) {
	return reg.lookup(code)
}

func (reg *Registry) lookup(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[code]
	return r, ok
}

// BindSession records that sessionID now belongs to roomCode, used once a
// socket successfully restores a session into a room it didn't originate
// the mapping for (e.g. a server restart in a future iteration).
func (reg *Registry) BindSession(sessionID, roomCode string) {
	reg.mu.Lock()
	reg.sessions[sessionID] = roomCode
	reg.mu.Unlock()
}

// forget removes a room (and any sessions pointing at it) from the index.
// Called by a Room itself as its very last act before its worker exits.
func (reg *Registry) forget(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, code)
	for sid, c := range reg.sessions {
		if c == code {
			delete(reg.sessions, sid)
		}
	}
}

// Close stops the sweep goroutine. Does not close individual rooms.
func (reg *Registry) Close() {
	close(reg.sweepStop)
}

func (reg *Registry) sweepLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			reg.sweepOnce()
		case <-reg.sweepStop:
			return
		}
	}
}

func (reg *Registry) sweepOnce() {
	reg.mu.RLock()
	candidates := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		candidates = append(candidates, r)
	}
	reg.mu.RUnlock()

	for _, r := range candidates {
		snap := r.Snapshot()
		if snap.Status == StatusClosed {
			continue
		}
		if r.ConnectedCount() == 0 {
			r.mu.Lock()
			idle := time.Since(r.lastActivity)
			r.mu.Unlock()
			if idle >= reg.cfg.RoomEmptyTTL {
				r.Close()
			}
		}
	}
	metrics.RoomsActive.Set(float64(len(candidates)))
}

func (reg *Registry) mintRoomCode() string {
	for {
		code := randomRoomCode()
		reg.mu.RLock()
		_, exists := reg.rooms[code]
		reg.mu.RUnlock()
		if !exists {
			return code
		}
	}
}

func randomRoomCode() string {
	buf := make([]byte, roomCodeLength)
	_, _ = rand.Read(buf)
	out := make([]byte, roomCodeLength)
	for i, b := range buf {
		out[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}
	return string(out)
}
