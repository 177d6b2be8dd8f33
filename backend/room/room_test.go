package room

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flip7server/backend/collaborator"
	"flip7server/sdk"
)

// fakeSocket records every envelope sent to it; safe for concurrent use
// since Room broadcasts happen on its own goroutine while tests read back
// from the main goroutine.
type fakeSocket struct {
	sessionID string

	mu  sync.Mutex
	out []Envelope
}

func newFakeSocket(sessionID string) *fakeSocket {
	return &fakeSocket{sessionID: sessionID}
}

func (s *fakeSocket) SessionID() string { return s.sessionID }

func (s *fakeSocket) Send(env Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = append(s.out, env)
}

func (s *fakeSocket) last() *Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.out) == 0 {
		return nil
	}
	return &s.out[len(s.out)-1]
}

func testConfig() Config {
	return Config{
		TargetScore:     200,
		AIThinkDelay:    5 * time.Millisecond,
		AIHardTimeout:   50 * time.Millisecond,
		HostGraceWindow: 20 * time.Millisecond,
		RoomEmptyTTL:    20 * time.Millisecond,
		RNGSeed:         42,
	}
}

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	r := New("TEST01", testConfig(), nil, &collaborator.NoopRecorder{})
	go r.Run()
	t.Cleanup(r.Close)
	return r
}

func TestRoomJoinFirstPlayerBecomesHost(t *testing.T) {
	r := newTestRoom(t)
	sockA := newFakeSocket("sess-a")

	snap, rerr := r.Join("sess-a", "Alice", sockA)
	require.Nil(t, rerr)
	require.NotNil(t, snap)
	assert.Equal(t, "sess-a", snap.HostSessionID)
	require.Len(t, snap.Seats, 1)
	assert.Equal(t, "Alice", snap.Seats[0].Name)
}

func TestRoomJoinDuplicateNameRejected(t *testing.T) {
	r := newTestRoom(t)
	_, rerr := r.Join("sess-a", "Alice", newFakeSocket("sess-a"))
	require.Nil(t, rerr)

	_, rerr = r.Join("sess-b", "Alice", newFakeSocket("sess-b"))
	require.NotNil(t, rerr)
	assert.Equal(t, ErrNameInUse, rerr.Code)
}

func TestRoomStartAutoFillsSecondSeat(t *testing.T) {
	r := newTestRoom(t)
	_, rerr := r.Join("sess-a", "Alice", newFakeSocket("sess-a"))
	require.Nil(t, rerr)

	snap, rerr := r.Start("sess-a")
	require.Nil(t, rerr)
	require.NotNil(t, snap.Game)
	assert.Len(t, snap.Game.Players, 2)
	assert.Equal(t, sdk.GameStatusPlaying, snap.Game.Status)
}

func TestRoomStartRejectsNonHost(t *testing.T) {
	r := newTestRoom(t)
	_, rerr := r.Join("sess-a", "Alice", newFakeSocket("sess-a"))
	require.Nil(t, rerr)
	_, rerr = r.Join("sess-b", "Bob", newFakeSocket("sess-b"))
	require.Nil(t, rerr)

	_, rerr = r.Start("sess-b")
	require.NotNil(t, rerr)
	assert.Equal(t, ErrNotHost, rerr.Code)
}

func TestRoomHitRejectsWrongSeatPlayerPair(t *testing.T) {
	r := newTestRoom(t)
	_, rerr := r.Join("sess-a", "Alice", newFakeSocket("sess-a"))
	require.Nil(t, rerr)
	snap, rerr := r.Start("sess-a")
	require.Nil(t, rerr)
	otherPlayerID := "not-a-real-player"
	for _, p := range snap.Game.Players {
		if p.ID != snap.Game.CurrentPlayerID {
			otherPlayerID = p.ID
		}
	}

	_, rerr = r.Hit("sess-a", otherPlayerID)
	require.NotNil(t, rerr)
	assert.Equal(t, ErrNotInRoom, rerr.Code)
}

func TestRoomHitBeforeStartIsRejected(t *testing.T) {
	r := newTestRoom(t)
	_, rerr := r.Join("sess-a", "Alice", newFakeSocket("sess-a"))
	require.Nil(t, rerr)

	_, rerr = r.Hit("sess-a", "whoever")
	require.NotNil(t, rerr)
	assert.Equal(t, ErrRoomFull, rerr.Code)
}

func TestRoomLeaveEmptiesAndCloses(t *testing.T) {
	r := newTestRoom(t)
	_, rerr := r.Join("sess-a", "Alice", newFakeSocket("sess-a"))
	require.Nil(t, rerr)

	_, rerr = r.Leave("sess-a")
	require.Nil(t, rerr)
	assert.Eventually(t, r.IsClosed, time.Second, time.Millisecond)
}

func TestRoomLeaveMigratesHost(t *testing.T) {
	r := newTestRoom(t)
	_, rerr := r.Join("sess-a", "Alice", newFakeSocket("sess-a"))
	require.Nil(t, rerr)
	_, rerr = r.Join("sess-b", "Bob", newFakeSocket("sess-b"))
	require.Nil(t, rerr)

	snap, rerr := r.Leave("sess-a")
	require.Nil(t, rerr)
	assert.Equal(t, "sess-b", snap.HostSessionID)
}

func TestRoomDisconnectThenRestoreRebindsSocket(t *testing.T) {
	r := newTestRoom(t)
	sockA := newFakeSocket("sess-a")
	_, rerr := r.Join("sess-a", "Alice", sockA)
	require.Nil(t, rerr)

	r.Disconnect("sess-a")
	assert.Equal(t, 0, r.ConnectedCount())

	sockA2 := newFakeSocket("sess-a")
	snap, rerr := r.Restore("sess-a", sockA2)
	require.Nil(t, rerr)
	assert.Equal(t, 1, r.ConnectedCount())
	assert.NotNil(t, snap)
	assert.NotNil(t, sockA2.last())
}

func TestRoomRestoreUnknownSessionFails(t *testing.T) {
	r := newTestRoom(t)
	_, rerr := r.Join("sess-a", "Alice", newFakeSocket("sess-a"))
	require.Nil(t, rerr)

	_, rerr = r.Restore("sess-never-joined", newFakeSocket("sess-never-joined"))
	require.NotNil(t, rerr)
	assert.Equal(t, ErrSessionRestoreFailed, rerr.Code)
}

func TestRoomCloseIsIdempotent(t *testing.T) {
	r := newTestRoom(t)
	_, rerr := r.Join("sess-a", "Alice", newFakeSocket("sess-a"))
	require.Nil(t, rerr)

	r.Close()
	assert.True(t, r.IsClosed())
	assert.NotPanics(t, r.Close)
}

// TestRoomAIDriverActsWithoutExternalInput exercises the AI driver loop: an
// added bot seat should take its turn on its own whenever play reaches it,
// with no Hit/Stay ever submitted for it from the test.
func TestRoomAIDriverActsWithoutExternalInput(t *testing.T) {
	r := newTestRoom(t)
	_, rerr := r.Join("sess-a", "Alice", newFakeSocket("sess-a"))
	require.Nil(t, rerr)
	_, rerr = r.AddAI("sess-a", sdk.DifficultyAggressive)
	require.Nil(t, rerr)

	startSnap, rerr := r.Start("sess-a")
	require.Nil(t, rerr)
	require.NotNil(t, startSnap.Game)
	startSeq := startSnap.Seq

	// Whether the bot acts immediately (its turn) or only once Alice's human
	// seat stalls the round, the room's sequence number must not stay frozen
	// forever: either the bot's own turn advances it, or our one Stay for
	// Alice hands the turn to the bot and its driver takes it from there.
	if startSnap.Game.CurrentPlayerID == startSnap.Game.Players[0].ID && !isAISeat(startSnap, startSnap.Game.CurrentPlayerID) {
		humanID := startSnap.Game.CurrentPlayerID
		_, rerr = r.Stay("sess-a", humanID)
		require.Nil(t, rerr)
	}

	assert.Eventually(t, func() bool {
		return r.Snapshot().Seq > startSeq
	}, time.Second, 5*time.Millisecond)
}

func isAISeat(snap *Snapshot, playerID string) bool {
	for _, s := range snap.Seats {
		if s.PlayerID == playerID {
			return s.IsAI
		}
	}
	return false
}
