package matchmaking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flip7server/backend/collaborator"
	"flip7server/backend/room"
)

type fakeSocket struct {
	sessionID string
	out       []room.Envelope
}

func newFakeSocket(sessionID string) *fakeSocket { return &fakeSocket{sessionID: sessionID} }

func (s *fakeSocket) SessionID() string { return s.sessionID }

func (s *fakeSocket) Send(env room.Envelope) { s.out = append(s.out, env) }

func newTestRegistry(t *testing.T) *room.Registry {
	t.Helper()
	cfg := room.Config{TargetScore: 200, AIThinkDelay: 0, AIHardTimeout: 0, HostGraceWindow: 0, RoomEmptyTTL: 0, RNGSeed: 1}
	reg := room.NewRegistry(cfg, &collaborator.NoopRecorder{})
	t.Cleanup(reg.Close)
	return reg
}

func TestQueueEnqueueStaysQueuedBelowCapacity(t *testing.T) {
	reg := newTestRegistry(t)
	q := New(reg, nil)

	r, matched := q.Enqueue(4, Waiter{SessionID: "s1", Name: "Alice", Socket: newFakeSocket("s1")})
	assert.False(t, matched)
	assert.Nil(t, r)
}

func TestQueueEnqueueFlushesOnceBucketFills(t *testing.T) {
	reg := newTestRegistry(t)
	q := New(reg, nil)

	r1, matched := q.Enqueue(2, Waiter{SessionID: "s1", Name: "Alice", Socket: newFakeSocket("s1")})
	require.False(t, matched)
	require.Nil(t, r1)

	r2, matched := q.Enqueue(2, Waiter{SessionID: "s2", Name: "Bob", Socket: newFakeSocket("s2")})
	require.True(t, matched)
	require.NotNil(t, r2)

	snap := r2.Snapshot()
	require.Len(t, snap.Seats, 2)
	assert.Equal(t, "s1", snap.HostSessionID)
}

func TestQueueEnqueueClampsMaxPlayers(t *testing.T) {
	reg := newTestRegistry(t)
	q := New(reg, nil)

	r1, matched := q.Enqueue(1, Waiter{SessionID: "s1", Name: "Alice", Socket: newFakeSocket("s1")})
	require.False(t, matched)
	require.Nil(t, r1)

	// maxPlayers below minBucketSize clamps to 2, so a second waiter fills it.
	r2, matched := q.Enqueue(1, Waiter{SessionID: "s2", Name: "Bob", Socket: newFakeSocket("s2")})
	require.True(t, matched)
	assert.Len(t, r2.Snapshot().Seats, 2)
}

func TestQueueCancelRemovesWaiter(t *testing.T) {
	reg := newTestRegistry(t)
	q := New(reg, nil)

	_, matched := q.Enqueue(3, Waiter{SessionID: "s1", Name: "Alice", Socket: newFakeSocket("s1")})
	require.False(t, matched)

	q.Cancel("s1")

	// With s1 cancelled, two more waiters shouldn't immediately flush a
	// 3-player bucket.
	_, matched = q.Enqueue(3, Waiter{SessionID: "s2", Name: "Bob", Socket: newFakeSocket("s2")})
	require.False(t, matched)
	r, matched := q.Enqueue(3, Waiter{SessionID: "s3", Name: "Cara", Socket: newFakeSocket("s3")})
	assert.False(t, matched)
	assert.Nil(t, r)
}

func TestQueueCancelUnknownSessionIsNoop(t *testing.T) {
	reg := newTestRegistry(t)
	q := New(reg, nil)

	assert.NotPanics(t, func() { q.Cancel("never-queued") })
}

func TestBucketLabel(t *testing.T) {
	assert.Equal(t, "2", bucketLabel(2))
	assert.Equal(t, "6", bucketLabel(6))
}
