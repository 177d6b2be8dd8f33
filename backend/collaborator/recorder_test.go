package collaborator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderRecordMatchNeverFails(t *testing.T) {
	var r NoopRecorder
	err := r.RecordMatch(context.Background(), MatchResult{RoomCode: "ABC123", WinnerID: "p1"})
	assert.NoError(t, err)
}

type failingRecorder struct {
	calls int
	err   error
}

func (f *failingRecorder) RecordMatch(context.Context, MatchResult) error {
	f.calls++
	return f.err
}

func TestCircuitRecorderTripsAfterConsecutiveFailures(t *testing.T) {
	inner := &failingRecorder{err: errors.New("downstream unavailable")}
	cr := NewCircuitRecorder(inner)

	var lastErr error
	for i := 0; i < 3; i++ {
		lastErr = cr.RecordMatch(context.Background(), MatchResult{RoomCode: "ABC123"})
	}
	require.Error(t, lastErr)
	assert.Equal(t, 3, inner.calls)

	// The breaker should now be open and reject without calling inner again.
	err := cr.RecordMatch(context.Background(), MatchResult{RoomCode: "ABC123"})
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestCircuitRecorderPassesThroughOnSuccess(t *testing.T) {
	inner := &failingRecorder{err: nil}
	cr := NewCircuitRecorder(inner)

	err := cr.RecordMatch(context.Background(), MatchResult{RoomCode: "ABC123"})
	assert.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}
