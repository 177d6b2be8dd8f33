// Package collaborator defines the one external interface a Room talks to
// once a game ends: recording the match result with an outside stats
// service. The core never depends on that service being reachable.
package collaborator

import (
	"context"
	"time"

	"flip7server/backend/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// MatchResult is the payload handed to RecordMatch when a game reaches GameEnd.
type MatchResult struct {
	RoomCode    string
	WinnerID    string
	TargetScore int
	Rounds      int
	PlayerIDs   []string
	FinalScores map[string]int
	EndedAt     time.Time
}

// Recorder is the external collaborator interface. The core depends only on
// this, never on a concrete stats-store client.
type Recorder interface {
	RecordMatch(ctx context.Context, result MatchResult) error
}

// NoopRecorder logs the match result and returns nil. It is the default
// Recorder until an external store is wired in.
type NoopRecorder struct {
	Logger *zap.Logger
}

func (n NoopRecorder) RecordMatch(_ context.Context, result MatchResult) error {
	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("match recorded",
		zap.String("room_code", result.RoomCode),
		zap.String("winner_id", result.WinnerID),
		zap.Int("rounds", result.Rounds),
	)
	return nil
}

// CircuitRecorder wraps a Recorder in a circuit breaker so a stalled or
// failing external store cannot back up match completion inside a Room.
type CircuitRecorder struct {
	inner Recorder
	cb    *gobreaker.CircuitBreaker
}

// NewCircuitRecorder builds a CircuitRecorder around inner. Settings mirror
// a conservative outbound-dependency breaker: trip after enough consecutive
// failures inside a one-minute window, stay open for 30s before probing again.
func NewCircuitRecorder(inner Recorder) *CircuitRecorder {
	st := gobreaker.Settings{
		Name:        "record-match",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(_ string, _ gobreaker.State, to gobreaker.State) {
			var v float64
			switch to {
			case gobreaker.StateClosed:
				v = 0
			case gobreaker.StateOpen:
				v = 1
			case gobreaker.StateHalfOpen:
				v = 2
			}
			metrics.CircuitBreakerState.Set(v)
		},
	}
	return &CircuitRecorder{inner: inner, cb: gobreaker.NewCircuitBreaker(st)}
}

// RecordMatch calls through the breaker. A tripped breaker returns
// gobreaker.ErrOpenState immediately rather than blocking the Room.
func (c *CircuitRecorder) RecordMatch(ctx context.Context, result MatchResult) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.inner.RecordMatch(ctx, result)
	})
	return err
}
