// Package matchmaking implements the quick-match queue of spec.md §4.6: one
// FIFO bucket per requested room size, flushed into a fresh Room as soon as
// a bucket fills.
package matchmaking

import (
	"sync"

	"go.uber.org/zap"

	"flip7server/backend/metrics"
	"flip7server/backend/room"
)

const (
	minBucketSize = 2
	maxBucketSize = 6
)

// Waiter is one entry in a matchmaking bucket.
type Waiter struct {
	SessionID string
	Name      string
	Socket    room.Socket
}

// Queue holds one FIFO bucket per maxPlayers value (2..6).
type Queue struct {
	registry *room.Registry
	logger   *zap.Logger

	mu      sync.Mutex
	buckets map[int][]Waiter
}

// New constructs an empty Queue bound to the given Registry.
func New(registry *room.Registry, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		registry: registry,
		logger:   logger,
		buckets:  make(map[int][]Waiter),
	}
}

// Enqueue adds a waiter to the bucket for maxPlayers. If the bucket now has
// enough waiters, it pops the oldest maxPlayers of them, creates a fresh
// Room, seats them in FIFO order (first = host), and returns (room, true);
// each Join broadcasts room:joined to every waiter seated so far. Otherwise
// it returns (nil, false) and the caller stays queued.
func (q *Queue) Enqueue(maxPlayers int, w Waiter) (*room.Room, bool) {
	if maxPlayers < minBucketSize {
		maxPlayers = minBucketSize
	}
	if maxPlayers > maxBucketSize {
		maxPlayers = maxBucketSize
	}

	q.mu.Lock()
	q.buckets[maxPlayers] = append(q.buckets[maxPlayers], w)
	var popped []Waiter
	if len(q.buckets[maxPlayers]) >= maxPlayers {
		popped = q.buckets[maxPlayers][:maxPlayers]
		q.buckets[maxPlayers] = q.buckets[maxPlayers][maxPlayers:]
	}
	q.updateGaugeLocked()
	q.mu.Unlock()

	if popped == nil {
		return nil, false
	}
	return q.flush(popped), true
}

// Cancel removes a waiter from every bucket it might be sitting in. No-op if
// the session isn't queued (it may already have been matched).
func (q *Queue) Cancel(sessionID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for size, waiters := range q.buckets {
		for i, w := range waiters {
			if w.SessionID == sessionID {
				q.buckets[size] = append(waiters[:i], waiters[i+1:]...)
				break
			}
		}
	}
	q.updateGaugeLocked()
}

func (q *Queue) flush(waiters []Waiter) *room.Room {
	r := q.registry.NewRoom()
	for _, w := range waiters {
		_, rerr := r.Join(w.SessionID, w.Name, w.Socket)
		if rerr != nil {
			q.logger.Warn("matchmaking seat failed",
				zap.String("roomCode", r.Code),
				zap.String("sessionId", w.SessionID),
				zap.String("error", rerr.Error()))
			continue
		}
		q.registry.BindSession(w.SessionID, r.Code)
	}
	return r
}

func (q *Queue) updateGaugeLocked() {
	for size := minBucketSize; size <= maxBucketSize; size++ {
		metrics.MatchmakingWaiting.WithLabelValues(bucketLabel(size)).Set(float64(len(q.buckets[size])))
	}
}

func bucketLabel(size int) string {
	digits := [...]string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}
	if size < 10 {
		return digits[size]
	}
	return "10+"
}
