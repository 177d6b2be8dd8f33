// Package metrics declares the Prometheus series exported at /metrics.
// Naming follows namespace_subsystem_name, mirroring the convention used for
// the teacher pack's richest metrics package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoomsActive is the current number of non-Closed rooms held by the Registry.
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "flip7",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of rooms that are not Closed",
	})

	// ConnectionsActive is the current number of live gateway connections.
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "flip7",
		Subsystem: "gateway",
		Name:      "connections_active",
		Help:      "Current number of active WebSocket connections",
	})

	// MatchmakingWaiting is the current queue depth per requested seat count.
	MatchmakingWaiting = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "flip7",
		Subsystem: "matchmaking",
		Name:      "waiting",
		Help:      "Current number of sockets waiting in a matchmaking bucket",
	}, []string{"max_players"})

	// BroadcastQueueDepth is the number of connected sockets a room's last
	// broadcast was sent to, set on every broadcast.
	BroadcastQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "flip7",
		Subsystem: "room",
		Name:      "broadcast_queue_depth",
		Help:      "Number of connected sockets a room's last broadcast was sent to",
	}, []string{"room_code"})

	// AIDecisionSeconds tracks how long the AI driver took to reach a decision.
	AIDecisionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "flip7",
		Subsystem: "ai",
		Name:      "decision_seconds",
		Help:      "Time from an AI seat becoming current to its decision being applied",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2, 3, 5},
	})

	// AIDecisionTimeouts counts AI decisions that hit the hard timeout fallback.
	AIDecisionTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "flip7",
		Subsystem: "ai",
		Name:      "decision_timeouts_total",
		Help:      "Total AI decisions that fell back to the timeout policy",
	})

	// RateLimitExceeded counts rejected inbound gateway messages, by reason.
	RateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flip7",
		Subsystem: "gateway",
		Name:      "rate_limit_exceeded_total",
		Help:      "Total inbound messages rejected for exceeding a rate limit",
	}, []string{"scope"})

	// CircuitBreakerState mirrors the RecordMatch collaborator breaker's state:
	// 0 closed, 1 open, 2 half-open.
	CircuitBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "flip7",
		Subsystem: "collaborator",
		Name:      "record_match_circuit_state",
		Help:      "State of the RecordMatch circuit breaker (0=closed,1=open,2=half-open)",
	})
)
