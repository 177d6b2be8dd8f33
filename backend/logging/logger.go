// Package logging wraps zap with a Flip 7 domain field (the room code) so
// every Room emits structured events instead of ad-hoc Printf lines.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// Initialize sets up the process-wide logger. development selects a
// human-readable console encoder; production selects JSON with ISO8601
// timestamps.
func Initialize(development bool) error {
	var err error
	once.Do(func() {
		var cfg zap.Config
		if development {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.TimeKey = "timestamp"
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		}
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		logger, err = cfg.Build()
	})
	return err
}

// L returns the global logger, falling back to a development logger if
// Initialize was never called (unit tests commonly skip it).
func L() *zap.Logger {
	if logger == nil {
		l, _ := zap.NewDevelopment()
		return l
	}
	return logger
}

// ForRoom returns a logger scoped to a single room, used at every effect
// and transition so log lines can be filtered by room code without string
// parsing.
func ForRoom(roomCode string) *zap.Logger {
	return L().With(zap.String("room_code", roomCode))
}
