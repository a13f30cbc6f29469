package vapp

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/veldt-go/veldt/vlog"
)

// NewLogger creates a zap logger configured from the environment. Uses JSON
// encoding suitable for log aggregation. VELDT_LOG_LEVEL controls the level
// (debug, info, warn, error).
func NewLogger(env Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.logLevel())
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// NewLogFactory exposes the application logger as the router's channel
// factory, so framework and application entries share one output.
func NewLogFactory(l *zap.Logger) *vlog.Factory {
	return vlog.NewFactory(vlog.WithZap(l))
}
