// Package logger adapts zap to the ports.Logger contract.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger routes application logs through a zap core.
type ZapLogger struct {
	l *zap.Logger
}

// New builds a production zap logger; verbose lowers the level to debug.
func New(verbose bool) *ZapLogger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return &ZapLogger{l: zap.NewNop()}
	}
	return &ZapLogger{l: l}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *ZapLogger {
	return &ZapLogger{l: zap.NewNop()}
}

func (z *ZapLogger) Debug(msg string, fields map[string]interface{}) {
	z.l.Debug(msg, toZap(fields)...)
}

func (z *ZapLogger) Info(msg string, fields map[string]interface{}) {
	z.l.Info(msg, toZap(fields)...)
}

func (z *ZapLogger) Warn(msg string, fields map[string]interface{}) {
	z.l.Warn(msg, toZap(fields)...)
}

func (z *ZapLogger) Error(msg string, err error, fields map[string]interface{}) {
	z.l.Error(msg, append(toZap(fields), zap.Error(err))...)
}

// Sync flushes buffered entries; call on shutdown.
func (z *ZapLogger) Sync() {
	_ = z.l.Sync()
}

func toZap(fields map[string]interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}
