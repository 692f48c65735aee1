// Package logging wraps zap with lumberjack-backed rotation, in the shape
// the rest of the pack's daemons configure their loggers, plus a
// session-scoped WithSession() that attaches a session's correlation id
// and reply tag as structured fields.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mxresolve/mxcore/internal/config"
)

// Logger wraps a *zap.Logger. The orchestrator and cmd entrypoint log
// through this type rather than constructing zap loggers directly.
type Logger struct {
	*zap.Logger
}

func toZapLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// New builds a Logger from cfg. Stdout takes priority over Filename when
// both are set.
func New(cfg config.LogConfig) (Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	var writer zapcore.WriteSyncer
	switch {
	case cfg.Stdout:
		writer = zapcore.AddSync(os.Stdout)
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Filename), 0o755); err != nil {
			return Logger{}, err
		}
		writer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSizeMB,
			MaxAge:     cfg.MaxAgeDays,
			MaxBackups: cfg.MaxBackups,
			LocalTime:  true,
		})
	}

	core := zapcore.NewCore(encoder, writer, toZapLevel(cfg.Level))
	return Logger{zap.New(core, zap.AddCaller())}, nil
}

// WithSession returns a child logger carrying a session's correlation id
// and reply tag as structured fields, so every log line emitted over a
// session's lifetime can be correlated without repeating these at each
// call site.
func (l Logger) WithSession(sessionID string, replyTag uint64) Logger {
	return Logger{l.Logger.With(
		zap.String("session", sessionID),
		zap.Uint64("reply_tag", replyTag),
	)}
}
