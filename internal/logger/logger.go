// Package logger builds the process zap logger and adapts it to the
// key-value Logger interfaces of the library packages.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/karpatkey/defi-repertoire/internal/config"
)

// ParseLevel maps a configured level name to a zap level. Unknown or empty
// names fall back to info.
func ParseLevel(name string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// New builds the process logger. Entries go to stderr so that commands
// printing JSON results keep stdout clean.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "ts"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Encoding == "console" {
		encoder = zap.NewDevelopmentEncoderConfig()
	}

	var sampling *zap.SamplingConfig
	if cfg.Sampling {
		sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	}

	return zap.Config{
		Level:             zap.NewAtomicLevelAt(ParseLevel(cfg.Level)),
		Development:       cfg.Development,
		Encoding:          cfg.Encoding,
		DisableCaller:     cfg.DisableCaller,
		DisableStacktrace: cfg.DisableStacktrace,
		Sampling:          sampling,
		EncoderConfig:     encoder,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}.Build()
}

// KV adapts a zap logger to Debug/Info/Warn/Error(msg, keysAndValues...).
// It satisfies repertoire.Logger and cache.Logger.
type KV struct {
	s *zap.SugaredLogger
}

func NewKV(l *zap.Logger) *KV {
	// Skip the adapter frame so callers are reported.
	return &KV{s: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (k *KV) Debug(msg string, args ...any) { k.s.Debugw(msg, args...) }
func (k *KV) Info(msg string, args ...any)  { k.s.Infow(msg, args...) }
func (k *KV) Warn(msg string, args ...any)  { k.s.Warnw(msg, args...) }
func (k *KV) Error(msg string, args ...any) { k.s.Errorw(msg, args...) }

// With returns a child logger carrying args on every entry.
func (k *KV) With(args ...any) *KV {
	return &KV{s: k.s.With(args...)}
}
