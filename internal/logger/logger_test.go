package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/cache"
	"github.com/karpatkey/defi-repertoire/internal/config"
)

var (
	_ repertoire.Logger = (*KV)(nil)
	_ cache.Logger      = (*KV)(nil)
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.LogConfig
		level zapcore.Level
	}{
		{"Debug", config.LogConfig{Level: "DEBUG", Encoding: "json"}, zapcore.DebugLevel},
		{"Console", config.LogConfig{Level: "warn", Encoding: "console", Sampling: true}, zapcore.WarnLevel},
		{"UnknownLevelIsInfo", config.LogConfig{Level: "chatty", Encoding: "json"}, zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.level))
			assert.False(t, l.Core().Enabled(tt.level-1))
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{" WARN ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestKVFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	kv := NewKV(zap.New(core)).With("system", "test")

	kv.Debug("composed", "strategy", "lido__unstake_stETH", "transactables", 3)
	kv.Warn("slow")
	kv.Error("failed", "kind", "upstream")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, map[string]any{
		"system":        "test",
		"strategy":      "lido__unstake_stETH",
		"transactables": int64(3),
	}, entries[0].ContextMap())
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "upstream", entries[2].ContextMap()["kind"])
}
