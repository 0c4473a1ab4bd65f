package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karpatkey/defi-repertoire/chain"
)

func clearRPCEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"RPC_MAINNET_URL", "RPC_GNOSIS_URL", "REPERTOIRE_RPC_ETHEREUM", "REPERTOIRE_RPC_GNOSIS", "THEGRAPH_API_KEY"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearRPCEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, 5*time.Minute, cfg.Cache.Fresh)
	assert.Equal(t, time.Hour, cfg.Cache.Stale)
	assert.Equal(t, 4, cfg.Swap.MaxConcurrentQuotes)
	assert.Equal(t, "info", cfg.Log.Level)
	_, ok := cfg.RPCURL(chain.Ethereum)
	assert.False(t, ok)
}

func TestLoadEnvironment(t *testing.T) {
	clearRPCEnv(t)
	t.Setenv("REPERTOIRE_SERVER_HTTP_ADDR", ":9090")
	t.Setenv("REPERTOIRE_SWAP_MAX_CONCURRENT_QUOTES", "2")
	t.Setenv("RPC_MAINNET_URL", "https://mainnet.example")
	t.Setenv("THEGRAPH_API_KEY", "graph-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.Equal(t, 2, cfg.Swap.MaxConcurrentQuotes)
	assert.Equal(t, "graph-key", cfg.DataSource.TheGraphAPIKey)
	url, ok := cfg.RPCURL(chain.Ethereum)
	assert.True(t, ok)
	assert.Equal(t, "https://mainnet.example", url)
}

func TestLoadFile(t *testing.T) {
	clearRPCEnv(t)

	t.Run("ValuesAreRead", func(t *testing.T) {
		path := writeConfig(t, `
rpc:
  gnosis: https://gnosis.example
cache:
  fresh: 1m
  stale: 10m
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, time.Minute, cfg.Cache.Fresh)
		assert.Equal(t, 10*time.Minute, cfg.Cache.Stale)
		url, ok := cfg.RPCURL(chain.Gnosis)
		assert.True(t, ok)
		assert.Equal(t, "https://gnosis.example", url)
	})

	t.Run("EnvironmentWinsOverFile", func(t *testing.T) {
		t.Setenv("REPERTOIRE_RPC_GNOSIS", "https://env.example")
		path := writeConfig(t, "rpc:\n  gnosis: https://file.example\n")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://env.example", cfg.RPC["gnosis"])
	})

	t.Run("MissingFileFallsBackToDefaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	})
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearRPCEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"StaleBeforeFresh", "cache:\n  fresh: 1h\n  stale: 1m\n"},
		{"UnknownChain", "rpc:\n  solana: https://solana.example\n"},
		{"NoQuoteWorkers", "swap:\n  max_concurrent_quotes: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
