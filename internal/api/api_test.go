package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/abis"
	"github.com/karpatkey/defi-repertoire/chain"
	"github.com/karpatkey/defi-repertoire/chain/chaintest"
	"github.com/karpatkey/defi-repertoire/datasource"
	"github.com/karpatkey/defi-repertoire/lido"
	"github.com/karpatkey/defi-repertoire/strategies"
)

// --- Mock Infrastructure ---

const (
	avatarHex   = "0x8353157092ED8Be69a9DF8F95af097bbF33Cb2aF"
	rolesModHex = "0x1cFB0CD7B1111bf2054615C7C491a15C4A3303cc"
	// 1500 stETH, beyond a single withdrawal request.
	bigAmount = "1500000000000000000000"
)

var testPool = datasource.Pool{
	Address: common.HexToAddress("0xf01b0684C98CD7aDA480BFDF6e43876422fa1Fc1"),
	Symbol:  "B-50COW-50GNO",
	Tokens: []datasource.Token{
		{Address: common.HexToAddress("0x177127622c4A00F3d409B75571e12cB3c8973d3c"), Symbol: "COW"},
		{Address: common.HexToAddress("0x9C58BAcC331c9aa871AFD802DB6379a98e80CEdb"), Symbol: "GNO"},
	},
}

type fakePools struct{}

func (fakePools) Pools(ctx context.Context, bc chain.Blockchain) ([]datasource.Pool, error) {
	return []datasource.Pool{testPool}, nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

type txJSON struct {
	ContractAddress string `json:"contract_address"`
	Data            string `json:"data"`
	Operation       int    `json:"operation"`
	Value           json.Number
}

func newTestServer(t *testing.T) (http.Handler, *prometheus.Registry) {
	t.Helper()
	registry, err := strategies.NewRegistry(strategies.Deps{Pools: fakePools{}})
	require.NoError(t, err)

	mainnet := chaintest.NewClient(chain.Ethereum.ChainID)
	mainnet.Return(lido.WstETH, abis.WstETH, "getWstETHByStETH", lido.MaxStETHRequest)

	promReg := prometheus.NewRegistry()
	system, err := repertoire.NewSystem(&repertoire.Config{
		SystemName:    "api_test",
		PrometheusReg: promReg,
		Registry:      registry,
		GetReader: func(ctx context.Context, bc chain.Blockchain) (chain.Reader, error) {
			if bc == chain.Ethereum {
				return mainnet, nil
			}
			return nil, errors.New("dial: connection refused")
		},
		Logger: repertoire.NopLogger{},
	})
	require.NoError(t, err)

	return NewEngine(Config{System: system, Gatherer: promReg, Env: "test"}), promReg
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decodeTxns(t *testing.T, env envelope) []txJSON {
	t.Helper()
	var data struct {
		Txns []txJSON `json:"txns"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Txns
}

func decodeTxn(t *testing.T, env envelope) txJSON {
	t.Helper()
	var data struct {
		Txn txJSON `json:"txn"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Txn
}

func unstakeCall(amount any) map[string]any {
	return map[string]any{"id": lido.IDUnstakeStETH, "arguments": map[string]any{"amount": amount}}
}

// --- Test Suite ---

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)

	for _, path := range []string{"/", "/status", "/healthz"} {
		w, _ := do(t, h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get(requestIDHeader), path)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/strategies?blockchain=solana", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
	assert.Equal(t, "abc-123", env.Meta["request_id"])
}

func TestListStrategies(t *testing.T) {
	h, _ := newTestServer(t)

	t.Run("Gnosis", func(t *testing.T) {
		w, env := do(t, h, http.MethodGet, "/strategies?blockchain=gnosis", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var data struct {
			Strategies []repertoire.StrategyView `json:"strategies"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data.Strategies, 13)

		first := data.Strategies[0]
		assert.Equal(t, "balancer__withdraw_all_assets_proportional", first.ID)
		require.Len(t, first.Options["bpt_address"], 1)
		assert.Equal(t, testPool.Address.Hex(), first.Options["bpt_address"][0].Address)
	})

	t.Run("DefaultsToEthereum", func(t *testing.T) {
		w, env := do(t, h, http.MethodGet, "/strategies", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ethereum", env.Meta["blockchain"])
	})

	t.Run("UnknownChain", func(t *testing.T) {
		w, env := do(t, h, http.MethodGet, "/strategies?blockchain=solana", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "validation", env.Meta["kind"])
	})
}

func TestStrategyOptions(t *testing.T) {
	h, _ := newTestServer(t)

	t.Run("Base", func(t *testing.T) {
		w, env := do(t, h, http.MethodGet, "/strategies/balancer__withdraw_single/options?blockchain=gnosis", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var data struct {
			Options repertoire.Options `json:"options"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Len(t, data.Options["bpt_address"], 1)
	})

	t.Run("Refined", func(t *testing.T) {
		body := map[string]any{"blockchain": "gnosis", "arguments": map[string]any{"bpt_address": testPool.Address.Hex()}}
		w, env := do(t, h, http.MethodPost, "/strategies/balancer__withdraw_single/options", body)
		require.Equal(t, http.StatusOK, w.Code)
		var data struct {
			Options repertoire.Options `json:"options"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data.Options["token_out_address"], 2)
		assert.Equal(t, "COW", data.Options["token_out_address"][0].Label)
	})

	t.Run("RefinedRejectsUnknownFields", func(t *testing.T) {
		body := map[string]any{"blockchain": "gnosis", "arguments": map[string]any{"pool": "x"}}
		w, _ := do(t, h, http.MethodPost, "/strategies/balancer__withdraw_single/options", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Unsupported", func(t *testing.T) {
		w, env := do(t, h, http.MethodGet, "/strategies/lido__unstake_stETH/options", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "unsupported", env.Meta["kind"])
	})
}

func TestStrategiesToTransactions(t *testing.T) {
	h, _ := newTestServer(t)

	t.Run("Ordered", func(t *testing.T) {
		body := `{"blockchain":"ethereum","avatar_safe_address":"` + avatarHex + `","strategy_calls":[{"id":"lido__unstake_stETH","arguments":{"amount":` + bigAmount + `}}]}`
		w, env := do(t, h, http.MethodPost, "/strategies-to-transactions", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		txns := decodeTxns(t, env)
		require.Len(t, txns, 2)
		assert.Equal(t, lido.StETH.Hex(), txns[0].ContractAddress)
		assert.Equal(t, lido.WithdrawalQueue.Hex(), txns[1].ContractAddress)
		assert.Equal(t, 0, txns[1].Operation)
	})

	t.Run("Multisend", func(t *testing.T) {
		body := map[string]any{
			"blockchain":          "ethereum",
			"avatar_safe_address": avatarHex,
			"strategy_calls":      []any{unstakeCall(bigAmount)},
			"multisend":           true,
		}
		w, env := do(t, h, http.MethodPost, "/strategies-to-transactions", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		txns := decodeTxns(t, env)
		require.Len(t, txns, 1)
		assert.Equal(t, chain.MustContracts(chain.Ethereum).MultiSendCall.Hex(), txns[0].ContractAddress)
		assert.Equal(t, 1, txns[0].Operation)
	})

	t.Run("InvalidArguments", func(t *testing.T) {
		body := map[string]any{
			"blockchain":          "ethereum",
			"avatar_safe_address": avatarHex,
			"strategy_calls":      []any{map[string]any{"id": lido.IDUnstakeStETH, "arguments": map[string]any{"amount": "-1", "extra": true}}},
		}
		w, env := do(t, h, http.MethodPost, "/strategies-to-transactions", body)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		fields, ok := env.Meta["fields"].([]any)
		require.True(t, ok)
		assert.Len(t, fields, 2)
	})

	t.Run("UnknownStrategy", func(t *testing.T) {
		body := map[string]any{
			"blockchain":          "ethereum",
			"avatar_safe_address": avatarHex,
			"strategy_calls":      []any{map[string]any{"id": "lido__stake", "arguments": map[string]any{}}},
		}
		w, _ := do(t, h, http.MethodPost, "/strategies-to-transactions", body)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("BadAvatar", func(t *testing.T) {
		body := map[string]any{
			"blockchain":          "ethereum",
			"avatar_safe_address": "0x1234",
			"strategy_calls":      []any{unstakeCall(bigAmount)},
		}
		w, _ := do(t, h, http.MethodPost, "/strategies-to-transactions", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("UnreachableChain", func(t *testing.T) {
		body := map[string]any{
			"blockchain":          "gnosis",
			"avatar_safe_address": avatarHex,
			"strategy_calls":      []any{},
		}
		w, env := do(t, h, http.MethodPost, "/strategies-to-transactions", body)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "upstream", env.Meta["kind"])
	})

	t.Run("MalformedBody", func(t *testing.T) {
		w, _ := do(t, h, http.MethodPost, "/strategies-to-transactions", `{"strategy_calls":`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestStrategiesToExecWithRole(t *testing.T) {
	h, _ := newTestServer(t)

	tests := []struct {
		name   string
		role   any
		method string
	}{
		{"NumericRole", 4, "execTransactionWithRole"},
		{"RoleKey", "DISASSEMBLER", "execTransactionWithRole"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]any{
				"blockchain":          "ethereum",
				"avatar_safe_address": avatarHex,
				"roles_mod_address":   rolesModHex,
				"role":                tt.role,
				"strategy_calls":      []any{unstakeCall(bigAmount)},
			}
			w, env := do(t, h, http.MethodPost, "/strategies-to-exec-with-role", body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			txn := decodeTxn(t, env)
			assert.Equal(t, common.HexToAddress(rolesModHex).Hex(), txn.ContractAddress)
			assert.Equal(t, 0, txn.Operation)
		})
	}

	t.Run("RoleSelectsModifierVersion", func(t *testing.T) {
		for role, contract := range map[any][]byte{
			4:              abis.RolesV1.Methods["execTransactionWithRole"].ID,
			"DISASSEMBLER": abis.RolesV2.Methods["execTransactionWithRole"].ID,
		} {
			body := map[string]any{
				"blockchain":          "ethereum",
				"avatar_safe_address": avatarHex,
				"roles_mod_address":   rolesModHex,
				"role":                role,
				"strategy_calls":      []any{unstakeCall(bigAmount)},
			}
			_, env := do(t, h, http.MethodPost, "/strategies-to-exec-with-role", body)
			txn := decodeTxn(t, env)
			assert.True(t, strings.HasPrefix(txn.Data, "0x"+common.Bytes2Hex(contract)))
		}
	})

	t.Run("MissingRole", func(t *testing.T) {
		body := map[string]any{
			"blockchain":          "ethereum",
			"avatar_safe_address": avatarHex,
			"roles_mod_address":   rolesModHex,
			"strategy_calls":      []any{unstakeCall(bigAmount)},
		}
		w, _ := do(t, h, http.MethodPost, "/strategies-to-exec-with-role", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestMultisendTransactions(t *testing.T) {
	h, _ := newTestServer(t)

	t.Run("Batches", func(t *testing.T) {
		body := map[string]any{
			"blockchain": "gnosis",
			"txns": []any{
				map[string]any{"contract_address": avatarHex, "data": "0x01", "operation": 0, "value": 0},
				map[string]any{"contract_address": rolesModHex, "data": "0x02", "operation": 0, "value": 5},
			},
		}
		w, env := do(t, h, http.MethodPost, "/multisend-transactions", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		txn := decodeTxn(t, env)
		assert.Equal(t, chain.MustContracts(chain.Gnosis).MultiSendCall.Hex(), txn.ContractAddress)
		assert.Equal(t, 1, txn.Operation)
	})

	t.Run("Empty", func(t *testing.T) {
		w, _ := do(t, h, http.MethodPost, "/multisend-transactions", map[string]any{"blockchain": "gnosis", "txns": []any{}})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("NegativeValue", func(t *testing.T) {
		body := map[string]any{
			"blockchain": "gnosis",
			"txns": []any{
				map[string]any{"contract_address": avatarHex, "data": "0x01", "operation": 0, "value": -1},
				map[string]any{"contract_address": rolesModHex, "data": "0x02", "operation": 0, "value": 0},
			},
		}
		w, _ := do(t, h, http.MethodPost, "/multisend-transactions", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestSingleStrategyEndpoint(t *testing.T) {
	h, _ := newTestServer(t)
	body := map[string]any{
		"blockchain":          "ethereum",
		"avatar_safe_address": avatarHex,
		"arguments":           map[string]any{"amount": bigAmount},
	}

	w, env := do(t, h, http.MethodPost, "/txns/disassembly/lido/unwrap_and_unstake_wstETH", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeTxns(t, env), 2)

	w, _ = do(t, h, http.MethodPost, "/txns/swap/lido/unwrap_and_unstake_wstETH", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestServer(t)
	body := map[string]any{
		"blockchain":          "ethereum",
		"avatar_safe_address": avatarHex,
		"strategy_calls":      []any{unstakeCall(bigAmount)},
	}
	w, _ := do(t, h, http.MethodPost, "/strategies-to-transactions", body)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `api_test_repertoire_strategy_executions_total{outcome="ok",strategy="lido__unstake_stETH"} 1`)
}
