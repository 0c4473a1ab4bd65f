package dsr

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/abis"
	"github.com/karpatkey/defi-repertoire/chain"
	"github.com/karpatkey/defi-repertoire/chain/chaintest"
)

// --- Mock Infrastructure ---

const avatarHex = "0x849D52316331967b6fF1198e5E32A0eB168D039d"

var (
	avatar = common.HexToAddress(avatarHex)
	proxy  = common.HexToAddress("0xD758500ddEc05172aaA035911387C8E0e789CF6a")
)

func newFixture(t *testing.T) (*repertoire.Registry, *chaintest.Client, *repertoire.TxContext) {
	t.Helper()
	reg := repertoire.NewRegistry()
	require.NoError(t, Register(reg))
	client := chaintest.NewClient(chain.Ethereum.ChainID)
	tc, err := repertoire.NewTxContext(context.Background(), reg, client, avatarHex)
	require.NoError(t, err)
	return reg, client, tc
}

// --- Test Suite ---

func TestWithdrawWithProxy(t *testing.T) {
	ctx := context.Background()
	amount := big.NewInt(5_000_000)

	t.Run("ApprovesProxyThenExecutesExit", func(t *testing.T) {
		reg, client, tc := newFixture(t)
		client.Handle(ProxyRegistry, abis.ProxyRegistry, "proxies", func(args []any) ([]any, error) {
			require.Equal(t, avatar, args[0])
			return []any{proxy}, nil
		})

		txs, err := reg.Compose(ctx, tc, IDWithdrawWithProxy, map[string]any{"amount": amount.String()})
		require.NoError(t, err)
		require.Len(t, txs, 2)

		approve, err := repertoire.Encode(DAI, abis.ERC20, "approve", proxy, amount)
		require.NoError(t, err)
		assert.Equal(t, approve, txs[0])

		assert.Equal(t, proxy, txs[1].To)
		vals, err := abis.DSProxy.Methods["execute"].Inputs.Unpack(txs[1].Data[4:])
		require.NoError(t, err)
		assert.Equal(t, DsrProxyActions, vals[0])
		action, err := abis.DsrProxyActions.Pack("exit", DaiJoin, Pot, amount)
		require.NoError(t, err)
		assert.Equal(t, action, vals[1])
	})

	t.Run("NoProxyIsDomainError", func(t *testing.T) {
		reg, client, tc := newFixture(t)
		client.Return(ProxyRegistry, abis.ProxyRegistry, "proxies", common.Address{})

		_, err := reg.Compose(ctx, tc, IDWithdrawWithProxy, map[string]any{"amount": amount.String()})
		var de *repertoire.DomainError
		require.ErrorAs(t, err, &de)
		assert.True(t, errors.Is(err, repertoire.ErrNoDSProxy))
	})

	t.Run("RegistryFailureIsUpstream", func(t *testing.T) {
		reg, client, tc := newFixture(t)
		client.Handle(ProxyRegistry, abis.ProxyRegistry, "proxies", func(args []any) ([]any, error) {
			return nil, errors.New("connection reset")
		})

		_, err := reg.Compose(ctx, tc, IDWithdrawWithProxy, map[string]any{"amount": amount.String()})
		var ue *repertoire.UpstreamError
		assert.ErrorAs(t, err, &ue)
	})
}

func TestWithdrawWithoutProxy(t *testing.T) {
	reg, client, tc := newFixture(t)
	amount := big.NewInt(42)

	txs, err := reg.Compose(context.Background(), tc, IDWithdrawWithoutProxy, map[string]any{"amount": 42})
	require.NoError(t, err)
	require.Len(t, txs, 2)

	approve, err := repertoire.Encode(DAI, abis.ERC20, "approve", DsrManager, amount)
	require.NoError(t, err)
	exit, err := repertoire.Encode(DsrManager, abis.DsrManager, "exit", avatar, amount)
	require.NoError(t, err)
	assert.Equal(t, []repertoire.Transactable{approve, exit}, txs)
	assert.Zero(t, client.CallCount(ProxyRegistry, abis.ProxyRegistry, "proxies"))
}
