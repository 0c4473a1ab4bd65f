package lido

import (
	"context"
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

const avatarHex = "0x8353157092ED8Be69a9DF8F95af097bbF33Cb2aF"

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func strs(xs []*big.Int) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = x.String()
	}
	return out
}

func newFixture(t *testing.T, chainID uint64) (*repertoire.Registry, *chaintest.Client, *repertoire.TxContext) {
	t.Helper()
	reg := repertoire.NewRegistry()
	require.NoError(t, Register(reg))
	client := chaintest.NewClient(chainID)
	tc, err := repertoire.NewTxContext(context.Background(), reg, client, avatarHex)
	require.NoError(t, err)
	return reg, client, tc
}

func decodeRequest(t *testing.T, method string, data []byte) ([]*big.Int, common.Address) {
	t.Helper()
	m := abis.LidoWithdrawalQueue.Methods[method]
	require.Equal(t, m.ID, data[:4])
	vals, err := m.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	return vals[0].([]*big.Int), vals[1].(common.Address)
}

// --- Test Suite ---

func TestChunk(t *testing.T) {
	tests := []struct {
		name   string
		amount *big.Int
		limit  *big.Int
		want   []string
	}{
		{"BelowLimit", big.NewInt(5), big.NewInt(10), []string{"5"}},
		{"ExactlyLimit", big.NewInt(10), big.NewInt(10), []string{"10"}},
		{"ExactMultiple", big.NewInt(30), big.NewInt(10), []string{"10", "10", "10"}},
		{"Remainder", big.NewInt(25), big.NewInt(10), []string{"10", "10", "5"}},
		{"Zero", big.NewInt(0), big.NewInt(10), []string{}},
		{"NoLimit", big.NewInt(7), nil, []string{"7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Chunk(tt.amount, tt.limit)
			assert.Equal(t, tt.want, strs(chunks))

			sum := new(big.Int)
			for _, c := range chunks {
				sum.Add(sum, c)
			}
			assert.Zero(t, sum.Cmp(tt.amount), "chunks sum to the amount")
		})
	}
}

func TestUnstakeStETH(t *testing.T) {
	reg, _, tc := newFixture(t, chain.Ethereum.ChainID)
	amount := new(big.Int).Add(eth(2500), big.NewInt(1))

	txs, err := reg.Compose(context.Background(), tc, IDUnstakeStETH, map[string]any{"amount": amount.String()})
	require.NoError(t, err)
	require.Len(t, txs, 2)

	approve, err := repertoire.Encode(StETH, abis.ERC20, "approve", WithdrawalQueue, amount)
	require.NoError(t, err)
	assert.Equal(t, approve, txs[0])

	assert.Equal(t, WithdrawalQueue, txs[1].To)
	chunks, owner := decodeRequest(t, "requestWithdrawals", txs[1].Data)
	assert.Equal(t, []string{eth(1000).String(), eth(1000).String(), new(big.Int).Add(eth(500), big.NewInt(1)).String()}, strs(chunks))
	assert.Equal(t, common.HexToAddress(avatarHex), owner)
}

func TestUnwrapAndUnstakeWstETH(t *testing.T) {
	reg, client, tc := newFixture(t, chain.Ethereum.ChainID)
	limit := eth(850)
	client.Handle(WstETH, abis.WstETH, "getWstETHByStETH", func(args []any) ([]any, error) {
		require.Zero(t, args[0].(*big.Int).Cmp(MaxStETHRequest))
		return []any{limit}, nil
	})

	txs, err := reg.Compose(context.Background(), tc, IDUnwrapAndUnstakeWstETH, map[string]any{"amount": eth(1000).String()})
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, WstETH, txs[0].To)
	chunks, _ := decodeRequest(t, "requestWithdrawalsWstETH", txs[1].Data)
	assert.Equal(t, []string{limit.String(), eth(150).String()}, strs(chunks))
}

func TestUnwrapRejectsZeroRequestLimit(t *testing.T) {
	reg, client, tc := newFixture(t, chain.Ethereum.ChainID)
	client.Handle(WstETH, abis.WstETH, "getWstETHByStETH", func(args []any) ([]any, error) {
		return []any{big.NewInt(0)}, nil
	})

	_, err := reg.Compose(context.Background(), tc, IDUnwrapAndUnstakeWstETH, map[string]any{"amount": eth(1000).String()})
	var upstream *repertoire.UpstreamError
	require.ErrorAs(t, err, &upstream)
}

func TestLidoIsEthereumOnly(t *testing.T) {
	reg, _, tc := newFixture(t, chain.Gnosis.ChainID)

	_, err := reg.Compose(context.Background(), tc, IDUnstakeStETH, map[string]any{"amount": "1"})
	var nf *repertoire.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "strategy", nf.Kind)
}

func TestZeroAmountSkipsChain(t *testing.T) {
	_, client, tc := newFixture(t, chain.Ethereum.ChainID)

	txs, err := tc.Invoke(context.Background(), IDUnwrapAndUnstakeWstETH, repertoire.Args{"amount": big.NewInt(0)})
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Zero(t, client.CallCount(WstETH, abis.WstETH, "getWstETHByStETH"))
}
