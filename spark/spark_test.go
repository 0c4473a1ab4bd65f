package spark

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

const avatarHex = "0x849D52316331967b6fF1198e5E32A0eB168D039d"

func TestRedeemPerChain(t *testing.T) {
	avatar := common.HexToAddress(avatarHex)

	for _, bc := range []chain.Blockchain{chain.Ethereum, chain.Gnosis} {
		t.Run(bc.Name, func(t *testing.T) {
			reg := repertoire.NewRegistry()
			require.NoError(t, Register(reg))
			tc, err := repertoire.NewTxContext(context.Background(), reg, chaintest.NewClient(bc.ChainID), avatarHex)
			require.NoError(t, err)

			txs, err := reg.Compose(context.Background(), tc, IDWithdrawWithProxy, map[string]any{"amount": "1000"})
			require.NoError(t, err)

			expected, err := repertoire.Encode(SDAI[bc.ChainID], abis.ERC4626, "redeem", big.NewInt(1000), avatar, avatar)
			require.NoError(t, err)
			assert.Equal(t, []repertoire.Transactable{expected}, txs)
		})
	}
}

func TestRedeemZeroAmount(t *testing.T) {
	reg := repertoire.NewRegistry()
	require.NoError(t, Register(reg))
	tc, err := repertoire.NewTxContext(context.Background(), reg, chaintest.NewClient(chain.Gnosis.ChainID), avatarHex)
	require.NoError(t, err)

	txs, err := tc.Invoke(context.Background(), IDWithdrawWithProxy, repertoire.Args{"amount": big.NewInt(0)})
	require.NoError(t, err)
	assert.Empty(t, txs)
}
