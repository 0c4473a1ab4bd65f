package repertoire

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karpatkey/defi-repertoire/abis"
)

func TestTransactableJSON(t *testing.T) {
	pool := common.HexToAddress(poolHex)

	t.Run("Marshal", func(t *testing.T) {
		tx, err := EncodePayable(pool, big.NewInt(5), abis.ERC20, "approve", pool, big.NewInt(1))
		require.NoError(t, err)
		tx.Operation = DelegateCall

		raw, err := json.Marshal(tx)
		require.NoError(t, err)

		var out map[string]any
		require.NoError(t, json.Unmarshal(raw, &out))
		assert.Equal(t, poolHex, out["contract_address"])
		assert.Equal(t, "0x095ea7b3", out["data"].(string)[:10])
		assert.Equal(t, float64(1), out["operation"])
		assert.Equal(t, float64(5), out["value"])
	})

	t.Run("NilValueIsZero", func(t *testing.T) {
		raw, err := json.Marshal(Transactable{To: pool})
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"value":0`)
	})

	t.Run("Unmarshal", func(t *testing.T) {
		var tx Transactable
		require.NoError(t, json.Unmarshal([]byte(`{"contract_address":"0x32296969ef14eb0c6d29669c550d4a0449130230","data":"0xabcd","operation":0}`), &tx))
		assert.Equal(t, pool, tx.To)
		assert.Equal(t, []byte{0xab, 0xcd}, tx.Data)
		assert.Equal(t, "0", tx.Value.String())
	})

	t.Run("UnmarshalRejects", func(t *testing.T) {
		for _, body := range []string{
			`{"contract_address":"0x1234","data":"0x","operation":0,"value":0}`,
			`{"contract_address":"` + poolHex + `","data":"0x","operation":2,"value":0}`,
			`{"contract_address":"` + poolHex + `","data":"abcd","operation":0,"value":0}`,
			`{"contract_address":"` + poolHex + `","data":"0x","operation":0,"value":-1}`,
			`{"contract_address":"` + poolHex + `","data":"0x","operation":0,"value":115792089237316195423570985008687907853269984665640564039457584007913129639936}`,
		} {
			var tx Transactable
			assert.Error(t, json.Unmarshal([]byte(body), &tx), body)
		}
	})

	t.Run("UnmarshalAcceptsMaxUint256", func(t *testing.T) {
		var tx Transactable
		body := `{"contract_address":"` + poolHex + `","data":"0x","operation":0,"value":115792089237316195423570985008687907853269984665640564039457584007913129639935}`
		require.NoError(t, json.Unmarshal([]byte(body), &tx))
		assert.Equal(t, 256, tx.Value.BitLen())
	})
}
