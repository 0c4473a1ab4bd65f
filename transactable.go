package repertoire

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/karpatkey/defi-repertoire/chain"
)

// Operation is the Safe execution mode of a transactable.
type Operation uint8

const (
	Call         Operation = 0
	DelegateCall Operation = 1
)

// Transactable is one encoded contract call, ready to be batched by a Safe.
type Transactable struct {
	To        common.Address
	Data      []byte
	Value     *big.Int
	Operation Operation
}

type transactableJSON struct {
	ContractAddress string        `json:"contract_address"`
	Data            hexutil.Bytes `json:"data"`
	Operation       Operation     `json:"operation"`
	Value           *big.Int      `json:"value"`
}

func (t Transactable) MarshalJSON() ([]byte, error) {
	value := t.Value
	if value == nil {
		value = new(big.Int)
	}
	return json.Marshal(transactableJSON{
		ContractAddress: t.To.Hex(),
		Data:            t.Data,
		Operation:       t.Operation,
		Value:           value,
	})
}

func (t *Transactable) UnmarshalJSON(b []byte) error {
	var raw transactableJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	to, err := chain.ParseAddress(raw.ContractAddress)
	if err != nil {
		return fmt.Errorf("contract_address: %w", err)
	}
	if raw.Operation != Call && raw.Operation != DelegateCall {
		return fmt.Errorf("operation: unknown value %d", raw.Operation)
	}
	if raw.Value != nil && (raw.Value.Sign() < 0 || raw.Value.BitLen() > 256) {
		return fmt.Errorf("value: %s is not a uint256", raw.Value)
	}
	t.To = to
	t.Data = raw.Data
	t.Operation = raw.Operation
	t.Value = raw.Value
	if t.Value == nil {
		t.Value = new(big.Int)
	}
	return nil
}

// Encode builds a plain call to method on the contract at to.
func Encode(to common.Address, contract abi.ABI, method string, args ...any) (Transactable, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return Transactable{}, fmt.Errorf("encode %s: %w", method, err)
	}
	return Transactable{To: to, Data: data, Value: new(big.Int), Operation: Call}, nil
}

// EncodePayable is Encode with native value attached.
func EncodePayable(to common.Address, value *big.Int, contract abi.ABI, method string, args ...any) (Transactable, error) {
	tx, err := Encode(to, contract, method, args...)
	if err != nil {
		return Transactable{}, err
	}
	tx.Value = new(big.Int).Set(value)
	return tx, nil
}
