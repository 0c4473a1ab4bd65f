// Package multisend batches transactables into a single Safe MultiSend call
// and wraps a call for execution through a Zodiac Roles modifier.
package multisend

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/abis"
	"github.com/karpatkey/defi-repertoire/chain"
)

// ErrEmpty is returned when there is nothing to batch.
var ErrEmpty = errors.New("no transactables to batch")

// Pack encodes txs in the MultiSend wire format: for each call the operation
// byte, the 20-byte target, the 32-byte value, the 32-byte data length and the
// data itself, concatenated without padding.
func Pack(txs []repertoire.Transactable) []byte {
	size := 0
	for _, tx := range txs {
		size += 1 + common.AddressLength + 32 + 32 + len(tx.Data)
	}
	out := make([]byte, 0, size)
	for _, tx := range txs {
		out = append(out, byte(tx.Operation))
		out = append(out, tx.To.Bytes()...)
		value := tx.Value
		if value == nil {
			value = new(big.Int)
		}
		out = append(out, math.U256Bytes(new(big.Int).Set(value))...)
		var length [32]byte
		binary.BigEndian.PutUint64(length[24:], uint64(len(tx.Data)))
		out = append(out, length[:]...)
		out = append(out, tx.Data...)
	}
	return out
}

// MultiOrOne returns txs[0] unchanged when there is a single call. Otherwise
// it batches every call into one DelegateCall to MultiSendCallOnly, or to
// MultiSend when one of the calls is itself a DelegateCall.
func MultiOrOne(bc chain.Blockchain, txs []repertoire.Transactable) (repertoire.Transactable, error) {
	switch len(txs) {
	case 0:
		return repertoire.Transactable{}, ErrEmpty
	case 1:
		return txs[0], nil
	}

	contracts, err := chain.ContractsFor(bc)
	if err != nil {
		return repertoire.Transactable{}, err
	}
	target := contracts.MultiSendCall
	for _, tx := range txs {
		if tx.Operation == repertoire.DelegateCall {
			target = contracts.MultiSend
			break
		}
	}

	batch, err := repertoire.Encode(target, abis.MultiSend, "multiSend", Pack(txs))
	if err != nil {
		return repertoire.Transactable{}, err
	}
	batch.Operation = repertoire.DelegateCall
	return batch, nil
}
