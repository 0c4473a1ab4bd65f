package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	// DefaultCallTimeout bounds every individual eth_call made through Call.
	DefaultCallTimeout = 10 * time.Second
)

// ErrExecutionReverted marks a contract call that reverted.
var ErrExecutionReverted = errors.New("execution reverted")

// Reader is the read-only slice of an Ethereum client the strategies need.
// *ethclient.Client satisfies it.
type Reader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Call packs method with args, runs it as an eth_call against to at the latest
// block and unpacks the outputs.
func Call(parentCtx context.Context, r Reader, to common.Address, contract abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(parentCtx, DefaultCallTimeout)
	defer cancel()

	out, err := r.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_call %s on %s: %w", method, to.Hex(), err)
	}
	if len(out) == 0 {
		// A call to an address without code, or to a contract without the method and no fallback.
		return nil, fmt.Errorf("eth_call %s on %s: %w: empty return data", method, to.Hex(), ErrExecutionReverted)
	}

	values, err := contract.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("invalid response for %s on %s: got %d bytes: %w", method, to.Hex(), len(out), err)
	}
	return values, nil
}

// CallBigInt runs a call whose first output is an integer.
func CallBigInt(ctx context.Context, r Reader, to common.Address, contract abi.ABI, method string, args ...any) (*big.Int, error) {
	values, err := Call(ctx, r, to, contract, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s output type %T", method, values[0])
	}
	return v, nil
}

// CallAddress runs a call whose first output is an address.
func CallAddress(ctx context.Context, r Reader, to common.Address, contract abi.ABI, method string, args ...any) (common.Address, error) {
	values, err := Call(ctx, r, to, contract, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	v, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected %s output type %T", method, values[0])
	}
	return v, nil
}

// IsRevert reports whether err is a contract revert rather than a transport failure.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrExecutionReverted) {
		return true
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}
