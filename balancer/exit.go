package balancer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/abis"
	"github.com/karpatkey/defi-repertoire/chain"
)

// Exit kinds understood by weighted and composable stable pools.
const (
	exactBptInForOneTokenOut   = 0
	weightedExactBptInForAll   = 1
	composableExactBptInForAll = 2
	recoveryModeExit           = 255
)

// ExitKind selects how BPT is redeemed.
type ExitKind int

const (
	ExitProportional ExitKind = iota
	ExitSingle
	ExitRecovery
)

func (k ExitKind) String() string {
	switch k {
	case ExitProportional:
		return "proportional"
	case ExitSingle:
		return "single"
	case ExitRecovery:
		return "recovery"
	}
	return fmt.Sprintf("ExitKind(%d)", int(k))
}

var uint256Type = mustType("uint256")

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// UserData encodes words as consecutive uint256 values.
func UserData(words ...*big.Int) ([]byte, error) {
	args := make(abi.Arguments, len(words))
	values := make([]any, len(words))
	for i, w := range words {
		args[i] = abi.Argument{Type: uint256Type}
		values[i] = w
	}
	return args.Pack(values...)
}

// exitUserData builds the pool-specific userData of an exit.
func exitUserData(state PoolState, kind ExitKind, bptIn *big.Int, tokenOut common.Address) ([]byte, error) {
	switch kind {
	case ExitRecovery:
		return UserData(big.NewInt(recoveryModeExit), bptIn)
	case ExitProportional:
		k := int64(weightedExactBptInForAll)
		if state.Composable() {
			k = composableExactBptInForAll
		}
		return UserData(big.NewInt(k), bptIn)
	case ExitSingle:
		index, ok := state.ExitIndex(tokenOut)
		if !ok {
			return nil, fmt.Errorf("token %s is not in pool %s", tokenOut.Hex(), state.Address.Hex())
		}
		return UserData(big.NewInt(exactBptInForOneTokenOut), bptIn, big.NewInt(int64(index)))
	}
	return nil, fmt.Errorf("unknown exit kind %v", kind)
}

// exitRequest encodes Vault.exitPool for state. Non-recovery exits query the
// expected amounts through BalancerQueries and bound them by slippage;
// recovery exits accept any amount.
func exitRequest(ctx context.Context, tc *repertoire.TxContext, state PoolState, kind ExitKind, bptIn *big.Int, tokenOut common.Address, slippage decimal.Decimal) (repertoire.Transactable, error) {
	contracts, err := chain.ContractsFor(tc.Chain)
	if err != nil {
		return repertoire.Transactable{}, err
	}
	userData, err := exitUserData(state, kind, bptIn, tokenOut)
	if err != nil {
		return repertoire.Transactable{}, err
	}

	minAmountsOut := make([]*big.Int, len(state.Tokens))
	for i := range minAmountsOut {
		minAmountsOut[i] = new(big.Int)
	}
	request := abis.ExitPoolRequest{
		Assets:            state.Tokens,
		MinAmountsOut:     minAmountsOut,
		UserData:          userData,
		ToInternalBalance: false,
	}

	if kind != ExitRecovery {
		out, err := chain.Call(ctx, tc.Reader, contracts.BalancerQueries, abis.BalancerQueries, "queryExit", state.ID, tc.Avatar, tc.Avatar, request)
		if err != nil {
			return repertoire.Transactable{}, tc.Upstream(fmt.Errorf("query exit of %s: %w", state.Address.Hex(), err))
		}
		amountsOut, ok := out[1].([]*big.Int)
		if !ok || len(amountsOut) != len(state.Tokens) {
			return repertoire.Transactable{}, tc.Upstream(fmt.Errorf("query exit of %s: unexpected amounts %v", state.Address.Hex(), out[1]))
		}
		for i, a := range amountsOut {
			request.MinAmountsOut[i] = repertoire.ApplySlippage(a, slippage)
		}
	}

	return repertoire.Encode(contracts.BalancerVault, abis.BalancerVault, "exitPool", state.ID, tc.Avatar, tc.Avatar, request)
}
