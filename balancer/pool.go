package balancer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/karpatkey/defi-repertoire/abis"
	"github.com/karpatkey/defi-repertoire/chain"
)

// PoolState is the on-chain view of a Balancer pool needed to encode an exit.
type PoolState struct {
	Address common.Address
	ID      [32]byte
	// Tokens is the Vault's registered token list, in Vault order. Composable
	// stable pools include their own BPT.
	Tokens   []common.Address
	Paused   bool
	Recovery bool
}

// Composable reports whether the pool's BPT is one of its own tokens.
func (p PoolState) Composable() bool {
	for _, t := range p.Tokens {
		if t == p.Address {
			return true
		}
	}
	return false
}

// ExitIndex returns the index of token in the exit userData sense: the
// position among the pool tokens once the BPT itself is skipped.
func (p PoolState) ExitIndex(token common.Address) (int, bool) {
	i := 0
	for _, t := range p.Tokens {
		if t == p.Address {
			continue
		}
		if t == token {
			return i, true
		}
		i++
	}
	return 0, false
}

// Inspect reads id, token list, paused state and recovery mode of the pool
// at bpt. A pool without recovery mode support reads as not in recovery.
func Inspect(ctx context.Context, r chain.Reader, vault, bpt common.Address) (PoolState, error) {
	state := PoolState{Address: bpt}

	// 1. Pool id.
	id, err := PoolID(ctx, r, bpt)
	if err != nil {
		return PoolState{}, err
	}
	state.ID = id

	// 2. Paused state.
	out, err := chain.Call(ctx, r, bpt, abis.BalancerPool, "getPausedState")
	if err != nil {
		return PoolState{}, fmt.Errorf("could not get paused state for %s: %w", bpt.Hex(), err)
	}
	paused, ok := out[0].(bool)
	if !ok {
		return PoolState{}, fmt.Errorf("unexpected getPausedState output type %T", out[0])
	}
	state.Paused = paused

	// 3. Recovery mode.
	state.Recovery, err = inRecoveryMode(ctx, r, bpt)
	if err != nil {
		return PoolState{}, err
	}

	// 4. Tokens registered in the Vault.
	out, err = chain.Call(ctx, r, vault, abis.BalancerVault, "getPoolTokens", id)
	if err != nil {
		return PoolState{}, fmt.Errorf("could not get tokens for pool %s: %w", bpt.Hex(), err)
	}
	tokens, ok := out[0].([]common.Address)
	if !ok {
		return PoolState{}, fmt.Errorf("unexpected getPoolTokens output type %T", out[0])
	}
	state.Tokens = tokens

	return state, nil
}

// inRecoveryMode treats a revert as false since older pools lack the method.
func inRecoveryMode(ctx context.Context, r chain.Reader, bpt common.Address) (bool, error) {
	out, err := chain.Call(ctx, r, bpt, abis.BalancerPool, "inRecoveryMode")
	if err != nil {
		if chain.IsRevert(err) {
			return false, nil
		}
		return false, fmt.Errorf("could not get recovery mode for %s: %w", bpt.Hex(), err)
	}
	recovery, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected inRecoveryMode output type %T", out[0])
	}
	return recovery, nil
}

// PoolID reads only the pool id of bpt.
func PoolID(ctx context.Context, r chain.Reader, bpt common.Address) ([32]byte, error) {
	out, err := chain.Call(ctx, r, bpt, abis.BalancerPool, "getPoolId")
	if err != nil {
		return [32]byte{}, fmt.Errorf("could not get pool id for %s: %w", bpt.Hex(), err)
	}
	id, ok := out[0].([32]byte)
	if !ok {
		return [32]byte{}, fmt.Errorf("unexpected getPoolId output type %T", out[0])
	}
	return id, nil
}
