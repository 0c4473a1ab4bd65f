// Package lido encodes withdrawal-queue requests for stETH and wstETH.
package lido

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/abis"
	"github.com/karpatkey/defi-repertoire/chain"
)

const Protocol = "lido"

const (
	IDUnstakeStETH           = Protocol + "__unstake_stETH"
	IDUnwrapAndUnstakeWstETH = Protocol + "__unwrap_and_unstake_wstETH"
)

var (
	StETH           = common.HexToAddress("0xae7ab96520DE3A18E5e111B5EaAb095312D7fE84")
	WstETH          = common.HexToAddress("0x7f39C581F595B53c5cb19bD0b3f8dA6c935E2Ca0")
	WithdrawalQueue = common.HexToAddress("0x889edC2eDab5f40e902b864aD4d7AdE8E412F9B1")
)

// MaxStETHRequest is the largest single withdrawal request the queue accepts.
var MaxStETHRequest = new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18))

// Chunk splits amount into requests of at most limit, the remainder last.
// The chunks always sum to amount.
func Chunk(amount, limit *big.Int) []*big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	if limit == nil || limit.Sign() <= 0 || amount.Cmp(limit) <= 0 {
		return []*big.Int{new(big.Int).Set(amount)}
	}
	q, r := new(big.Int).QuoRem(amount, limit, new(big.Int))
	out := make([]*big.Int, 0, q.Int64()+1)
	for i := int64(0); i < q.Int64(); i++ {
		out = append(out, new(big.Int).Set(limit))
	}
	if r.Sign() > 0 {
		out = append(out, r)
	}
	return out
}

var amountField = repertoire.Field{
	Name: "amount", Type: repertoire.AmountField, Required: true,
	Description: "Amount to unstake, in base units.",
}

type amountArgs struct {
	Amount *big.Int `mapstructure:"amount"`
}

// Register adds the Lido strategies to reg.
func Register(reg *repertoire.Registry) error {
	unstake := repertoire.Define(repertoire.Meta{
		Protocol:    Protocol,
		Name:        "unstake_stETH",
		Label:       "Unstake stETH",
		Kind:        repertoire.Disassembly,
		Description: "Unstakes stETH from Lido.",
		Chains:      []chain.Blockchain{chain.Ethereum},
		Fields:      repertoire.Schema{amountField},
	}, unstakeStETH)

	unwrap := repertoire.Define(repertoire.Meta{
		Protocol:    Protocol,
		Name:        "unwrap_and_unstake_wstETH",
		Label:       "Unwrap + Unstake wstETH",
		Kind:        repertoire.Disassembly,
		Description: "Unwraps wstETH and unstakes for ETH on Lido.",
		Chains:      []chain.Blockchain{chain.Ethereum},
		Fields:      repertoire.Schema{amountField},
	}, unwrapAndUnstakeWstETH)

	for _, s := range []repertoire.Strategy{unstake, unwrap} {
		if err := reg.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// request approves the queue for the full amount and files one request per chunk.
func request(token common.Address, method string, amount, limit *big.Int, owner common.Address) ([]repertoire.Transactable, error) {
	approve, err := repertoire.Encode(token, abis.ERC20, "approve", WithdrawalQueue, amount)
	if err != nil {
		return nil, err
	}
	req, err := repertoire.Encode(WithdrawalQueue, abis.LidoWithdrawalQueue, method, Chunk(amount, limit), owner)
	if err != nil {
		return nil, err
	}
	return []repertoire.Transactable{approve, req}, nil
}

func unstakeStETH(ctx context.Context, tc *repertoire.TxContext, a amountArgs) ([]repertoire.Transactable, error) {
	if a.Amount == nil || a.Amount.Sign() <= 0 {
		return nil, nil
	}
	return request(StETH, "requestWithdrawals", a.Amount, MaxStETHRequest, tc.Avatar)
}

func unwrapAndUnstakeWstETH(ctx context.Context, tc *repertoire.TxContext, a amountArgs) ([]repertoire.Transactable, error) {
	if a.Amount == nil || a.Amount.Sign() <= 0 {
		return nil, nil
	}
	limit, err := chain.CallBigInt(ctx, tc.Reader, WstETH, abis.WstETH, "getWstETHByStETH", MaxStETHRequest)
	if err != nil {
		return nil, tc.Upstream(err)
	}
	if limit.Sign() <= 0 {
		return nil, tc.Upstream(fmt.Errorf("getWstETHByStETH returned non-positive request limit %s", limit))
	}
	return request(WstETH, "requestWithdrawalsWstETH", a.Amount, limit, tc.Avatar)
}
