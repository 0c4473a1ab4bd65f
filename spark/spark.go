// Package spark encodes sDAI redemptions.
package spark

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/abis"
	"github.com/karpatkey/defi-repertoire/chain"
)

const Protocol = "spark"

const IDWithdrawWithProxy = Protocol + "__withdraw_with_proxy"

// SDAI is the sDAI vault per chain id.
var SDAI = map[uint64]common.Address{
	chain.Ethereum.ChainID: common.HexToAddress("0x83F20F44975D03b1b09e64809B757c47f942BEeA"),
	chain.Gnosis.ChainID:   common.HexToAddress("0xaf204776c7245bF4147c2612BF6e5972Ee483701"),
}

type amountArgs struct {
	Amount *big.Int `mapstructure:"amount"`
}

// Register adds the Spark strategies to reg.
func Register(reg *repertoire.Registry) error {
	return reg.Register(repertoire.Define(repertoire.Meta{
		Protocol:    Protocol,
		Name:        "withdraw_with_proxy",
		Label:       "Withdraw with Proxy",
		Kind:        repertoire.Disassembly,
		Description: "Redeem sDAI for DAI.",
		Chains:      []chain.Blockchain{chain.Ethereum, chain.Gnosis},
		Fields: repertoire.Schema{{
			Name: "amount", Type: repertoire.AmountField, Required: true,
			Description: "Amount of sDAI shares to redeem, in base units.",
		}},
	}, redeem))
}

func redeem(ctx context.Context, tc *repertoire.TxContext, a amountArgs) ([]repertoire.Transactable, error) {
	if a.Amount == nil || a.Amount.Sign() <= 0 {
		return nil, nil
	}
	vault, ok := SDAI[tc.Chain.ChainID]
	if !ok {
		return nil, &repertoire.NotFoundError{Kind: "chain", Key: tc.Chain.Name}
	}
	tx, err := repertoire.Encode(vault, abis.ERC4626, "redeem", a.Amount, tc.Avatar, tc.Avatar)
	if err != nil {
		return nil, err
	}
	return []repertoire.Transactable{tx}, nil
}
