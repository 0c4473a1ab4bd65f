// Package dsr encodes withdrawals from the Maker Dai Savings Rate, either
// through the avatar's DSProxy or through the DsrManager.
package dsr

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/abis"
	"github.com/karpatkey/defi-repertoire/chain"
)

const Protocol = "dsr"

const (
	IDWithdrawWithProxy    = Protocol + "__withdraw_with_proxy"
	IDWithdrawWithoutProxy = Protocol + "__withdraw_without_proxy"
)

var (
	DAI             = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	ProxyRegistry   = common.HexToAddress("0x4678f0a6958e4D2Bc4F1BAF7Bc52E8F3564f3fE4")
	DsrProxyActions = common.HexToAddress("0x07ee93aEEa0a36FfF2A9B95dd22Bd6049EE54f26")
	DsrManager      = common.HexToAddress("0x373238337Bfe1146fb49989fc222523f83081dDb")
	DaiJoin         = common.HexToAddress("0x9759A6Ac90977b93B58547b4A71c78317f391A28")
	Pot             = common.HexToAddress("0x197E90f9FAD81970bA7976f33CbD77088E5D7cf7")
)

var amountField = repertoire.Field{
	Name: "amount", Type: repertoire.AmountField, Required: true,
	Description: "Amount of DAI to withdraw, in base units.",
}

type amountArgs struct {
	Amount *big.Int `mapstructure:"amount"`
}

// Register adds the DSR strategies to reg.
func Register(reg *repertoire.Registry) error {
	withProxy := repertoire.Define(repertoire.Meta{
		Protocol:    Protocol,
		Name:        "withdraw_with_proxy",
		Label:       "Withdraw with Proxy",
		Kind:        repertoire.Disassembly,
		Description: "Withdraw DAI from the DSR through the avatar's DSProxy.",
		Chains:      []chain.Blockchain{chain.Ethereum},
		Fields:      repertoire.Schema{amountField},
	}, withdrawWithProxy)

	withoutProxy := repertoire.Define(repertoire.Meta{
		Protocol:    Protocol,
		Name:        "withdraw_without_proxy",
		Label:       "Withdraw without Proxy",
		Kind:        repertoire.Disassembly,
		Description: "Withdraw DAI from the DSR through the DsrManager.",
		Chains:      []chain.Blockchain{chain.Ethereum},
		Fields:      repertoire.Schema{amountField},
	}, withdrawWithoutProxy)

	for _, s := range []repertoire.Strategy{withProxy, withoutProxy} {
		if err := reg.Register(s); err != nil {
			return err
		}
	}
	return nil
}

func withdrawWithProxy(ctx context.Context, tc *repertoire.TxContext, a amountArgs) ([]repertoire.Transactable, error) {
	if a.Amount == nil || a.Amount.Sign() <= 0 {
		return nil, nil
	}
	proxy, err := chain.CallAddress(ctx, tc.Reader, ProxyRegistry, abis.ProxyRegistry, "proxies", tc.Avatar)
	if err != nil {
		return nil, tc.Upstream(err)
	}
	if proxy == (common.Address{}) {
		return nil, &repertoire.DomainError{StrategyID: IDWithdrawWithProxy, Step: "proxy lookup", Err: repertoire.ErrNoDSProxy}
	}

	approve, err := repertoire.Encode(DAI, abis.ERC20, "approve", proxy, a.Amount)
	if err != nil {
		return nil, err
	}
	action, err := abis.DsrProxyActions.Pack("exit", DaiJoin, Pot, a.Amount)
	if err != nil {
		return nil, err
	}
	exit, err := repertoire.Encode(proxy, abis.DSProxy, "execute", DsrProxyActions, action)
	if err != nil {
		return nil, err
	}
	return []repertoire.Transactable{approve, exit}, nil
}

func withdrawWithoutProxy(ctx context.Context, tc *repertoire.TxContext, a amountArgs) ([]repertoire.Transactable, error) {
	if a.Amount == nil || a.Amount.Sign() <= 0 {
		return nil, nil
	}
	approve, err := repertoire.Encode(DAI, abis.ERC20, "approve", DsrManager, a.Amount)
	if err != nil {
		return nil, err
	}
	exit, err := repertoire.Encode(DsrManager, abis.DsrManager, "exit", tc.Avatar, a.Amount)
	if err != nil {
		return nil, err
	}
	return []repertoire.Transactable{approve, exit}, nil
}
