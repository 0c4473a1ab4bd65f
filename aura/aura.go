// Package aura encodes withdrawals of Balancer pool tokens staked in Aura
// reward pools. Exits that continue into the pool itself are delegated to the
// Balancer strategies through the registry.
package aura

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/abis"
	"github.com/karpatkey/defi-repertoire/chain"
	"github.com/karpatkey/defi-repertoire/datasource"
)

const Protocol = "aura"

const (
	IDExit1  = Protocol + "__exit_1"
	IDExit21 = Protocol + "__exit_2_1"
	IDExit22 = Protocol + "__exit_2_2"

	balancerProportional = "balancer__withdraw_all_assets_proportional"
	balancerSingle       = "balancer__withdraw_single"
)

// BPTScratchKey is the scratch key under which the BPT of a reward pool is recorded.
func BPTScratchKey(rewards common.Address) string {
	return "aura_to_bpt/" + rewards.Hex()
}

var (
	rewardsField = repertoire.Field{
		Name: "rewards_address", Type: repertoire.AddressField, Required: true,
		Description: "Address of the Aura BaseRewardPool.",
	}
	slippageField = repertoire.Field{
		Name: "max_slippage", Type: repertoire.PercentageField, Required: true,
		Description: "Maximum accepted slippage of the Balancer exit, in percent.",
	}
	tokenOutField = repertoire.Field{
		Name: "token_out_address", Type: repertoire.AddressField, Required: true,
		Description: "Pool token to receive.",
	}
	amountField = repertoire.Field{
		Name: "amount", Type: repertoire.AmountField, Required: true,
		Description: "Amount of staked BPT to withdraw, in base units.",
	}
)

type exit1Args struct {
	Rewards common.Address `mapstructure:"rewards_address"`
	Amount  *big.Int       `mapstructure:"amount"`
}

type exit21Args struct {
	Rewards     common.Address  `mapstructure:"rewards_address"`
	MaxSlippage decimal.Decimal `mapstructure:"max_slippage"`
	Amount      *big.Int        `mapstructure:"amount"`
}

type exit22Args struct {
	Rewards     common.Address  `mapstructure:"rewards_address"`
	MaxSlippage decimal.Decimal `mapstructure:"max_slippage"`
	TokenOut    common.Address  `mapstructure:"token_out_address"`
	Amount      *big.Int        `mapstructure:"amount"`
}

// Deps are the collaborators of the Aura strategies.
type Deps struct {
	Pools datasource.PoolSource
}

type strategies struct {
	pools datasource.PoolSource
}

// Register adds every Aura strategy to reg. The Balancer strategies must be
// registered too for the composite exits to run.
func Register(reg *repertoire.Registry, deps Deps) error {
	s := &strategies{pools: deps.Pools}

	exit1 := repertoire.Define(repertoire.Meta{
		Protocol:    Protocol,
		Name:        "exit_1",
		Label:       "Withdraw from Aura",
		Kind:        repertoire.Disassembly,
		Description: "Withdraw funds from Aura.",
		Fields:      repertoire.Schema{rewardsField, amountField},
	}, s.exit1)

	exit21 := repertoire.Define(repertoire.Meta{
		Protocol:    Protocol,
		Name:        "exit_2_1",
		Label:       "Withdraw from Aura and exit proportionally",
		Kind:        repertoire.Disassembly,
		Description: "Withdraw funds from Aura and then from the Balancer pool withdrawing all assets in proportional way (checks for recovery mode and acts accordingly).",
		Fields:      repertoire.Schema{rewardsField, slippageField, amountField},
	}, s.exit21)

	exit22 := repertoire.Define(repertoire.Meta{
		Protocol:    Protocol,
		Name:        "exit_2_2",
		Label:       "Withdraw from Aura and exit to a single token",
		Kind:        repertoire.Disassembly,
		Description: "Withdraw funds from Aura and then from the Balancer pool withdrawing a single asset specified by the token address.",
		Fields:      repertoire.Schema{rewardsField, slippageField, tokenOutField, amountField},
	}, s.exit22)

	if s.pools != nil {
		exit1.WithBaseOptions(s.rewardsOptions)
		exit21.WithBaseOptions(s.rewardsOptions)
		exit22.WithBaseOptions(s.rewardsOptions).WithOptions(s.tokenOptions)
	}

	for _, st := range []repertoire.Strategy{exit1, exit21, exit22} {
		if err := reg.Register(st); err != nil {
			return err
		}
	}
	return nil
}

// rewardsBPT resolves the BPT staked in a reward pool, reading asset() only
// when the request has not recorded it yet.
func rewardsBPT(ctx context.Context, tc *repertoire.TxContext, rewards common.Address) (common.Address, error) {
	key := BPTScratchKey(rewards)
	if bpt, ok := tc.Scratch.Address(Protocol, key); ok {
		return bpt, nil
	}
	bpt, err := chain.CallAddress(ctx, tc.Reader, rewards, abis.AuraRewardPool, "asset")
	if err != nil {
		return common.Address{}, tc.Upstream(err)
	}
	tc.Scratch.Set(Protocol, key, bpt)
	return bpt, nil
}

func (s *strategies) exit1(ctx context.Context, tc *repertoire.TxContext, a exit1Args) ([]repertoire.Transactable, error) {
	if a.Amount == nil || a.Amount.Sign() <= 0 {
		return nil, nil
	}
	if _, err := rewardsBPT(ctx, tc, a.Rewards); err != nil {
		return nil, err
	}
	tx, err := repertoire.Encode(a.Rewards, abis.AuraRewardPool, "withdrawAndUnwrap", a.Amount, true)
	if err != nil {
		return nil, err
	}
	return []repertoire.Transactable{tx}, nil
}

// withdrawThen runs exit_1 and appends the Balancer exit built for the
// reward pool's BPT.
func withdrawThen(ctx context.Context, tc *repertoire.TxContext, rewards common.Address, amount *big.Int, childID string, childArgs func(bpt common.Address) repertoire.Args) ([]repertoire.Transactable, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, nil
	}
	txs, err := tc.Invoke(ctx, IDExit1, repertoire.Args{rewardsField.Name: rewards, amountField.Name: amount})
	if err != nil {
		return nil, err
	}
	bpt, err := rewardsBPT(ctx, tc, rewards)
	if err != nil {
		return nil, err
	}
	child, err := tc.Invoke(ctx, childID, childArgs(bpt))
	if err != nil {
		return nil, err
	}
	return append(txs, child...), nil
}

func (s *strategies) exit21(ctx context.Context, tc *repertoire.TxContext, a exit21Args) ([]repertoire.Transactable, error) {
	return withdrawThen(ctx, tc, a.Rewards, a.Amount, balancerProportional, func(bpt common.Address) repertoire.Args {
		return repertoire.Args{"bpt_address": bpt, "max_slippage": a.MaxSlippage, "amount": a.Amount}
	})
}

func (s *strategies) exit22(ctx context.Context, tc *repertoire.TxContext, a exit22Args) ([]repertoire.Transactable, error) {
	return withdrawThen(ctx, tc, a.Rewards, a.Amount, balancerSingle, func(bpt common.Address) repertoire.Args {
		return repertoire.Args{"bpt_address": bpt, "max_slippage": a.MaxSlippage, "token_out_address": a.TokenOut, "amount": a.Amount}
	})
}

func poolLabel(p datasource.Pool) string {
	if p.Symbol != "" {
		return p.Symbol
	}
	return p.Name
}

func (s *strategies) rewardsOptions(ctx context.Context, bc chain.Blockchain) (repertoire.Options, error) {
	pools, err := s.pools.Pools(ctx, bc)
	if err != nil {
		return nil, err
	}
	opts := make([]repertoire.Option, 0, len(pools))
	for _, p := range pools {
		if p.AuraRewards == (common.Address{}) {
			continue
		}
		opts = append(opts, repertoire.Option{Address: p.AuraRewards.Hex(), Label: poolLabel(p)})
	}
	return repertoire.Options{rewardsField.Name: opts}, nil
}

func (s *strategies) tokenOptions(ctx context.Context, bc chain.Blockchain, partial repertoire.Args) (repertoire.Options, error) {
	rewards, ok := partial.Address(rewardsField.Name)
	if !ok {
		return s.rewardsOptions(ctx, bc)
	}
	pools, err := s.pools.Pools(ctx, bc)
	if err != nil {
		return nil, err
	}
	p, ok := datasource.FindByAuraRewards(pools, rewards)
	if !ok {
		return nil, &repertoire.NotFoundError{Kind: "pool", Key: rewards.Hex()}
	}
	tokens := make([]repertoire.Option, 0, len(p.Tokens))
	for _, t := range p.Tokens {
		tokens = append(tokens, repertoire.Option{Address: t.Address.Hex(), Label: t.Symbol})
	}
	return repertoire.Options{
		rewardsField.Name:  {{Address: p.AuraRewards.Hex(), Label: poolLabel(p)}},
		tokenOutField.Name: tokens,
	}, nil
}
