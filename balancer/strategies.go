// Package balancer encodes exits from Balancer v2 pools and their staking
// gauges.
package balancer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/abis"
	"github.com/karpatkey/defi-repertoire/chain"
	"github.com/karpatkey/defi-repertoire/datasource"
)

const Protocol = "balancer"

// Strategy ids, also used for composition through TxContext.Invoke.
const (
	IDWithdrawProportional = Protocol + "__withdraw_all_assets_proportional"
	IDWithdrawSingle       = Protocol + "__withdraw_single"
	IDWithdrawRecovery     = Protocol + "__withdraw_all_assets_proportional_pools_in_recovery"
	IDUnstakeFromGauge     = Protocol + "__unstake_from_gauge"
	IDExit21               = Protocol + "__exit_2_1"
	IDExit22               = Protocol + "__exit_2_2"
	IDExit23               = Protocol + "__exit_2_3"
)

// GaugeScratchKey is the scratch key under which the BPT of a gauge is recorded.
func GaugeScratchKey(gauge common.Address) string {
	return "gauge_to_bpt/" + gauge.Hex()
}

var (
	bptField = repertoire.Field{
		Name: "bpt_address", Type: repertoire.AddressField, Required: true,
		Description: "Address of the Balancer pool token (BPT).",
	}
	gaugeField = repertoire.Field{
		Name: "gauge_address", Type: repertoire.AddressField, Required: true,
		Description: "Address of the Balancer liquidity gauge.",
	}
	tokenOutField = repertoire.Field{
		Name: "token_out_address", Type: repertoire.AddressField, Required: true,
		Description: "Pool token to receive.",
	}
	slippageField = repertoire.Field{
		Name: "max_slippage", Type: repertoire.PercentageField, Required: true,
		Description: "Maximum accepted slippage, in percent.",
	}
	amountField = repertoire.Field{
		Name: "amount", Type: repertoire.AmountField, Required: true,
		Description: "Amount of BPT to redeem, in base units.",
	}
)

type proportionalArgs struct {
	BPT         common.Address  `mapstructure:"bpt_address"`
	MaxSlippage decimal.Decimal `mapstructure:"max_slippage"`
	Amount      *big.Int        `mapstructure:"amount"`
}

type singleArgs struct {
	BPT         common.Address  `mapstructure:"bpt_address"`
	MaxSlippage decimal.Decimal `mapstructure:"max_slippage"`
	TokenOut    common.Address  `mapstructure:"token_out_address"`
	Amount      *big.Int        `mapstructure:"amount"`
}

type recoveryArgs struct {
	BPT    common.Address `mapstructure:"bpt_address"`
	Amount *big.Int       `mapstructure:"amount"`
}

type unstakeArgs struct {
	Gauge  common.Address `mapstructure:"gauge_address"`
	Amount *big.Int       `mapstructure:"amount"`
}

type gaugeProportionalArgs struct {
	Gauge       common.Address  `mapstructure:"gauge_address"`
	MaxSlippage decimal.Decimal `mapstructure:"max_slippage"`
	Amount      *big.Int        `mapstructure:"amount"`
}

type gaugeSingleArgs struct {
	Gauge       common.Address  `mapstructure:"gauge_address"`
	MaxSlippage decimal.Decimal `mapstructure:"max_slippage"`
	TokenOut    common.Address  `mapstructure:"token_out_address"`
	Amount      *big.Int        `mapstructure:"amount"`
}

// Deps are the collaborators of the Balancer strategies.
type Deps struct {
	// Pools feeds options; without it the strategies have none.
	Pools datasource.PoolSource
}

type strategies struct {
	pools datasource.PoolSource
}

// Register adds every Balancer strategy to reg.
func Register(reg *repertoire.Registry, deps Deps) error {
	s := &strategies{pools: deps.Pools}
	for _, st := range s.definitions() {
		if err := reg.Register(st); err != nil {
			return err
		}
	}
	return nil
}

func (s *strategies) definitions() []repertoire.Strategy {
	proportional := repertoire.Define(repertoire.Meta{
		Protocol:    Protocol,
		Name:        "withdraw_all_assets_proportional",
		Label:       "Withdraw proportionally",
		Kind:        repertoire.Disassembly,
		Description: "Withdraw funds from the Balancer pool withdrawing all assets in proportional way. Pools in recovery mode are exited through the recovery path.",
		Fields:      repertoire.Schema{bptField, slippageField, amountField},
	}, s.withdrawProportional)

	single := repertoire.Define(repertoire.Meta{
		Protocol:    Protocol,
		Name:        "withdraw_single",
		Label:       "Withdraw single token",
		Kind:        repertoire.Disassembly,
		Description: "Withdraw funds from the Balancer pool withdrawing a single asset specified by the token address.",
		Fields:      repertoire.Schema{bptField, slippageField, tokenOutField, amountField},
	}, s.withdrawSingle)

	recovery := repertoire.Define(repertoire.Meta{
		Protocol:    Protocol,
		Name:        "withdraw_all_assets_proportional_pools_in_recovery",
		Label:       "Withdraw from pool in recovery",
		Kind:        repertoire.Disassembly,
		Description: "Withdraw funds from the Balancer pool withdrawing all assets in proportional way for pools in recovery mode.",
		Fields:      repertoire.Schema{bptField, amountField},
	}, s.withdrawRecovery)

	unstake := repertoire.Define(repertoire.Meta{
		Protocol:    Protocol,
		Name:        "unstake_from_gauge",
		Label:       "Unstake from gauge",
		Kind:        repertoire.Disassembly,
		Description: "Unstake BPT from a Balancer gauge.",
		Fields:      repertoire.Schema{gaugeField, amountField},
	}, s.unstakeFromGauge)

	exit21 := repertoire.Define(repertoire.Meta{
		Protocol:    Protocol,
		Name:        "exit_2_1",
		Label:       "Unstake and withdraw proportionally",
		Kind:        repertoire.Disassembly,
		Description: "Unstake from gauge and withdraw funds from the Balancer pool withdrawing all assets in proportional way.",
		Fields:      repertoire.Schema{gaugeField, slippageField, amountField},
	}, s.exit21)

	exit22 := repertoire.Define(repertoire.Meta{
		Protocol:    Protocol,
		Name:        "exit_2_2",
		Label:       "Unstake and withdraw single token",
		Kind:        repertoire.Disassembly,
		Description: "Unstake from gauge and withdraw funds from the Balancer pool withdrawing a single asset specified by the token address.",
		Fields:      repertoire.Schema{gaugeField, slippageField, tokenOutField, amountField},
	}, s.exit22)

	exit23 := repertoire.Define(repertoire.Meta{
		Protocol:    Protocol,
		Name:        "exit_2_3",
		Label:       "Unstake and withdraw from pool in recovery",
		Kind:        repertoire.Disassembly,
		Description: "Unstake from gauge and withdraw funds from the Balancer pool withdrawing all assets in proportional way for pools in recovery mode.",
		Fields:      repertoire.Schema{gaugeField, amountField},
	}, s.exit23)

	if s.pools != nil {
		proportional.WithBaseOptions(s.bptOptions)
		single.WithBaseOptions(s.bptOptions).WithOptions(s.bptTokenOptions)
		recovery.WithBaseOptions(s.bptOptions)
		unstake.WithBaseOptions(s.gaugeOptions)
		exit21.WithBaseOptions(s.gaugeOptions)
		exit22.WithBaseOptions(s.gaugeOptions).WithOptions(s.gaugeTokenOptions)
		exit23.WithBaseOptions(s.gaugeOptions)
	}

	return []repertoire.Strategy{proportional, single, recovery, unstake, exit21, exit22, exit23}
}

// inspect reads the pool state of bpt on the context's chain.
func inspect(ctx context.Context, tc *repertoire.TxContext, bpt common.Address) (PoolState, error) {
	contracts, err := chain.ContractsFor(tc.Chain)
	if err != nil {
		return PoolState{}, err
	}
	state, err := Inspect(ctx, tc.Reader, contracts.BalancerVault, bpt)
	if err != nil {
		return PoolState{}, tc.Upstream(err)
	}
	return state, nil
}

func domainErr(id string, bpt common.Address, err error) error {
	return &repertoire.DomainError{StrategyID: id, Step: "pool " + bpt.Hex(), Err: err}
}

func isZero(amount *big.Int) bool {
	return amount == nil || amount.Sign() <= 0
}

func (s *strategies) withdrawProportional(ctx context.Context, tc *repertoire.TxContext, a proportionalArgs) ([]repertoire.Transactable, error) {
	if isZero(a.Amount) {
		return nil, nil
	}
	state, err := inspect(ctx, tc, a.BPT)
	if err != nil {
		return nil, err
	}

	kind := ExitProportional
	switch {
	case state.Recovery:
		// Recovery exits bypass the pool math, so they also work while paused.
		kind = ExitRecovery
	case state.Paused:
		return nil, domainErr(IDWithdrawProportional, a.BPT, repertoire.ErrPoolPaused)
	}

	tx, err := exitRequest(ctx, tc, state, kind, a.Amount, common.Address{}, a.MaxSlippage)
	if err != nil {
		return nil, err
	}
	return []repertoire.Transactable{tx}, nil
}

func (s *strategies) withdrawSingle(ctx context.Context, tc *repertoire.TxContext, a singleArgs) ([]repertoire.Transactable, error) {
	if isZero(a.Amount) {
		return nil, nil
	}
	state, err := inspect(ctx, tc, a.BPT)
	if err != nil {
		return nil, err
	}
	if state.Paused {
		return nil, domainErr(IDWithdrawSingle, a.BPT, repertoire.ErrPoolPaused)
	}
	if state.Recovery {
		return nil, domainErr(IDWithdrawSingle, a.BPT, repertoire.ErrRecoveryModeSingleExit)
	}
	if _, ok := state.ExitIndex(a.TokenOut); !ok {
		return nil, &repertoire.ValidationError{
			StrategyID: IDWithdrawSingle,
			Fields:     []repertoire.FieldError{{Field: tokenOutField.Name, Reason: fmt.Sprintf("token is not in pool %s", a.BPT.Hex())}},
		}
	}

	tx, err := exitRequest(ctx, tc, state, ExitSingle, a.Amount, a.TokenOut, a.MaxSlippage)
	if err != nil {
		return nil, err
	}
	return []repertoire.Transactable{tx}, nil
}

func (s *strategies) withdrawRecovery(ctx context.Context, tc *repertoire.TxContext, a recoveryArgs) ([]repertoire.Transactable, error) {
	if isZero(a.Amount) {
		return nil, nil
	}
	state, err := inspect(ctx, tc, a.BPT)
	if err != nil {
		return nil, err
	}
	if !state.Recovery {
		return nil, domainErr(IDWithdrawRecovery, a.BPT, repertoire.ErrNotInRecoveryMode)
	}

	tx, err := exitRequest(ctx, tc, state, ExitRecovery, a.Amount, common.Address{}, decimal.Zero)
	if err != nil {
		return nil, err
	}
	return []repertoire.Transactable{tx}, nil
}

func (s *strategies) unstakeFromGauge(ctx context.Context, tc *repertoire.TxContext, a unstakeArgs) ([]repertoire.Transactable, error) {
	if isZero(a.Amount) {
		return nil, nil
	}
	tx, err := repertoire.Encode(a.Gauge, abis.BalancerGauge, "withdraw", a.Amount)
	if err != nil {
		return nil, err
	}
	return []repertoire.Transactable{tx}, nil
}

// gaugeBPT resolves the pool token staked in gauge, reading lp_token() only
// when no earlier step of the request recorded it.
func gaugeBPT(ctx context.Context, tc *repertoire.TxContext, gauge common.Address) (common.Address, error) {
	key := GaugeScratchKey(gauge)
	if bpt, ok := tc.Scratch.Address(Protocol, key); ok {
		return bpt, nil
	}
	bpt, err := chain.CallAddress(ctx, tc.Reader, gauge, abis.BalancerGauge, "lp_token")
	if err != nil {
		return common.Address{}, tc.Upstream(err)
	}
	tc.Scratch.Set(Protocol, key, bpt)
	return bpt, nil
}

// unstakeThen unstakes amount from gauge and appends the exit built by child
// for the gauge's BPT.
func unstakeThen(ctx context.Context, tc *repertoire.TxContext, gauge common.Address, amount *big.Int, childID string, childArgs func(bpt common.Address) repertoire.Args) ([]repertoire.Transactable, error) {
	if isZero(amount) {
		return nil, nil
	}
	txs, err := tc.Invoke(ctx, IDUnstakeFromGauge, repertoire.Args{gaugeField.Name: gauge, amountField.Name: amount})
	if err != nil {
		return nil, err
	}
	bpt, err := gaugeBPT(ctx, tc, gauge)
	if err != nil {
		return nil, err
	}
	child, err := tc.Invoke(ctx, childID, childArgs(bpt))
	if err != nil {
		return nil, err
	}
	return append(txs, child...), nil
}

func (s *strategies) exit21(ctx context.Context, tc *repertoire.TxContext, a gaugeProportionalArgs) ([]repertoire.Transactable, error) {
	return unstakeThen(ctx, tc, a.Gauge, a.Amount, IDWithdrawProportional, func(bpt common.Address) repertoire.Args {
		return repertoire.Args{bptField.Name: bpt, slippageField.Name: a.MaxSlippage, amountField.Name: a.Amount}
	})
}

func (s *strategies) exit22(ctx context.Context, tc *repertoire.TxContext, a gaugeSingleArgs) ([]repertoire.Transactable, error) {
	return unstakeThen(ctx, tc, a.Gauge, a.Amount, IDWithdrawSingle, func(bpt common.Address) repertoire.Args {
		return repertoire.Args{bptField.Name: bpt, slippageField.Name: a.MaxSlippage, tokenOutField.Name: a.TokenOut, amountField.Name: a.Amount}
	})
}

func (s *strategies) exit23(ctx context.Context, tc *repertoire.TxContext, a unstakeArgs) ([]repertoire.Transactable, error) {
	return unstakeThen(ctx, tc, a.Gauge, a.Amount, IDWithdrawRecovery, func(bpt common.Address) repertoire.Args {
		return repertoire.Args{bptField.Name: bpt, amountField.Name: a.Amount}
	})
}
