// Package swap encodes single-hop swaps on Balancer, Curve and Uniswap V3
// against a curated table of pools. Every candidate pool for the pair is
// quoted and the best one is the pool that gets encoded.
package swap

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/abis"
	"github.com/karpatkey/defi-repertoire/balancer"
	"github.com/karpatkey/defi-repertoire/chain"
	"github.com/karpatkey/defi-repertoire/datasource"
)

const (
	IDSwapOnBalancer  = "balancer__swap_on_balancer"
	IDSwapOnCurve     = "curve__swap_on_curve"
	IDSwapOnUniswapV3 = "uniswapv3__swap_on_uniswapv3"
)

// Deadline is how long a swap stays executable after it is built.
const Deadline = 10 * time.Minute

var (
	tokenInField = repertoire.Field{
		Name: "token_in_address", Type: repertoire.AddressField, Required: true,
		Description: "Token to sell. The native coin placeholder is wrapped where the venue requires it.",
	}
	tokenOutField = repertoire.Field{
		Name: "token_out_address", Type: repertoire.AddressField, Required: true,
		Description: "Token to buy.",
	}
	amountField = repertoire.Field{
		Name: "amount", Type: repertoire.AmountField, Required: true,
		Description: "Amount of token in to sell, in base units.",
	}
	slippageField = repertoire.Field{
		Name: "max_slippage", Type: repertoire.PercentageField, Required: true,
		Description: "Maximum accepted slippage against the best quote, in percent.",
	}

	swapFields = repertoire.Schema{tokenInField, tokenOutField, amountField, slippageField}
)

type swapArgs struct {
	TokenIn     common.Address  `mapstructure:"token_in_address"`
	TokenOut    common.Address  `mapstructure:"token_out_address"`
	Amount      *big.Int        `mapstructure:"amount"`
	MaxSlippage decimal.Decimal `mapstructure:"max_slippage"`
}

// Deps are the collaborators of the swap strategies.
type Deps struct {
	// Tokens feeds the Uniswap V3 token options. Nil disables them.
	Tokens datasource.TokenSource
	// Quote prices candidate pools. Nil means NewQuoter(MaxConcurrentQuotes).
	Quote               QuoteFunc
	MaxConcurrentQuotes int
}

type strategies struct {
	tokens datasource.TokenSource
	quote  QuoteFunc
}

// Register adds the swap strategies to reg.
func Register(reg *repertoire.Registry, deps Deps) error {
	s := &strategies{tokens: deps.Tokens, quote: deps.Quote}
	if s.quote == nil {
		s.quote = NewQuoter(deps.MaxConcurrentQuotes)
	}

	onBalancer := repertoire.Define(repertoire.Meta{
		Protocol:    "balancer",
		Name:        "swap_on_balancer",
		Label:       "Swap on Balancer",
		Kind:        repertoire.Swap,
		Description: "Make a swap on Balancer with best amount out.",
		Fields:      swapFields,
	}, s.swapOnBalancer).
		WithBaseOptions(curatedTokensIn(Balancer)).
		WithOptions(curatedTokensOut(Balancer))

	onCurve := repertoire.Define(repertoire.Meta{
		Protocol:    "curve",
		Name:        "swap_on_curve",
		Label:       "Swap on Curve",
		Kind:        repertoire.Swap,
		Description: "Make a swap on Curve with best amount out.",
		Fields:      swapFields,
	}, s.swapOnCurve).
		WithBaseOptions(curatedTokensIn(Curve)).
		WithOptions(curatedTokensOut(Curve))

	onUniswap := repertoire.Define(repertoire.Meta{
		Protocol:    "uniswapv3",
		Name:        "swap_on_uniswapv3",
		Label:       "Swap on UniswapV3",
		Kind:        repertoire.Swap,
		Description: "Make a swap on UniswapV3 with best amount out.",
		Chains:      []chain.Blockchain{chain.Ethereum},
		Fields:      swapFields,
	}, s.swapOnUniswapV3)
	if s.tokens != nil {
		onUniswap.WithBaseOptions(s.uniswapTokens)
	}

	for _, st := range []repertoire.Strategy{onBalancer, onCurve, onUniswap} {
		if err := reg.Register(st); err != nil {
			return err
		}
	}
	return nil
}

// selection is the winning pool of a quote round.
type selection struct {
	pool   Pool
	minOut *big.Int
}

// selectPool quotes every candidate of venue and applies slippage to the best.
func (s *strategies) selectPool(ctx context.Context, tc *repertoire.TxContext, id string, venue Venue, a swapArgs) (selection, error) {
	if a.TokenIn == a.TokenOut {
		return selection{}, &repertoire.ValidationError{StrategyID: id, Fields: []repertoire.FieldError{
			{Field: tokenOutField.Name, Reason: "must differ from token_in_address"},
		}}
	}
	pools := Candidates(tc.Chain, venue, a.TokenIn, a.TokenOut)
	if len(pools) == 0 {
		return selection{}, &repertoire.DomainError{
			StrategyID: id,
			Step:       Symbol(tc.Chain, a.TokenIn) + " -> " + Symbol(tc.Chain, a.TokenOut),
			Err:        repertoire.ErrNoSwapPool,
		}
	}

	amounts, errs := s.quote(ctx, tc.Reader, pools, QuoteRequest{
		Chain:    tc.Chain,
		Avatar:   tc.Avatar,
		TokenIn:  a.TokenIn,
		TokenOut: a.TokenOut,
		Amount:   a.Amount,
	})
	idx, err := best(len(pools), amounts, errs)
	if err != nil {
		return selection{}, tc.Upstream(err)
	}
	return selection{pool: pools[idx], minOut: repertoire.ApplySlippage(amounts[idx], a.MaxSlippage)}, nil
}

func isZero(amount *big.Int) bool {
	return amount == nil || amount.Sign() <= 0
}

// wrapNative deposits amount of the native coin into the wrapped token.
func wrapNative(bc chain.Blockchain, amount *big.Int) (repertoire.Transactable, error) {
	return repertoire.EncodePayable(chain.MustContracts(bc).WrappedNative, amount, abis.WrappedNative, "deposit")
}

// prepareERC20 wraps a native token in and returns the ERC-20 addresses to
// trade with, plus the wrap step when one is needed.
func prepareERC20(bc chain.Blockchain, a swapArgs) (tokenIn, tokenOut common.Address, steps []repertoire.Transactable, err error) {
	tokenIn, tokenOut = wrapped(bc, a.TokenIn), wrapped(bc, a.TokenOut)
	if a.TokenIn == chain.NativeToken {
		wrap, err := wrapNative(bc, a.Amount)
		if err != nil {
			return common.Address{}, common.Address{}, nil, err
		}
		steps = append(steps, wrap)
	}
	return tokenIn, tokenOut, steps, nil
}

func (s *strategies) swapOnBalancer(ctx context.Context, tc *repertoire.TxContext, a swapArgs) ([]repertoire.Transactable, error) {
	if isZero(a.Amount) {
		return nil, nil
	}
	sel, err := s.selectPool(ctx, tc, IDSwapOnBalancer, Balancer, a)
	if err != nil {
		return nil, err
	}
	poolID, err := balancer.PoolID(ctx, tc.Reader, sel.pool.Address)
	if err != nil {
		return nil, tc.Upstream(err)
	}

	tokenIn, _, txs, err := prepareERC20(tc.Chain, a)
	if err != nil {
		return nil, err
	}
	vault := chain.MustContracts(tc.Chain).BalancerVault
	approve, err := repertoire.Encode(tokenIn, abis.ERC20, "approve", vault, a.Amount)
	if err != nil {
		return nil, err
	}
	single, funds := balancerSwap(poolID, QuoteRequest{Chain: tc.Chain, Avatar: tc.Avatar, TokenIn: a.TokenIn, TokenOut: a.TokenOut, Amount: a.Amount})
	swap, err := repertoire.Encode(vault, abis.BalancerVault, "swap", single, funds, sel.minOut, deadline(tc))
	if err != nil {
		return nil, err
	}
	return append(txs, approve, swap), nil
}

func (s *strategies) swapOnCurve(ctx context.Context, tc *repertoire.TxContext, a swapArgs) ([]repertoire.Transactable, error) {
	if isZero(a.Amount) {
		return nil, nil
	}
	sel, err := s.selectPool(ctx, tc, IDSwapOnCurve, Curve, a)
	if err != nil {
		return nil, err
	}
	pool := sel.pool
	i, j := big.NewInt(int64(pool.Index(a.TokenIn))), big.NewInt(int64(pool.Index(a.TokenOut)))

	if a.TokenIn == chain.NativeToken {
		exchange, err := repertoire.EncodePayable(pool.Address, a.Amount, abis.CurvePool, "exchange", i, j, a.Amount, sel.minOut)
		if err != nil {
			return nil, err
		}
		return []repertoire.Transactable{exchange}, nil
	}

	approve, err := repertoire.Encode(a.TokenIn, abis.ERC20, "approve", pool.Address, a.Amount)
	if err != nil {
		return nil, err
	}
	exchange, err := repertoire.Encode(pool.Address, abis.CurvePool, "exchange", i, j, a.Amount, sel.minOut)
	if err != nil {
		return nil, err
	}
	return []repertoire.Transactable{approve, exchange}, nil
}

func (s *strategies) swapOnUniswapV3(ctx context.Context, tc *repertoire.TxContext, a swapArgs) ([]repertoire.Transactable, error) {
	if isZero(a.Amount) {
		return nil, nil
	}
	sel, err := s.selectPool(ctx, tc, IDSwapOnUniswapV3, UniswapV3, a)
	if err != nil {
		return nil, err
	}

	tokenIn, tokenOut, txs, err := prepareERC20(tc.Chain, a)
	if err != nil {
		return nil, err
	}
	approve, err := repertoire.Encode(tokenIn, abis.ERC20, "approve", UniswapV3SwapRouter02, a.Amount)
	if err != nil {
		return nil, err
	}
	swap, err := repertoire.Encode(UniswapV3SwapRouter02, abis.UniswapV3Router, "exactInputSingle", abis.ExactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		Fee:               big.NewInt(sel.pool.Fee),
		Recipient:         tc.Avatar,
		AmountIn:          a.Amount,
		AmountOutMinimum:  sel.minOut,
		SqrtPriceLimitX96: new(big.Int),
	})
	if err != nil {
		return nil, err
	}
	return append(txs, approve, swap), nil
}

func deadline(tc *repertoire.TxContext) *big.Int {
	return big.NewInt(tc.Now().Add(Deadline).Unix())
}
