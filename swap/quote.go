package swap

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/karpatkey/defi-repertoire/abis"
	"github.com/karpatkey/defi-repertoire/balancer"
	"github.com/karpatkey/defi-repertoire/chain"
)

const defaultMaxConcurrentQuotes = 4

// QuoteRequest is one swap to price against a set of candidate pools.
type QuoteRequest struct {
	Chain    chain.Blockchain
	Avatar   common.Address
	TokenIn  common.Address
	TokenOut common.Address
	Amount   *big.Int
}

// QuoteFunc prices req on every pool. Results are positional: amounts[i] and
// errs[i] belong to pools[i].
type QuoteFunc func(ctx context.Context, r chain.Reader, pools []Pool, req QuoteRequest) (amounts []*big.Int, errs []error)

// NewQuoter returns a QuoteFunc that runs at most maxConcurrentCalls quotes at
// once across all callers.
func NewQuoter(maxConcurrentCalls int) QuoteFunc {
	if maxConcurrentCalls <= 0 {
		maxConcurrentCalls = defaultMaxConcurrentQuotes
	}
	semaphore := make(chan struct{}, maxConcurrentCalls)

	return func(ctx context.Context, r chain.Reader, pools []Pool, req QuoteRequest) ([]*big.Int, []error) {
		n := len(pools)
		if n == 0 {
			return nil, nil
		}

		amounts := make([]*big.Int, n)
		errs := make([]error, n)

		var wg sync.WaitGroup
		wg.Add(n)

		for i, p := range pools {
			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				for j := i; j < n; j++ {
					errs[j] = ctx.Err()
					wg.Done()
				}
				wg.Wait()
				return amounts, errs
			}

			go func(index int, pool Pool) {
				defer func() {
					<-semaphore
					wg.Done()
				}()

				if ctx.Err() != nil {
					errs[index] = ctx.Err()
					return
				}
				out, err := quote(ctx, r, pool, req)
				if err != nil {
					errs[index] = err
					return
				}
				amounts[index] = out
			}(i, p)
		}

		wg.Wait()
		return amounts, errs
	}
}

// quote performs the venue-specific read for a single pool.
func quote(ctx context.Context, r chain.Reader, p Pool, req QuoteRequest) (*big.Int, error) {
	switch p.Venue {
	case Curve:
		i, j := p.Index(req.TokenIn), p.Index(req.TokenOut)
		if i < 0 || j < 0 {
			return nil, fmt.Errorf("pool %s does not trade the pair", p.Name)
		}
		return chain.CallBigInt(ctx, r, p.Address, abis.CurvePool, "get_dy", big.NewInt(int64(i)), big.NewInt(int64(j)), req.Amount)

	case UniswapV3:
		params := abis.QuoteExactInputSingleParams{
			TokenIn:           wrapped(req.Chain, req.TokenIn),
			TokenOut:          wrapped(req.Chain, req.TokenOut),
			AmountIn:          req.Amount,
			Fee:               big.NewInt(p.Fee),
			SqrtPriceLimitX96: new(big.Int),
		}
		return chain.CallBigInt(ctx, r, UniswapV3QuoterV2, abis.UniswapV3Quoter, "quoteExactInputSingle", params)

	case Balancer:
		poolID, err := balancer.PoolID(ctx, r, p.Address)
		if err != nil {
			return nil, err
		}
		single, funds := balancerSwap(poolID, req)
		return chain.CallBigInt(ctx, r, chain.MustContracts(req.Chain).BalancerQueries, abis.BalancerQueries, "querySwap", single, funds)
	}
	return nil, fmt.Errorf("unknown venue %q", p.Venue)
}

// balancerSwap builds the GIVEN_IN swap tuples shared by querySwap and swap.
func balancerSwap(poolID [32]byte, req QuoteRequest) (abis.SingleSwap, abis.FundManagement) {
	return abis.SingleSwap{
			PoolId:   poolID,
			Kind:     0,
			AssetIn:  wrapped(req.Chain, req.TokenIn),
			AssetOut: wrapped(req.Chain, req.TokenOut),
			Amount:   req.Amount,
			UserData: []byte{},
		}, abis.FundManagement{
			Sender:    req.Avatar,
			Recipient: req.Avatar,
		}
}

// best returns the index of the largest successful quote, the first one on
// ties. When no pool could be quoted it returns the first error. n is the
// number of pools quoted; results of any other length are rejected.
func best(n int, amounts []*big.Int, errs []error) (int, error) {
	if len(amounts) != n || len(errs) != n {
		return -1, fmt.Errorf("quote returned %d amounts and %d errors for %d pools", len(amounts), len(errs), n)
	}
	idx := -1
	var firstErr error
	for i, a := range amounts {
		if errs[i] == nil && a == nil {
			errs[i] = fmt.Errorf("pool %d returned no quote", i)
		}
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		if idx < 0 || a.Cmp(amounts[idx]) > 0 {
			idx = i
		}
	}
	if idx < 0 {
		if firstErr == nil {
			firstErr = fmt.Errorf("no pools to quote")
		}
		return -1, firstErr
	}
	return idx, nil
}
