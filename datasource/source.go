package datasource

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/karpatkey/defi-repertoire/cache"
	"github.com/karpatkey/defi-repertoire/chain"
)

// Token is an ERC-20 listed by a catalogue.
type Token struct {
	Address common.Address
	Symbol  string
	Name    string
}

// Pool is a Balancer pool with its staking venues.
type Pool struct {
	Address common.Address
	Name    string
	Symbol  string
	// Tokens are the underlying tokens, the pool's own BPT excluded.
	Tokens []Token
	// Gauge is the Balancer liquidity gauge; zero when the pool is not staked.
	Gauge common.Address
	// AuraRewards is the Aura BaseRewardPool; zero when the pool has no Aura staking.
	AuraRewards common.Address
	TVL         decimal.Decimal
}

// PoolSource lists the pools of a chain.
type PoolSource interface {
	Pools(ctx context.Context, bc chain.Blockchain) ([]Pool, error)
}

// TokenSource lists the tradable tokens of a chain.
type TokenSource interface {
	Tokens(ctx context.Context, bc chain.Blockchain) ([]Token, error)
}

// CacheConfig sets the stale-while-revalidate windows of cached sources.
type CacheConfig struct {
	Fresh   time.Duration
	Stale   time.Duration
	Metrics *cache.Metrics
	Logger  cache.Logger
	Clock   func() time.Time
}

func (c CacheConfig) options(name string) []cache.Option {
	var opts []cache.Option
	if c.Metrics != nil {
		opts = append(opts, cache.WithMetrics(c.Metrics, name))
	}
	if c.Logger != nil {
		opts = append(opts, cache.WithLogger(c.Logger))
	}
	if c.Clock != nil {
		opts = append(opts, cache.WithClock(c.Clock))
	}
	return opts
}

type cachedPools struct {
	c *cache.SWR[chain.Blockchain, []Pool]
}

// CachedPools memoizes src per chain.
func CachedPools(src PoolSource, cfg CacheConfig) (PoolSource, error) {
	c, err := cache.New(src.Pools, cfg.Fresh, cfg.Stale, cfg.options("pools")...)
	if err != nil {
		return nil, err
	}
	return &cachedPools{c: c}, nil
}

func (p *cachedPools) Pools(ctx context.Context, bc chain.Blockchain) ([]Pool, error) {
	return p.c.Get(ctx, bc)
}

type cachedTokens struct {
	c *cache.SWR[chain.Blockchain, []Token]
}

// CachedTokens memoizes src per chain.
func CachedTokens(src TokenSource, cfg CacheConfig) (TokenSource, error) {
	c, err := cache.New(src.Tokens, cfg.Fresh, cfg.Stale, cfg.options("tokens")...)
	if err != nil {
		return nil, err
	}
	return &cachedTokens{c: c}, nil
}

func (t *cachedTokens) Tokens(ctx context.Context, bc chain.Blockchain) ([]Token, error) {
	return t.c.Get(ctx, bc)
}

// FindPool looks a pool up by BPT address.
func FindPool(pools []Pool, addr common.Address) (Pool, bool) {
	for _, p := range pools {
		if p.Address == addr {
			return p, true
		}
	}
	return Pool{}, false
}

// FindByGauge looks a pool up by gauge address.
func FindByGauge(pools []Pool, gauge common.Address) (Pool, bool) {
	for _, p := range pools {
		if p.Gauge != (common.Address{}) && p.Gauge == gauge {
			return p, true
		}
	}
	return Pool{}, false
}

// FindByAuraRewards looks a pool up by Aura rewards contract.
func FindByAuraRewards(pools []Pool, rewards common.Address) (Pool, bool) {
	for _, p := range pools {
		if p.AuraRewards != (common.Address{}) && p.AuraRewards == rewards {
			return p, true
		}
	}
	return Pool{}, false
}
