package datasource

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/chain"
)

// DefaultBalancerAPI is the public Balancer v3 GraphQL endpoint.
const DefaultBalancerAPI = "https://api-v3.balancer.fi/graphql"

var balancerChains = map[uint64]string{
	chain.Ethereum.ChainID: "MAINNET",
	chain.Gnosis.ChainID:   "GNOSIS",
}

const poolsQuery = `query Pools($chains: [GqlChain!], $minTvl: Float) {
  poolGetPools(where: {chainIn: $chains, minTvl: $minTvl}, orderBy: totalLiquidity, orderDirection: desc) {
    address
    name
    symbol
    poolTokens { address symbol name }
    staking {
      gauge { gaugeAddress }
      aura { auraPoolAddress }
    }
    dynamicData { totalLiquidity }
  }
}`

type apiToken struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
}

type apiPool struct {
	Address    string     `json:"address"`
	Name       string     `json:"name"`
	Symbol     string     `json:"symbol"`
	PoolTokens []apiToken `json:"poolTokens"`
	Staking    *struct {
		Gauge *struct {
			GaugeAddress string `json:"gaugeAddress"`
		} `json:"gauge"`
		Aura *struct {
			AuraPoolAddress string `json:"auraPoolAddress"`
		} `json:"aura"`
	} `json:"staking"`
	DynamicData struct {
		TotalLiquidity string `json:"totalLiquidity"`
	} `json:"dynamicData"`
}

// BalancerAPIConfig configures a BalancerAPI source.
type BalancerAPIConfig struct {
	// Endpoint defaults to DefaultBalancerAPI.
	Endpoint string
	// MinTVL drops pools with less liquidity, in USD.
	MinTVL     float64
	HTTPClient *http.Client
}

// BalancerAPI lists Balancer pools with their gauges and Aura reward pools.
type BalancerAPI struct {
	endpoint string
	minTVL   float64
	client   *graphqlClient
}

var _ PoolSource = (*BalancerAPI)(nil)

// NewBalancerAPI creates a pool source backed by the Balancer API.
func NewBalancerAPI(cfg BalancerAPIConfig) *BalancerAPI {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultBalancerAPI
	}
	return &BalancerAPI{
		endpoint: endpoint,
		minTVL:   cfg.MinTVL,
		client:   newGraphQLClient("balancer-api", cfg.HTTPClient),
	}
}

// Pools returns the pools of bc sorted by descending TVL, then address.
func (b *BalancerAPI) Pools(ctx context.Context, bc chain.Blockchain) ([]Pool, error) {
	gqlChain, ok := balancerChains[bc.ChainID]
	if !ok {
		return nil, &repertoire.NotFoundError{Kind: "chain", Key: bc.Name}
	}

	var data struct {
		PoolGetPools []apiPool `json:"poolGetPools"`
	}
	vars := map[string]any{"chains": []string{gqlChain}, "minTvl": b.minTVL}
	if err := b.client.query(ctx, b.endpoint, poolsQuery, vars, &data); err != nil {
		return nil, err
	}

	pools := make([]Pool, 0, len(data.PoolGetPools))
	for _, p := range data.PoolGetPools {
		if !common.IsHexAddress(p.Address) {
			continue
		}
		pool := Pool{
			Address: common.HexToAddress(p.Address),
			Name:    p.Name,
			Symbol:  p.Symbol,
		}
		for _, t := range p.PoolTokens {
			if !common.IsHexAddress(t.Address) {
				continue
			}
			addr := common.HexToAddress(t.Address)
			// Composable stable pools list their own BPT.
			if addr == pool.Address {
				continue
			}
			pool.Tokens = append(pool.Tokens, Token{Address: addr, Symbol: t.Symbol, Name: t.Name})
		}
		if p.Staking != nil {
			if p.Staking.Gauge != nil && common.IsHexAddress(p.Staking.Gauge.GaugeAddress) {
				pool.Gauge = common.HexToAddress(p.Staking.Gauge.GaugeAddress)
			}
			if p.Staking.Aura != nil && common.IsHexAddress(p.Staking.Aura.AuraPoolAddress) {
				pool.AuraRewards = common.HexToAddress(p.Staking.Aura.AuraPoolAddress)
			}
		}
		if tvl, err := decimal.NewFromString(strings.TrimSpace(p.DynamicData.TotalLiquidity)); err == nil {
			pool.TVL = tvl
		}
		pools = append(pools, pool)
	}

	sort.SliceStable(pools, func(i, j int) bool {
		if !pools[i].TVL.Equal(pools[j].TVL) {
			return pools[i].TVL.GreaterThan(pools[j].TVL)
		}
		return strings.Compare(pools[i].Address.Hex(), pools[j].Address.Hex()) < 0
	})
	return pools, nil
}
