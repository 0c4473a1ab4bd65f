package datasource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/chain"
)

// --- Mock Infrastructure ---

const poolsResponse = `{"data":{"poolGetPools":[
  {
    "address":"0x21d4c792ea7e38e0d0819c2011a2b1cb7252bd99",
    "name":"50COW-50GNO","symbol":"50COW-50GNO",
    "poolTokens":[
      {"address":"0x177127622c4a00f3d409b75571e12cb3c8973d3c","symbol":"COW","name":"CoW Protocol Token"},
      {"address":"0x9c58bacc331c9aa871afd802db6379a98e80cedb","symbol":"GNO","name":"Gnosis Token"}
    ],
    "staking":{"gauge":{"gaugeAddress":"0x49b7c059bf0a71583918928d33c84dcb2aa001f8"},"aura":null},
    "dynamicData":{"totalLiquidity":"150000.5"}
  },
  {
    "address":"0xbad0000000000000000000000000000000000001",
    "name":"sDAI-3pool","symbol":"sDAI-3pool",
    "poolTokens":[
      {"address":"0xbad0000000000000000000000000000000000001","symbol":"sDAI-3pool","name":"BPT"},
      {"address":"0xaf204776c7245bf4147c2612bf6e5972ee483701","symbol":"sDAI","name":"Savings xDAI"}
    ],
    "staking":{"gauge":null,"aura":{"auraPoolAddress":"0x0000000000000000000000000000000000000abc"}},
    "dynamicData":{"totalLiquidity":"900000"}
  }
]}}`

type graphqlServer struct {
	*httptest.Server
	requests atomic.Int32
	lastBody atomic.Value
	lastPath atomic.Value
}

func newGraphQLServer(t *testing.T, status int, body string) *graphqlServer {
	t.Helper()
	s := &graphqlServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		var req graphqlRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.lastBody.Store(req)
		s.lastPath.Store(r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

type staticPools struct {
	calls atomic.Int32
	pools []Pool
}

func (s *staticPools) Pools(ctx context.Context, bc chain.Blockchain) ([]Pool, error) {
	s.calls.Add(1)
	return s.pools, nil
}

// --- Test Suite ---

func TestBalancerAPIPools(t *testing.T) {
	ctx := context.Background()

	t.Run("DecodesAndSortsByTVL", func(t *testing.T) {
		srv := newGraphQLServer(t, http.StatusOK, poolsResponse)
		src := NewBalancerAPI(BalancerAPIConfig{Endpoint: srv.URL, MinTVL: 10000})

		pools, err := src.Pools(ctx, chain.Gnosis)
		require.NoError(t, err)
		require.Len(t, pools, 2)

		assert.Equal(t, common.HexToAddress("0xbad0000000000000000000000000000000000001"), pools[0].Address, "higher TVL first")
		require.Len(t, pools[0].Tokens, 1, "the pool's own BPT is excluded")
		assert.Equal(t, "sDAI", pools[0].Tokens[0].Symbol)
		assert.Equal(t, common.HexToAddress("0xabc"), pools[0].AuraRewards)
		assert.Equal(t, common.Address{}, pools[0].Gauge)

		cowGno := pools[1]
		assert.Equal(t, "50COW-50GNO", cowGno.Name)
		assert.Len(t, cowGno.Tokens, 2)
		assert.Equal(t, common.HexToAddress("0x49b7c059bf0a71583918928d33c84dcb2aa001f8"), cowGno.Gauge)
		assert.Equal(t, "150000.5", cowGno.TVL.String())

		req := srv.lastBody.Load().(graphqlRequest)
		assert.Contains(t, req.Query, "poolGetPools")
		assert.Equal(t, []any{"GNOSIS"}, req.Variables["chains"])
		assert.EqualValues(t, 10000, req.Variables["minTvl"])
	})

	t.Run("UnsupportedChainIsNotFound", func(t *testing.T) {
		src := NewBalancerAPI(BalancerAPIConfig{Endpoint: "http://127.0.0.1:0"})
		_, err := src.Pools(ctx, chain.Blockchain{Name: "polygon", ChainID: 137})
		var nf *repertoire.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "chain", nf.Kind)
	})

	t.Run("HTTPFailureIsUpstream", func(t *testing.T) {
		srv := newGraphQLServer(t, http.StatusBadGateway, "bad gateway")
		src := NewBalancerAPI(BalancerAPIConfig{Endpoint: srv.URL})
		_, err := src.Pools(ctx, chain.Ethereum)
		var up *repertoire.UpstreamError
		require.ErrorAs(t, err, &up)
		assert.Equal(t, "balancer-api", up.Source)
		assert.Contains(t, err.Error(), "status 502")
	})

	t.Run("GraphQLErrorsAreUpstream", func(t *testing.T) {
		srv := newGraphQLServer(t, http.StatusOK, `{"data":null,"errors":[{"message":"unknown chain"}]}`)
		src := NewBalancerAPI(BalancerAPIConfig{Endpoint: srv.URL})
		_, err := src.Pools(ctx, chain.Ethereum)
		assert.Equal(t, "upstream", repertoire.ErrorKind(err))
		assert.Contains(t, err.Error(), "unknown chain")
	})
}

func TestUniswapSubgraphTokens(t *testing.T) {
	ctx := context.Background()
	srv := newGraphQLServer(t, http.StatusOK, `{"data":{"tokens":[
		{"id":"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2","symbol":"WETH","name":"Wrapped Ether"},
		{"id":"not-an-address","symbol":"BAD","name":"Bad"},
		{"id":"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48","symbol":"USDC","name":"USD Coin"}
	]}}`)
	src := NewUniswapSubgraph(UniswapSubgraphConfig{APIKey: "secret", GatewayURL: srv.URL})

	tokens, err := src.Tokens(ctx, chain.Ethereum)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "WETH", tokens[0].Symbol)
	assert.Equal(t, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", tokens[1].Address.Hex())

	path := srv.lastPath.Load().(string)
	assert.True(t, strings.HasPrefix(path, "/api/secret/subgraphs/id/"), path)

	tokens, err = src.Tokens(ctx, chain.Gnosis)
	require.NoError(t, err)
	assert.Empty(t, tokens)
	assert.EqualValues(t, 1, srv.requests.Load(), "no subgraph query for gnosis")
}

func TestCachedPoolsMemoizesPerChain(t *testing.T) {
	src := &staticPools{pools: []Pool{{Address: common.HexToAddress("0x1")}}}
	cached, err := CachedPools(src, CacheConfig{Fresh: time.Minute, Stale: time.Hour})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		pools, err := cached.Pools(context.Background(), chain.Ethereum)
		require.NoError(t, err)
		assert.Len(t, pools, 1)
	}
	_, err = cached.Pools(context.Background(), chain.Gnosis)
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load())

	_, err = CachedPools(src, CacheConfig{Fresh: time.Hour, Stale: time.Minute})
	assert.Error(t, err)
}

func TestFindHelpers(t *testing.T) {
	gauge := common.HexToAddress("0x2")
	rewards := common.HexToAddress("0x3")
	pools := []Pool{
		{Address: common.HexToAddress("0x10")},
		{Address: common.HexToAddress("0x11"), Gauge: gauge, AuraRewards: rewards},
	}

	p, ok := FindPool(pools, common.HexToAddress("0x11"))
	require.True(t, ok)
	assert.Equal(t, gauge, p.Gauge)

	p, ok = FindByGauge(pools, gauge)
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress("0x11"), p.Address)

	_, ok = FindByAuraRewards(pools, rewards)
	assert.True(t, ok)

	_, ok = FindByGauge(pools, common.Address{})
	assert.False(t, ok, "the zero gauge never matches")

	_, ok = FindPool(pools, common.HexToAddress("0x99"))
	assert.False(t, ok)
}
