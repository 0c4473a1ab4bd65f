package datasource

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/karpatkey/defi-repertoire/chain"
)

// uniswapSubgraphs are the Uniswap V3 subgraph ids on The Graph's gateway.
var uniswapSubgraphs = map[uint64]string{
	chain.Ethereum.ChainID: "5zvR82QoaXYFyDEKLZ9t6v9adgnptxYpKpSbxtgVENFV",
}

const tokensQuery = `{
  tokens(first: 500, orderBy: totalValueLockedUSD, orderDirection: desc) {
    id
    symbol
    name
  }
}`

// UniswapSubgraphConfig configures a UniswapSubgraph source.
type UniswapSubgraphConfig struct {
	APIKey string
	// GatewayURL defaults to The Graph's arbitrum gateway.
	GatewayURL string
	HTTPClient *http.Client
}

// UniswapSubgraph lists the most liquid Uniswap V3 tokens of a chain.
type UniswapSubgraph struct {
	apiKey  string
	gateway string
	client  *graphqlClient
}

var _ TokenSource = (*UniswapSubgraph)(nil)

// NewUniswapSubgraph creates a token source backed by The Graph.
func NewUniswapSubgraph(cfg UniswapSubgraphConfig) *UniswapSubgraph {
	gateway := cfg.GatewayURL
	if gateway == "" {
		gateway = "https://gateway-arbitrum.network.thegraph.com"
	}
	return &UniswapSubgraph{
		apiKey:  cfg.APIKey,
		gateway: gateway,
		client:  newGraphQLClient("uniswap-subgraph", cfg.HTTPClient),
	}
}

// Tokens returns the tokens of bc by descending TVL. Chains without an
// indexed deployment have no tokens.
func (u *UniswapSubgraph) Tokens(ctx context.Context, bc chain.Blockchain) ([]Token, error) {
	id, ok := uniswapSubgraphs[bc.ChainID]
	if !ok {
		return []Token{}, nil
	}
	endpoint := fmt.Sprintf("%s/api/%s/subgraphs/id/%s", u.gateway, u.apiKey, id)

	var data struct {
		Tokens []struct {
			ID     string `json:"id"`
			Symbol string `json:"symbol"`
			Name   string `json:"name"`
		} `json:"tokens"`
	}
	if err := u.client.query(ctx, endpoint, tokensQuery, nil, &data); err != nil {
		return nil, err
	}

	tokens := make([]Token, 0, len(data.Tokens))
	for _, t := range data.Tokens {
		if !common.IsHexAddress(t.ID) {
			continue
		}
		tokens = append(tokens, Token{Address: common.HexToAddress(t.ID), Symbol: t.Symbol, Name: t.Name})
	}
	return tokens, nil
}
