package swap

import (
	"context"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/chain"
)

// tokenOptions labels tokens with their curated symbols, sorted by label then address.
func tokenOptions(bc chain.Blockchain, tokens map[common.Address]struct{}) []repertoire.Option {
	out := make([]repertoire.Option, 0, len(tokens))
	for t := range tokens {
		out = append(out, repertoire.Option{Address: t.Hex(), Label: Symbol(bc, t)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Address < out[j].Address
	})
	return out
}

// curatedTokensIn offers every token traded in a curated pool of venue.
func curatedTokensIn(venue Venue) repertoire.BaseOptionsFunc {
	return func(ctx context.Context, bc chain.Blockchain) (repertoire.Options, error) {
		tokens := make(map[common.Address]struct{})
		for _, p := range Pools(bc, venue) {
			for _, t := range p.Tokens {
				tokens[t] = struct{}{}
			}
		}
		return repertoire.Options{tokenInField.Name: tokenOptions(bc, tokens)}, nil
	}
}

// curatedTokensOut narrows token out to the tokens sharing a pool with token in.
func curatedTokensOut(venue Venue) repertoire.OptionsFunc {
	base := curatedTokensIn(venue)
	return func(ctx context.Context, bc chain.Blockchain, partial repertoire.Args) (repertoire.Options, error) {
		tokenIn, ok := partial.Address(tokenInField.Name)
		if !ok {
			return base(ctx, bc)
		}
		tokens := make(map[common.Address]struct{})
		for _, p := range Pools(bc, venue) {
			if p.Index(tokenIn) < 0 {
				continue
			}
			for _, t := range p.Tokens {
				if t != tokenIn {
					tokens[t] = struct{}{}
				}
			}
		}
		return repertoire.Options{
			tokenInField.Name:  {{Address: tokenIn.Hex(), Label: Symbol(bc, tokenIn)}},
			tokenOutField.Name: tokenOptions(bc, tokens),
		}, nil
	}
}

// uniswapTokens offers the subgraph's most liquid tokens, in subgraph order.
func (s *strategies) uniswapTokens(ctx context.Context, bc chain.Blockchain) (repertoire.Options, error) {
	tokens, err := s.tokens.Tokens(ctx, bc)
	if err != nil {
		return nil, err
	}
	out := make([]repertoire.Option, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, repertoire.Option{Address: t.Address.Hex(), Label: t.Symbol})
	}
	return repertoire.Options{tokenInField.Name: out}, nil
}
