package balancer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/chain"
	"github.com/karpatkey/defi-repertoire/datasource"
)

func poolLabel(p datasource.Pool) string {
	if p.Symbol != "" {
		return p.Symbol
	}
	return p.Name
}

// TokenOptions lists the underlying tokens of p.
func TokenOptions(p datasource.Pool) []repertoire.Option {
	out := make([]repertoire.Option, 0, len(p.Tokens))
	for _, t := range p.Tokens {
		out = append(out, repertoire.Option{Address: t.Address.Hex(), Label: t.Symbol})
	}
	return out
}

func (s *strategies) bptOptions(ctx context.Context, bc chain.Blockchain) (repertoire.Options, error) {
	pools, err := s.pools.Pools(ctx, bc)
	if err != nil {
		return nil, err
	}
	opts := make([]repertoire.Option, 0, len(pools))
	for _, p := range pools {
		opts = append(opts, repertoire.Option{Address: p.Address.Hex(), Label: poolLabel(p)})
	}
	return repertoire.Options{bptField.Name: opts}, nil
}

func (s *strategies) gaugeOptions(ctx context.Context, bc chain.Blockchain) (repertoire.Options, error) {
	pools, err := s.pools.Pools(ctx, bc)
	if err != nil {
		return nil, err
	}
	opts := make([]repertoire.Option, 0, len(pools))
	for _, p := range pools {
		if p.Gauge == (common.Address{}) {
			continue
		}
		opts = append(opts, repertoire.Option{Address: p.Gauge.Hex(), Label: poolLabel(p)})
	}
	return repertoire.Options{gaugeField.Name: opts}, nil
}

// bptTokenOptions narrows to the chosen pool and offers its tokens.
func (s *strategies) bptTokenOptions(ctx context.Context, bc chain.Blockchain, partial repertoire.Args) (repertoire.Options, error) {
	bpt, ok := partial.Address(bptField.Name)
	if !ok {
		return s.bptOptions(ctx, bc)
	}
	pools, err := s.pools.Pools(ctx, bc)
	if err != nil {
		return nil, err
	}
	p, ok := datasource.FindPool(pools, bpt)
	if !ok {
		return nil, &repertoire.NotFoundError{Kind: "pool", Key: bpt.Hex()}
	}
	return repertoire.Options{
		bptField.Name:      {{Address: p.Address.Hex(), Label: poolLabel(p)}},
		tokenOutField.Name: TokenOptions(p),
	}, nil
}

// gaugeTokenOptions narrows to the chosen gauge and offers its pool's tokens.
func (s *strategies) gaugeTokenOptions(ctx context.Context, bc chain.Blockchain, partial repertoire.Args) (repertoire.Options, error) {
	gauge, ok := partial.Address(gaugeField.Name)
	if !ok {
		return s.gaugeOptions(ctx, bc)
	}
	pools, err := s.pools.Pools(ctx, bc)
	if err != nil {
		return nil, err
	}
	p, ok := datasource.FindByGauge(pools, gauge)
	if !ok {
		return nil, &repertoire.NotFoundError{Kind: "pool", Key: gauge.Hex()}
	}
	return repertoire.Options{
		gaugeField.Name:    {{Address: p.Gauge.Hex(), Label: poolLabel(p)}},
		tokenOutField.Name: TokenOptions(p),
	}, nil
}
