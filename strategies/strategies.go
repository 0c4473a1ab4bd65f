// Package strategies registers every strategy package into one registry.
package strategies

import (
	"fmt"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/aura"
	"github.com/karpatkey/defi-repertoire/balancer"
	"github.com/karpatkey/defi-repertoire/datasource"
	"github.com/karpatkey/defi-repertoire/dsr"
	"github.com/karpatkey/defi-repertoire/lido"
	"github.com/karpatkey/defi-repertoire/spark"
	"github.com/karpatkey/defi-repertoire/swap"
)

// Deps are the shared collaborators handed to the strategy packages. Nil
// sources leave the strategies that need them without options.
type Deps struct {
	Pools               datasource.PoolSource
	Tokens              datasource.TokenSource
	MaxConcurrentQuotes int
}

// Register adds the full catalogue to reg, in a stable order.
func Register(reg *repertoire.Registry, deps Deps) error {
	steps := []struct {
		name     string
		register func() error
	}{
		{"balancer", func() error { return balancer.Register(reg, balancer.Deps{Pools: deps.Pools}) }},
		{"aura", func() error { return aura.Register(reg, aura.Deps{Pools: deps.Pools}) }},
		{"lido", func() error { return lido.Register(reg) }},
		{"dsr", func() error { return dsr.Register(reg) }},
		{"spark", func() error { return spark.Register(reg) }},
		{"swap", func() error {
			return swap.Register(reg, swap.Deps{Tokens: deps.Tokens, MaxConcurrentQuotes: deps.MaxConcurrentQuotes})
		}},
	}
	for _, step := range steps {
		if err := step.register(); err != nil {
			return fmt.Errorf("register %s strategies: %w", step.name, err)
		}
	}
	return nil
}

// NewRegistry returns a registry holding the full catalogue.
func NewRegistry(deps Deps) (*repertoire.Registry, error) {
	reg := repertoire.NewRegistry()
	if err := Register(reg, deps); err != nil {
		return nil, err
	}
	return reg, nil
}
