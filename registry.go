package repertoire

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/karpatkey/defi-repertoire/chain"
)

// Registry is the set of known strategies keyed by id. Strategies are
// registered at startup and looked up concurrently afterwards.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	// order keeps registration order so listings are stable.
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds s. A duplicate id or a malformed schema is a ConfigurationError.
func (r *Registry) Register(s Strategy) error {
	meta := s.Meta()
	id := meta.ID()
	if meta.Protocol == "" || meta.Name == "" {
		return &ConfigurationError{StrategyID: id, Err: errors.New("protocol and name are required")}
	}
	if err := meta.Fields.check(); err != nil {
		return &ConfigurationError{StrategyID: id, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.strategies[id]; exists {
		return &ConfigurationError{StrategyID: id, Err: errors.New("already registered")}
	}
	r.strategies[id] = s
	r.order = append(r.order, id)
	return nil
}

// MustRegister registers every strategy and panics on the first failure.
func (r *Registry) MustRegister(ss ...Strategy) {
	for _, s := range ss {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Get returns the strategy registered under id.
func (r *Registry) Get(id string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[id]
	if !ok {
		return nil, &NotFoundError{Kind: "strategy", Key: id}
	}
	return s, nil
}

// List returns every strategy in registration order.
func (r *Registry) List() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Strategy, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.strategies[id])
	}
	return out
}

// ListFor returns the strategies available on bc, in registration order.
func (r *Registry) ListFor(bc chain.Blockchain) []Strategy {
	all := r.List()
	out := all[:0]
	for _, s := range all {
		if bc.In(s.Meta().Chains) {
			out = append(out, s)
		}
	}
	return out
}

// getFor returns the strategy id if it is available on bc.
func (r *Registry) getFor(id string, bc chain.Blockchain) (Strategy, error) {
	s, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if !bc.In(s.Meta().Chains) {
		return nil, &NotFoundError{Kind: "strategy", Key: fmt.Sprintf("%s on %s", id, bc.Name)}
	}
	return s, nil
}

// Validate checks raw against the strict schema of id.
func (r *Registry) Validate(id string, raw map[string]any) (Strategy, Args, error) {
	s, err := r.Get(id)
	if err != nil {
		return nil, nil, err
	}
	args, fieldErrs := s.Meta().Fields.Validate(raw)
	if len(fieldErrs) > 0 {
		return nil, nil, &ValidationError{StrategyID: id, Fields: fieldErrs}
	}
	return s, args, nil
}

// Compose validates raw strictly and runs strategy id in tc. Nothing touches
// the chain when validation fails.
func (r *Registry) Compose(ctx context.Context, tc *TxContext, id string, raw map[string]any) ([]Transactable, error) {
	s, err := r.getFor(id, tc.Chain)
	if err != nil {
		return nil, err
	}
	args, fieldErrs := s.Meta().Fields.Validate(raw)
	if len(fieldErrs) > 0 {
		return nil, &ValidationError{StrategyID: id, Fields: fieldErrs}
	}
	txs, err := s.Execute(ctx, tc, args)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []Transactable{}
	}
	return txs, nil
}

// BaseOptions returns the chain-wide options of id.
func (r *Registry) BaseOptions(ctx context.Context, bc chain.Blockchain, id string) (Options, error) {
	s, err := r.getFor(id, bc)
	if err != nil {
		return nil, err
	}
	return s.BaseOptions(ctx, bc)
}

// Options validates raw against the optional schema of id and returns the
// refined options.
func (r *Registry) Options(ctx context.Context, bc chain.Blockchain, id string, raw map[string]any) (Options, error) {
	s, err := r.getFor(id, bc)
	if err != nil {
		return nil, err
	}
	partial, fieldErrs := s.Meta().Fields.Optional().Validate(raw)
	if len(fieldErrs) > 0 {
		return nil, &ValidationError{StrategyID: id, Fields: fieldErrs}
	}
	return s.Options(ctx, bc, partial)
}
