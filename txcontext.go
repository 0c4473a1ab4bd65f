package repertoire

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/karpatkey/defi-repertoire/chain"
)

// Scratch is per-request memory shared by the strategies of one composition,
// keyed by protocol and then by an arbitrary key.
type Scratch map[string]map[string]any

// Get returns the value stored under protocol/key.
func (s Scratch) Get(protocol, key string) (any, bool) {
	v, ok := s[protocol][key]
	return v, ok
}

// Set stores v under protocol/key.
func (s Scratch) Set(protocol, key string, v any) {
	m, ok := s[protocol]
	if !ok {
		m = make(map[string]any)
		s[protocol] = m
	}
	m[key] = v
}

// Address returns an address stored under protocol/key.
func (s Scratch) Address(protocol, key string) (common.Address, bool) {
	v, ok := s.Get(protocol, key)
	if !ok {
		return common.Address{}, false
	}
	addr, ok := v.(common.Address)
	return addr, ok
}

// TxContext carries everything a strategy needs for one request. It is not
// safe for concurrent use; a composition runs its steps sequentially.
type TxContext struct {
	Reader  chain.Reader
	Avatar  common.Address
	Chain   chain.Blockchain
	Scratch Scratch

	registry *Registry
	now      func() time.Time
	depth    int
}

// TxContextOption customises a TxContext.
type TxContextOption func(*TxContext)

// WithClock overrides the wall clock used for deadlines.
func WithClock(now func() time.Time) TxContextOption {
	return func(tc *TxContext) {
		tc.now = now
	}
}

// maxCompositionDepth bounds child invocations so a miswired strategy cannot recurse forever.
const maxCompositionDepth = 8

// NewTxContext resolves the chain from reader and normalises avatar.
func NewTxContext(ctx context.Context, reg *Registry, reader chain.Reader, avatar string, opts ...TxContextOption) (*TxContext, error) {
	addr, err := chain.ParseAddress(avatar)
	if err != nil {
		return nil, &ValidationError{Fields: []FieldError{{Field: "avatar_safe_address", Reason: err.Error()}}}
	}
	id, err := reader.ChainID(ctx)
	if err != nil {
		return nil, &UpstreamError{Source: "chain", Err: fmt.Errorf("chain id: %w", err)}
	}
	bc, err := chain.ByID(id.Uint64())
	if err != nil {
		return nil, &NotFoundError{Kind: "chain", Key: strconv.FormatUint(id.Uint64(), 10)}
	}

	tc := &TxContext{
		Reader:   reader,
		Avatar:   addr,
		Chain:    bc,
		Scratch:  make(Scratch),
		registry: reg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(tc)
	}
	return tc, nil
}

// Now returns the context clock's current time.
func (tc *TxContext) Now() time.Time {
	return tc.now()
}

// Invoke runs another registered strategy inside this context. The child sees
// and may extend the same Scratch. Args are trusted and not re-validated.
func (tc *TxContext) Invoke(ctx context.Context, id string, args Args) ([]Transactable, error) {
	if tc.registry == nil {
		return nil, fmt.Errorf("invoke %q: context has no registry", id)
	}
	if tc.depth >= maxCompositionDepth {
		return nil, fmt.Errorf("invoke %q: composition deeper than %d", id, maxCompositionDepth)
	}
	s, err := tc.registry.Get(id)
	if err != nil {
		return nil, err
	}
	tc.depth++
	defer func() { tc.depth-- }()
	return s.Execute(ctx, tc, args)
}

// Upstream wraps a chain read failure.
func (tc *TxContext) Upstream(err error) error {
	return &UpstreamError{Source: "chain:" + tc.Chain.Name, Err: err}
}
