package repertoire

import (
	"context"
	"fmt"

	"github.com/karpatkey/defi-repertoire/chain"
)

// Kind groups strategies by purpose.
type Kind string

const (
	Disassembly Kind = "disassembly"
	Swap        Kind = "swap"
)

// Meta describes a strategy. It is immutable after registration.
type Meta struct {
	// Protocol and Name form the unique id "<protocol>__<name>".
	Protocol string
	Name     string
	// Label is the human readable title.
	Label       string
	Kind        Kind
	Description string
	// Chains restricts the strategy to the listed chains; nil means all.
	Chains []chain.Blockchain
	Fields Schema
}

// ID returns the registry key of the strategy.
func (m Meta) ID() string {
	return m.Protocol + "__" + m.Name
}

// Option is one candidate value for an address argument.
type Option struct {
	Address string `json:"address"`
	Label   string `json:"label"`
}

// Options maps argument names to their candidate values.
type Options map[string][]Option

// Strategy is a named, typed transaction recipe.
type Strategy interface {
	Meta() Meta
	// Execute encodes the ordered calls for already validated args.
	Execute(ctx context.Context, tc *TxContext, args Args) ([]Transactable, error)
	// BaseOptions returns the chain-wide candidates, or ErrOptionsUnsupported.
	BaseOptions(ctx context.Context, bc chain.Blockchain) (Options, error)
	// Options refines candidates from partial args, or returns ErrOptionsUnsupported.
	Options(ctx context.Context, bc chain.Blockchain, partial Args) (Options, error)
}

// HandlerFunc is the typed body of a strategy.
type HandlerFunc[A any] func(ctx context.Context, tc *TxContext, args A) ([]Transactable, error)

// BaseOptionsFunc resolves chain-wide option candidates.
type BaseOptionsFunc func(ctx context.Context, bc chain.Blockchain) (Options, error)

// OptionsFunc resolves option candidates narrowed by partial args.
type OptionsFunc func(ctx context.Context, bc chain.Blockchain, partial Args) (Options, error)

// Definition adapts a typed handler to the Strategy interface. A is a struct
// whose mapstructure tags name the schema fields.
type Definition[A any] struct {
	meta        Meta
	handler     HandlerFunc[A]
	baseOptions BaseOptionsFunc
	options     OptionsFunc
}

// Define creates a strategy from its metadata and typed handler.
func Define[A any](meta Meta, handler HandlerFunc[A]) *Definition[A] {
	return &Definition[A]{meta: meta, handler: handler}
}

// WithBaseOptions attaches the chain-wide options capability.
func (d *Definition[A]) WithBaseOptions(f BaseOptionsFunc) *Definition[A] {
	d.baseOptions = f
	return d
}

// WithOptions attaches the refined options capability.
func (d *Definition[A]) WithOptions(f OptionsFunc) *Definition[A] {
	d.options = f
	return d
}

func (d *Definition[A]) Meta() Meta {
	return d.meta
}

func (d *Definition[A]) Execute(ctx context.Context, tc *TxContext, args Args) ([]Transactable, error) {
	var typed A
	if err := args.Decode(&typed); err != nil {
		return nil, fmt.Errorf("strategy %q: decode arguments: %w", d.meta.ID(), err)
	}
	return d.handler(ctx, tc, typed)
}

func (d *Definition[A]) BaseOptions(ctx context.Context, bc chain.Blockchain) (Options, error) {
	if d.baseOptions == nil {
		return nil, ErrOptionsUnsupported
	}
	return d.baseOptions(ctx, bc)
}

func (d *Definition[A]) Options(ctx context.Context, bc chain.Blockchain, partial Args) (Options, error) {
	if d.options == nil {
		return nil, ErrOptionsUnsupported
	}
	return d.options(ctx, bc, partial)
}
