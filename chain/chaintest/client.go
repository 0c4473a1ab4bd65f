// Package chaintest provides an in-memory chain.Reader that answers eth_calls
// from handlers registered per contract method.
package chaintest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/karpatkey/defi-repertoire/chain"
)

// Handler receives the unpacked call inputs and returns the outputs to pack.
type Handler func(args []any) ([]any, error)

type route struct {
	to       common.Address
	selector [4]byte
}

type endpoint struct {
	method  abi.Method
	handler Handler
}

// Client is a fake chain.Reader. It is safe for concurrent use.
type Client struct {
	mu       sync.Mutex
	chainID  *big.Int
	routes   map[route]endpoint
	balances map[common.Address]*big.Int
	calls    map[route]int
}

var _ chain.Reader = (*Client)(nil)

// NewClient returns a client reporting chainID.
func NewClient(chainID uint64) *Client {
	return &Client{
		chainID:  new(big.Int).SetUint64(chainID),
		routes:   make(map[route]endpoint),
		balances: make(map[common.Address]*big.Int),
		calls:    make(map[route]int),
	}
}

// Handle registers h for calls of method on contract at to.
func (c *Client) Handle(to common.Address, contract abi.ABI, method string, h Handler) {
	m, ok := contract.Methods[method]
	if !ok {
		panic(fmt.Sprintf("chaintest: method %q not in abi", method))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[route{to: to, selector: [4]byte(m.ID)}] = endpoint{method: m, handler: h}
}

// Return registers a handler that always answers with outputs.
func (c *Client) Return(to common.Address, contract abi.ABI, method string, outputs ...any) {
	c.Handle(to, contract, method, func([]any) ([]any, error) { return outputs, nil })
}

// Revert registers a handler that always reverts.
func (c *Client) Revert(to common.Address, contract abi.ABI, method string) {
	c.Handle(to, contract, method, func([]any) ([]any, error) { return nil, chain.ErrExecutionReverted })
}

// SetBalance sets the native balance reported for account.
func (c *Client) SetBalance(account common.Address, balance *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[account] = balance
}

// CallCount returns how many times method was called on to.
func (c *Client) CallCount(to common.Address, contract abi.ABI, method string) int {
	m := contract.Methods[method]
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[route{to: to, selector: [4]byte(m.ID)}]
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

func (c *Client) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, fmt.Errorf("chaintest: malformed call")
	}
	r := route{to: *msg.To, selector: [4]byte(msg.Data[:4])}

	c.mu.Lock()
	ep, ok := c.routes[r]
	c.calls[r]++
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("chaintest: no handler for %s selector %x", msg.To.Hex(), msg.Data[:4])
	}

	args, err := ep.method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, fmt.Errorf("chaintest: unpack %s inputs: %w", ep.method.Name, err)
	}
	outputs, err := ep.handler(args)
	if err != nil {
		return nil, err
	}
	return ep.method.Outputs.Pack(outputs...)
}
