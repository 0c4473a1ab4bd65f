package chain

import (
	"errors"
	"strings"
)

// ErrUnsupportedChain is returned when a chain id or name is not in the supported table.
var ErrUnsupportedChain = errors.New("unsupported chain")

// Blockchain identifies one of the EVM chains the strategies can target.
type Blockchain struct {
	Name    string
	ChainID uint64
}

func (b Blockchain) String() string {
	return b.Name
}

var (
	Ethereum = Blockchain{Name: "ethereum", ChainID: 1}
	Gnosis   = Blockchain{Name: "gnosis", ChainID: 100}
)

var supported = []Blockchain{Ethereum, Gnosis}

// Supported returns every chain known to the module, in a stable order.
func Supported() []Blockchain {
	out := make([]Blockchain, len(supported))
	copy(out, supported)
	return out
}

// ByID resolves a chain from its EIP-155 chain id.
func ByID(id uint64) (Blockchain, error) {
	for _, b := range supported {
		if b.ChainID == id {
			return b, nil
		}
	}
	return Blockchain{}, ErrUnsupportedChain
}

// ByName resolves a chain from its lowercase name. "mainnet" is accepted as an alias of ethereum.
func ByName(name string) (Blockchain, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "mainnet" {
		n = Ethereum.Name
	}
	for _, b := range supported {
		if b.Name == n {
			return b, nil
		}
	}
	return Blockchain{}, ErrUnsupportedChain
}

// In reports whether b is one of chains. A nil list means every chain.
func (b Blockchain) In(chains []Blockchain) bool {
	if chains == nil {
		return true
	}
	for _, c := range chains {
		if c.ChainID == b.ChainID {
			return true
		}
	}
	return false
}
