package chain

import "github.com/ethereum/go-ethereum/common"

// Contracts is the per-chain book of canonical contract addresses shared by
// several strategy packages. A zero address means the contract is not
// deployed on that chain.
type Contracts struct {
	WrappedNative   common.Address
	BalancerVault   common.Address
	BalancerQueries common.Address
	MultiSend       common.Address
	MultiSendCall   common.Address
}

var contracts = map[uint64]Contracts{
	Ethereum.ChainID: {
		WrappedNative:   common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		BalancerVault:   common.HexToAddress("0xBA12222222228d8Ba445958a75a0704d566BF2C8"),
		BalancerQueries: common.HexToAddress("0xE39B5e3B6D74016b2F6A9673D7d7493B6DF549d5"),
		MultiSend:       common.HexToAddress("0xA238CBeb142c10Ef7Ad8442C6D1f9E89e07e7761"),
		MultiSendCall:   common.HexToAddress("0x40A2aCCbd92BCA938b02010E17A5b8929b49130D"),
	},
	Gnosis.ChainID: {
		WrappedNative:   common.HexToAddress("0xe91D153E0b41518A2Ce8Dd3D7944Fa863463a97d"),
		BalancerVault:   common.HexToAddress("0xBA12222222228d8Ba445958a75a0704d566BF2C8"),
		BalancerQueries: common.HexToAddress("0x0F3e0c4218b7b0108a3643cFe9D3ec0d4F57c54e"),
		MultiSend:       common.HexToAddress("0xA238CBeb142c10Ef7Ad8442C6D1f9E89e07e7761"),
		MultiSendCall:   common.HexToAddress("0x40A2aCCbd92BCA938b02010E17A5b8929b49130D"),
	},
}

// ContractsFor returns the address book of b.
func ContractsFor(b Blockchain) (Contracts, error) {
	c, ok := contracts[b.ChainID]
	if !ok {
		return Contracts{}, ErrUnsupportedChain
	}
	return c, nil
}

// MustContracts is ContractsFor for chains already resolved through ByID or ByName.
func MustContracts(b Blockchain) Contracts {
	c, err := ContractsFor(b)
	if err != nil {
		panic(err)
	}
	return c
}
