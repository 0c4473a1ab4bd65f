package swap

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/karpatkey/defi-repertoire/chain"
)

// Venue is the exchange a curated pool lives on.
type Venue string

const (
	Curve     Venue = "curve"
	Balancer  Venue = "balancer"
	UniswapV3 Venue = "uniswapv3"
)

// Pool is a curated swap pool. Curve pools list their coins in on-chain index
// order, with chain.NativeToken standing for the native coin.
type Pool struct {
	Venue   Venue
	Name    string
	Address common.Address
	Tokens  []common.Address
	// Fee is the Uniswap V3 fee tier in hundredths of a basis point.
	Fee int64
}

// Index returns the position of token in the pool, or -1.
func (p Pool) Index(token common.Address) int {
	for i, t := range p.Tokens {
		if t == token {
			return i
		}
	}
	return -1
}

// Has reports whether both tokens trade in the pool.
func (p Pool) Has(a, b common.Address) bool {
	return p.Index(a) >= 0 && p.Index(b) >= 0
}

var (
	UniswapV3QuoterV2     = common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e")
	UniswapV3SwapRouter02 = common.HexToAddress("0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45")
)

// Mainnet tokens.
var (
	WETH   = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	StETH  = common.HexToAddress("0xae7ab96520DE3A18E5e111B5EaAb095312D7fE84")
	WstETH = common.HexToAddress("0x7f39C581F595B53c5cb19bD0b3f8dA6c935E2Ca0")
	DAI    = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	USDC   = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	USDT   = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	GNO    = common.HexToAddress("0x6810e776880C02933D47DB1b9fc05908e5386b96")
)

// Gnosis Chain tokens.
var (
	WXDAI        = common.HexToAddress("0xe91D153E0b41518A2Ce8Dd3D7944Fa863463a97d")
	GnosisUSDC   = common.HexToAddress("0xDDAfbb505ad214D7b80b1f830fcCc89B60fb7A83")
	GnosisUSDT   = common.HexToAddress("0x4ECaBa5870353805a9F068101A40E0f32ed605C6")
	GnosisGNO    = common.HexToAddress("0x9C58BAcC331c9aa871AFD802DB6379a98e80CEdb")
	GnosisCOW    = common.HexToAddress("0x177127622c4A00F3d409B75571e12cB3c8973d3c")
	GnosisWETH   = common.HexToAddress("0x6A023CCd1ff6F2045C3309768eAd9E68F978f6e1")
	GnosisWstETH = common.HexToAddress("0x6C76971f98945AE98dD7d4DFcA8711ebea946eA6")
)

var symbols = map[uint64]map[common.Address]string{
	chain.Ethereum.ChainID: {
		chain.NativeToken: "ETH",
		WETH:              "WETH",
		StETH:             "stETH",
		WstETH:            "wstETH",
		DAI:               "DAI",
		USDC:              "USDC",
		USDT:              "USDT",
		GNO:               "GNO",
	},
	chain.Gnosis.ChainID: {
		chain.NativeToken: "XDAI",
		WXDAI:             "WXDAI",
		GnosisUSDC:        "USDC",
		GnosisUSDT:        "USDT",
		GnosisGNO:         "GNO",
		GnosisCOW:         "COW",
		GnosisWETH:        "WETH",
		GnosisWstETH:      "wstETH",
	},
}

// Symbol returns the label of a curated token, falling back to its address.
func Symbol(bc chain.Blockchain, token common.Address) string {
	if s, ok := symbols[bc.ChainID][token]; ok {
		return s
	}
	return token.Hex()
}

var curated = map[uint64][]Pool{
	chain.Ethereum.ChainID: {
		{Venue: Curve, Name: "steth", Address: common.HexToAddress("0xDC24316b9AE028F1497c275EB9192a3Ea0f67022"), Tokens: []common.Address{chain.NativeToken, StETH}},
		{Venue: Curve, Name: "3pool", Address: common.HexToAddress("0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7"), Tokens: []common.Address{DAI, USDC, USDT}},
		{Venue: Balancer, Name: "B-stETH-STABLE", Address: common.HexToAddress("0x32296969Ef14EB0c6d29669C550D4a0449130230"), Tokens: []common.Address{WstETH, WETH}},
		{Venue: Balancer, Name: "B-80GNO-20WETH", Address: common.HexToAddress("0xF4C0DD9B82DA36C07605df83c8a416F11724d88b"), Tokens: []common.Address{GNO, WETH}},
		{Venue: UniswapV3, Name: "USDC/WETH 0.05%", Address: common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640"), Tokens: []common.Address{USDC, WETH}, Fee: 500},
		{Venue: UniswapV3, Name: "USDC/WETH 0.3%", Address: common.HexToAddress("0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8"), Tokens: []common.Address{USDC, WETH}, Fee: 3000},
		{Venue: UniswapV3, Name: "WETH/USDT 0.05%", Address: common.HexToAddress("0x11b815efB8f581194ae79006d24E0d814B7697F6"), Tokens: []common.Address{WETH, USDT}, Fee: 500},
		{Venue: UniswapV3, Name: "wstETH/WETH 0.01%", Address: common.HexToAddress("0x109830a1AAaD605BbF02a9dFA7B0B92EC2FB7dAa"), Tokens: []common.Address{WstETH, WETH}, Fee: 100},
		{Venue: UniswapV3, Name: "DAI/USDC 0.01%", Address: common.HexToAddress("0x5777d92f208679DB4b9778590Fa3CAB3aC9e2168"), Tokens: []common.Address{DAI, USDC}, Fee: 100},
	},
	chain.Gnosis.ChainID: {
		{Venue: Curve, Name: "x3pool", Address: common.HexToAddress("0x7f90122BF0700F9E7e1F688fe926940E8839F353"), Tokens: []common.Address{WXDAI, GnosisUSDC, GnosisUSDT}},
		{Venue: Balancer, Name: "B-50COW-50GNO", Address: common.HexToAddress("0x21d4c792Ea7E38e0D0819c2011A2b1Cb7252Bd99"), Tokens: []common.Address{GnosisCOW, GnosisGNO}},
		{Venue: Balancer, Name: "B-50wstETH-50WETH", Address: common.HexToAddress("0xbAd20c15A773bf03ab973302F61FAbceA5101f0A"), Tokens: []common.Address{GnosisWstETH, GnosisWETH}},
	},
}

// Pools returns the curated pools of venue on bc.
func Pools(bc chain.Blockchain, venue Venue) []Pool {
	var out []Pool
	for _, p := range curated[bc.ChainID] {
		if p.Venue == venue {
			out = append(out, p)
		}
	}
	return out
}

// Candidates returns the pools of venue trading tokenIn for tokenOut. Balancer
// and Uniswap V3 pools hold the wrapped native token, so the native
// placeholder is matched as the wrapped token there.
func Candidates(bc chain.Blockchain, venue Venue, tokenIn, tokenOut common.Address) []Pool {
	if venue != Curve {
		tokenIn, tokenOut = wrapped(bc, tokenIn), wrapped(bc, tokenOut)
	}
	var out []Pool
	for _, p := range Pools(bc, venue) {
		if p.Has(tokenIn, tokenOut) {
			out = append(out, p)
		}
	}
	return out
}

func wrapped(bc chain.Blockchain, token common.Address) common.Address {
	if token == chain.NativeToken {
		return chain.MustContracts(bc).WrappedNative
	}
	return token
}
