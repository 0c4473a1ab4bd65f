package abis

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	CurvePool = MustParse(`[
		{"type":"function","name":"get_dy","stateMutability":"view","inputs":[{"name":"i","type":"int128"},{"name":"j","type":"int128"},{"name":"dx","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
		{"type":"function","name":"exchange","stateMutability":"payable","inputs":[{"name":"i","type":"int128"},{"name":"j","type":"int128"},{"name":"dx","type":"uint256"},{"name":"min_dy","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}
	]`)

	UniswapV3Quoter = MustParse(`[
		{"type":"function","name":"quoteExactInputSingle","stateMutability":"nonpayable","inputs":[
			{"name":"params","type":"tuple","components":[
				{"name":"tokenIn","type":"address"},
				{"name":"tokenOut","type":"address"},
				{"name":"amountIn","type":"uint256"},
				{"name":"fee","type":"uint24"},
				{"name":"sqrtPriceLimitX96","type":"uint160"}
			]}
		],"outputs":[{"name":"amountOut","type":"uint256"},{"name":"sqrtPriceX96After","type":"uint160"},{"name":"initializedTicksCrossed","type":"uint32"},{"name":"gasEstimate","type":"uint256"}]}
	]`)

	UniswapV3Router = MustParse(`[
		{"type":"function","name":"exactInputSingle","stateMutability":"payable","inputs":[
			{"name":"params","type":"tuple","components":[
				{"name":"tokenIn","type":"address"},
				{"name":"tokenOut","type":"address"},
				{"name":"fee","type":"uint24"},
				{"name":"recipient","type":"address"},
				{"name":"amountIn","type":"uint256"},
				{"name":"amountOutMinimum","type":"uint256"},
				{"name":"sqrtPriceLimitX96","type":"uint160"}
			]}
		],"outputs":[{"name":"amountOut","type":"uint256"}]}
	]`)
)

// QuoteExactInputSingleParams mirrors QuoterV2's input tuple.
type QuoteExactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

// ExactInputSingleParams mirrors SwapRouter02's input tuple.
type ExactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}
