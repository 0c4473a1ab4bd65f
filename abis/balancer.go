package abis

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// BalancerPool covers the BPT methods shared by weighted, stable and composable stable pools.
	BalancerPool = MustParse(`[
		{"type":"function","name":"getPoolId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]},
		{"type":"function","name":"getPausedState","stateMutability":"view","inputs":[],"outputs":[{"name":"paused","type":"bool"},{"name":"pauseWindowEndTime","type":"uint256"},{"name":"bufferPeriodEndTime","type":"uint256"}]},
		{"type":"function","name":"inRecoveryMode","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
		{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
	]`)

	BalancerVault = MustParse(`[
		{"type":"function","name":"getPoolTokens","stateMutability":"view","inputs":[{"name":"poolId","type":"bytes32"}],"outputs":[{"name":"tokens","type":"address[]"},{"name":"balances","type":"uint256[]"},{"name":"lastChangeBlock","type":"uint256"}]},
		{"type":"function","name":"exitPool","stateMutability":"nonpayable","inputs":[
			{"name":"poolId","type":"bytes32"},
			{"name":"sender","type":"address"},
			{"name":"recipient","type":"address"},
			{"name":"request","type":"tuple","components":[
				{"name":"assets","type":"address[]"},
				{"name":"minAmountsOut","type":"uint256[]"},
				{"name":"userData","type":"bytes"},
				{"name":"toInternalBalance","type":"bool"}
			]}
		],"outputs":[]},
		{"type":"function","name":"swap","stateMutability":"payable","inputs":[
			{"name":"singleSwap","type":"tuple","components":[
				{"name":"poolId","type":"bytes32"},
				{"name":"kind","type":"uint8"},
				{"name":"assetIn","type":"address"},
				{"name":"assetOut","type":"address"},
				{"name":"amount","type":"uint256"},
				{"name":"userData","type":"bytes"}
			]},
			{"name":"funds","type":"tuple","components":[
				{"name":"sender","type":"address"},
				{"name":"fromInternalBalance","type":"bool"},
				{"name":"recipient","type":"address"},
				{"name":"toInternalBalance","type":"bool"}
			]},
			{"name":"limit","type":"uint256"},
			{"name":"deadline","type":"uint256"}
		],"outputs":[{"name":"amountCalculated","type":"uint256"}]}
	]`)

	BalancerQueries = MustParse(`[
		{"type":"function","name":"queryExit","stateMutability":"nonpayable","inputs":[
			{"name":"poolId","type":"bytes32"},
			{"name":"sender","type":"address"},
			{"name":"recipient","type":"address"},
			{"name":"request","type":"tuple","components":[
				{"name":"assets","type":"address[]"},
				{"name":"minAmountsOut","type":"uint256[]"},
				{"name":"userData","type":"bytes"},
				{"name":"toInternalBalance","type":"bool"}
			]}
		],"outputs":[{"name":"bptIn","type":"uint256"},{"name":"amountsOut","type":"uint256[]"}]},
		{"type":"function","name":"querySwap","stateMutability":"nonpayable","inputs":[
			{"name":"singleSwap","type":"tuple","components":[
				{"name":"poolId","type":"bytes32"},
				{"name":"kind","type":"uint8"},
				{"name":"assetIn","type":"address"},
				{"name":"assetOut","type":"address"},
				{"name":"amount","type":"uint256"},
				{"name":"userData","type":"bytes"}
			]},
			{"name":"funds","type":"tuple","components":[
				{"name":"sender","type":"address"},
				{"name":"fromInternalBalance","type":"bool"},
				{"name":"recipient","type":"address"},
				{"name":"toInternalBalance","type":"bool"}
			]}
		],"outputs":[{"name":"","type":"uint256"}]}
	]`)

	BalancerGauge = MustParse(`[
		{"type":"function","name":"lp_token","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
		{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"_value","type":"uint256"}],"outputs":[]},
		{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
	]`)

	AuraRewardPool = MustParse(`[
		{"type":"function","name":"asset","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
		{"type":"function","name":"withdrawAndUnwrap","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"},{"name":"claim","type":"bool"}],"outputs":[{"name":"","type":"bool"}]},
		{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
	]`)
)

// ExitPoolRequest mirrors the Vault's ExitPoolRequest tuple for ABI packing.
type ExitPoolRequest struct {
	Assets            []common.Address
	MinAmountsOut     []*big.Int
	UserData          []byte
	ToInternalBalance bool
}

// SingleSwap mirrors the Vault's SingleSwap tuple.
type SingleSwap struct {
	PoolId   [32]byte
	Kind     uint8
	AssetIn  common.Address
	AssetOut common.Address
	Amount   *big.Int
	UserData []byte
}

// FundManagement mirrors the Vault's FundManagement tuple.
type FundManagement struct {
	Sender              common.Address
	FromInternalBalance bool
	Recipient           common.Address
	ToInternalBalance   bool
}
