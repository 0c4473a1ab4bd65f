package abis

var (
	WstETH = MustParse(`[
		{"type":"function","name":"getWstETHByStETH","stateMutability":"view","inputs":[{"name":"_stETHAmount","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}
	]`)

	LidoWithdrawalQueue = MustParse(`[
		{"type":"function","name":"requestWithdrawals","stateMutability":"nonpayable","inputs":[{"name":"_amounts","type":"uint256[]"},{"name":"_owner","type":"address"}],"outputs":[{"name":"requestIds","type":"uint256[]"}]},
		{"type":"function","name":"requestWithdrawalsWstETH","stateMutability":"nonpayable","inputs":[{"name":"_amounts","type":"uint256[]"},{"name":"_owner","type":"address"}],"outputs":[{"name":"requestIds","type":"uint256[]"}]}
	]`)
)
