package abis

var (
	ProxyRegistry = MustParse(`[
		{"type":"function","name":"proxies","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"address"}]}
	]`)

	DSProxy = MustParse(`[
		{"type":"function","name":"execute","stateMutability":"payable","inputs":[{"name":"_target","type":"address"},{"name":"_data","type":"bytes"}],"outputs":[{"name":"response","type":"bytes32"}]}
	]`)

	DsrProxyActions = MustParse(`[
		{"type":"function","name":"exit","stateMutability":"nonpayable","inputs":[{"name":"daiJoin","type":"address"},{"name":"pot","type":"address"},{"name":"wad","type":"uint256"}],"outputs":[]}
	]`)

	DsrManager = MustParse(`[
		{"type":"function","name":"exit","stateMutability":"nonpayable","inputs":[{"name":"dst","type":"address"},{"name":"wad","type":"uint256"}],"outputs":[]}
	]`)

	// ERC4626 covers the sDAI vault.
	ERC4626 = MustParse(`[
		{"type":"function","name":"redeem","stateMutability":"nonpayable","inputs":[{"name":"shares","type":"uint256"},{"name":"receiver","type":"address"},{"name":"owner","type":"address"}],"outputs":[{"name":"assets","type":"uint256"}]},
		{"type":"function","name":"previewRedeem","stateMutability":"view","inputs":[{"name":"shares","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}
	]`)
)
