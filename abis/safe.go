package abis

var (
	MultiSend = MustParse(`[
		{"type":"function","name":"multiSend","stateMutability":"payable","inputs":[{"name":"transactions","type":"bytes"}],"outputs":[]}
	]`)

	// RolesV1 is the Zodiac Roles modifier with numeric roles.
	RolesV1 = MustParse(`[
		{"type":"function","name":"execTransactionWithRole","stateMutability":"nonpayable","inputs":[
			{"name":"to","type":"address"},
			{"name":"value","type":"uint256"},
			{"name":"data","type":"bytes"},
			{"name":"operation","type":"uint8"},
			{"name":"role","type":"uint16"},
			{"name":"shouldRevert","type":"bool"}
		],"outputs":[{"name":"success","type":"bool"}]}
	]`)

	// RolesV2 is the Zodiac Roles modifier with bytes32 role keys.
	RolesV2 = MustParse(`[
		{"type":"function","name":"execTransactionWithRole","stateMutability":"nonpayable","inputs":[
			{"name":"to","type":"address"},
			{"name":"value","type":"uint256"},
			{"name":"data","type":"bytes"},
			{"name":"operation","type":"uint8"},
			{"name":"roleKey","type":"bytes32"},
			{"name":"shouldRevert","type":"bool"}
		],"outputs":[{"name":"success","type":"bool"}]}
	]`)
)
