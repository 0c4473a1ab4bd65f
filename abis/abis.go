// Package abis holds the parsed ABIs of every contract the strategies read
// from or encode calls for. Only the methods actually used are declared.
package abis

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// MustParse parses a JSON ABI and panics on malformed input.
func MustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("abis: " + err.Error())
	}
	return parsed
}

var (
	ERC20 = MustParse(`[
		{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
		{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
	]`)

	WrappedNative = MustParse(`[
		{"type":"function","name":"deposit","stateMutability":"payable","inputs":[],"outputs":[]},
		{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"wad","type":"uint256"}],"outputs":[]}
	]`)
)
