package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const addressLength = 42

var (
	ErrAddressPrefix   = errors.New("address must start with 0x")
	ErrAddressLength   = fmt.Errorf("address must be of length %d", addressLength)
	ErrAddressHex      = errors.New("address is not valid hex")
	ErrAddressChecksum = errors.New("wrong address checksum")
)

// NativeToken is the placeholder used by swap arguments for the chain's native coin.
var NativeToken = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// ParseAddress parses a 0x-prefixed hex address. Mixed-case input must carry a
// valid EIP-55 checksum; all-lowercase or all-uppercase input is accepted as is.
// The result always renders in checksummed form through Hex().
func ParseAddress(s string) (common.Address, error) {
	if !strings.HasPrefix(s, "0x") {
		return common.Address{}, fmt.Errorf("%w: %q", ErrAddressPrefix, s)
	}
	if len(s) != addressLength {
		return common.Address{}, fmt.Errorf("%w: %q", ErrAddressLength, s)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrAddressHex, s)
	}
	addr := common.HexToAddress(s)
	if isMixedCase(s[2:]) && addr.Hex() != s {
		return common.Address{}, fmt.Errorf("%w: %s", ErrAddressChecksum, s)
	}
	return addr, nil
}

// Checksum normalises an address string to its EIP-55 form.
func Checksum(s string) (string, error) {
	addr, err := ParseAddress(s)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

func isMixedCase(hex string) bool {
	return strings.ToLower(hex) != hex && strings.ToUpper(hex) != hex
}
