package multisend

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/abis"
)

var ErrInvalidRole = errors.New("invalid role")

// Role selects a role on a Roles modifier. Numeric roles address a Roles v1
// modifier and 32-byte keys a Roles v2 modifier.
type Role struct {
	number uint16
	key    [32]byte
	keyed  bool
}

// RoleNumber is a Roles v1 role.
func RoleNumber(n uint16) Role {
	return Role{number: n}
}

// RoleKey is a Roles v2 role key.
func RoleKey(k [32]byte) Role {
	return Role{key: k, keyed: true}
}

// ParseRole reads a role as given by a caller. Decimal integers are v1 roles,
// 0x-prefixed 32-byte hex is a v2 key, and any other text of at most 32 bytes
// is a v2 key holding that text right-padded with zeros.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Role{}, fmt.Errorf("%w: empty", ErrInvalidRole)
	}
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return RoleNumber(uint16(n)), nil
	}
	if strings.HasPrefix(s, "0x") && len(s) == 66 {
		b, err := hexutil.Decode(s)
		if err != nil {
			return Role{}, fmt.Errorf("%w: %v", ErrInvalidRole, err)
		}
		return RoleKey(common.BytesToHash(b)), nil
	}
	if len(s) > 32 {
		return Role{}, fmt.Errorf("%w: key %q is longer than 32 bytes", ErrInvalidRole, s)
	}
	var k [32]byte
	copy(k[:], s)
	return RoleKey(k), nil
}

// IsKey reports whether r is a Roles v2 key.
func (r Role) IsKey() bool {
	return r.keyed
}

func (r Role) String() string {
	if r.keyed {
		return hexutil.Encode(r.key[:])
	}
	return strconv.Itoa(int(r.number))
}

// ExecWithRole wraps tx in execTransactionWithRole on the modifier at
// rolesMod. The wrapped call reverts when the inner call fails.
func ExecWithRole(rolesMod common.Address, role Role, tx repertoire.Transactable) (repertoire.Transactable, error) {
	value := tx.Value
	if value == nil {
		value = new(big.Int)
	}
	if role.keyed {
		return repertoire.Encode(rolesMod, abis.RolesV2, "execTransactionWithRole", tx.To, value, tx.Data, uint8(tx.Operation), role.key, true)
	}
	return repertoire.Encode(rolesMod, abis.RolesV1, "execTransactionWithRole", tx.To, value, tx.Data, uint8(tx.Operation), role.number, true)
}
