// Package encoding provides the fixed-width conversions the rest of the
// allocator relies on (spec §4.2, C2): address <-> 20 bytes, u256 <-> 32
// bytes big-endian, and strict hex <-> bytes. It builds directly on
// github.com/ethereum/go-ethereum/common for checksum encoding, the same
// way core/transactions.go bridges the teacher's own Address type to
// common.Address.
package encoding

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress accepts a case-insensitive 0x-prefixed 20-byte hex address
// and returns it checksummed (EIP-55). It rejects malformed input outright
// rather than silently truncating or padding.
func ParseAddress(s string) (common.Address, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Address{}, fmt.Errorf("address %q: missing 0x prefix", s)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("address %q: not a valid 20-byte hex address", s)
	}
	return common.HexToAddress(s), nil
}

// ChecksumEqual reports whether two address strings denote the same
// 20-byte address, independent of case.
func ChecksumEqual(a, b string) bool {
	aa, err := ParseAddress(a)
	if err != nil {
		return false
	}
	bb, err := ParseAddress(b)
	if err != nil {
		return false
	}
	return aa == bb
}

// ChecksumString returns the EIP-55 checksummed hex form of addr.
func ChecksumString(addr common.Address) string {
	return addr.Hex()
}
