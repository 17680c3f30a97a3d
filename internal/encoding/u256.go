package encoding

import (
	"fmt"
	"regexp"

	"github.com/holiman/uint256"
)

var decimalRE = regexp.MustCompile(`^\d+$`)

// ParseU256Decimal parses a decimal-string amount (the wire format, spec
// §3) into a uint256.Int. It rejects anything that is not a bare sequence
// of ASCII digits — no signs, no hex, no whitespace.
func ParseU256Decimal(s string) (*uint256.Int, error) {
	if !decimalRE.MatchString(s) {
		return nil, fmt.Errorf("amount %q: not a decimal digit string", s)
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("amount %q: overflows 256 bits", s)
	}
	return v, nil
}

// U256ToBytes32 encodes v as the 32-byte big-endian at-rest representation
// (spec §3: "amount ... as fixed-width bytes at rest").
func U256ToBytes32(v *uint256.Int) [32]byte {
	return v.Bytes32()
}

// U256FromBytes32 decodes the 32-byte big-endian at-rest representation
// back into a uint256.Int.
func U256FromBytes32(b [32]byte) *uint256.Int {
	return new(uint256.Int).SetBytes32(b[:])
}

// U256ToDecimalString renders v as the wire-format decimal string.
func U256ToDecimalString(v *uint256.Int) string {
	return v.Dec()
}
