package encoding

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseHexBytes strictly decodes a 0x-prefixed hex string into bytes.
// Unlike common.FromHex, it refuses input without the prefix — spec §4.2
// requires rejecting non-0x-prefixed input at API boundaries.
func ParseHexBytes(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, fmt.Errorf("hex value %q: missing 0x prefix", s)
	}
	trimmed := s[2:]
	if len(trimmed)%2 != 0 {
		return nil, fmt.Errorf("hex value %q: odd length", s)
	}
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("hex value %q: %w", s, err)
	}
	return b, nil
}

// ParseHexBytesN decodes a 0x-prefixed hex string and requires the decoded
// length to equal n bytes exactly (used for claim hashes, witness hashes
// and session signatures).
func ParseHexBytesN(s string, n int) ([]byte, error) {
	b, err := ParseHexBytes(s)
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, fmt.Errorf("hex value %q: expected %d bytes, got %d", s, n, len(b))
	}
	return b, nil
}

// BytesToHex renders b as a 0x-prefixed lowercase hex string.
func BytesToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
