package store

import (
	"github.com/ethereum/go-ethereum/common"

	"smallocator/internal/encoding"
)

func addressHexToBytes(s string) ([]byte, error) {
	addr, err := encoding.ParseAddress(s)
	if err != nil {
		return nil, err
	}
	return addr.Bytes(), nil
}

// bytesToAddressHex renders stored 20-byte address columns back to their
// EIP-55 checksummed hex form, matching read-path/write-path agreement
// (spec §6: "implementations should not mix hex-string and bytes
// representations in the same column").
func bytesToAddressHex(b []byte) string {
	return common.BytesToAddress(b).Hex()
}

func hexPrefixed(b []byte) string {
	return encoding.BytesToHex(b)
}
