package indexer

import (
	"fmt"
	"strconv"
	"strings"
)

func parseHash32(s string) ([32]byte, error) {
	var out [32]byte
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(trimmed) != 64 {
		return out, fmt.Errorf("expected 32-byte hex hash, got %d hex chars", len(trimmed))
	}
	for i := 0; i < 32; i++ {
		b, err := strconv.ParseUint(trimmed[i*2:i*2+2], 16, 8)
		if err != nil {
			return out, fmt.Errorf("invalid hash hex: %w", err)
		}
		out[i] = byte(b)
	}
	return out, nil
}

func parseUint64Decimal(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
