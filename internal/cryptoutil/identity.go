package cryptoutil

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Identity holds the allocator's signing key material for process lifetime
// (spec §4.5, §9: "signing uses a key held for process lifetime").
type Identity struct {
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address
}

// LoadIdentity parses privateKeyHex (32 bytes of hex, with or without a 0x
// prefix) and derives its
// address. If expectedAddress is non-empty, the derived address is compared
// case-insensitively; a mismatch aborts startup (spec §4.5).
func LoadIdentity(privateKeyHex, expectedAddress string) (*Identity, error) {
	hexKey := strings.TrimPrefix(strings.TrimPrefix(privateKeyHex, "0x"), "0X")
	priv, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("load identity: invalid private key: %w", err)
	}
	addr := crypto.PubkeyToAddress(priv.PublicKey)

	if expectedAddress != "" && !strings.EqualFold(addr.Hex(), expectedAddress) {
		return nil, fmt.Errorf("load identity: derived address %s does not match configured signing address %s", addr.Hex(), expectedAddress)
	}

	return &Identity{PrivateKey: priv, Address: addr}, nil
}

// VerifyPersonalSign recovers the signer of message under the
// "\x19Ethereum Signed Message:\n<len>" envelope (spec §4.9: viem's
// verifyMessage semantics, not EIP-712) and reports whether it matches
// expected.
func VerifyPersonalSign(message []byte, sig []byte, expected common.Address) (bool, error) {
	if len(sig) != 65 {
		return false, fmt.Errorf("verify personal sign: expected 65-byte signature, got %d", len(sig))
	}
	// Normalize the trailing recovery byte to {0,1} as crypto.SigToPub expects.
	normalized := make([]byte, 65)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}

	digest := personalSignDigest(message)
	pub, err := crypto.SigToPub(digest[:], normalized)
	if err != nil {
		return false, fmt.Errorf("verify personal sign: %w", err)
	}
	recovered := crypto.PubkeyToAddress(*pub)
	return recovered == expected, nil
}

func personalSignDigest(message []byte) [32]byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	var out [32]byte
	copy(out[:], crypto.Keccak256([]byte(prefixed)))
	return out
}
