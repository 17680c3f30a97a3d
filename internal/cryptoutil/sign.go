package cryptoutil

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignCompact signs digest (a raw 32-byte claim hash, never an
// Ethereum-personal-signed envelope — spec §4.5) and compresses the
// resulting 65-byte (r, s, v) signature into the 64-byte EIP-2098 form: the
// high bit of s carries v's parity.
func SignCompact(priv *ecdsa.PrivateKey, digest [32]byte) ([64]byte, error) {
	var out [64]byte
	full, err := crypto.Sign(digest[:], priv)
	if err != nil {
		return out, fmt.Errorf("sign digest: %w", err)
	}
	if len(full) != 65 {
		return out, fmt.Errorf("sign digest: unexpected signature length %d", len(full))
	}

	r := full[:32]
	s := full[32:64]
	v := full[64] // 0 or 1

	copy(out[:32], r)
	copy(out[32:], s)
	if v == 1 {
		out[32] |= 0x80
	} else if v != 0 {
		return out, fmt.Errorf("sign digest: unexpected recovery id %d", v)
	}
	return out, nil
}

// DecompactSignature expands a 64-byte EIP-2098 signature back into the
// 65-byte (r, s, v) form usable with crypto.SigToPub / crypto.Ecrecover.
func DecompactSignature(sig [64]byte) [65]byte {
	var out [65]byte
	copy(out[:32], sig[:32])
	copy(out[32:64], sig[32:])
	if out[32]&0x80 != 0 {
		out[32] &^= 0x80
		out[64] = 1
	} else {
		out[64] = 0
	}
	return out
}

// RecoverSigner recovers the signing address from a compact signature over
// digest, used by the EIP-2098 round-trip property test (spec §8).
func RecoverSigner(digest [32]byte, sig [64]byte) (common.Address, error) {
	full := DecompactSignature(sig)
	pub, err := crypto.SigToPub(digest[:], full[:])
	if err != nil {
		return common.Address{}, fmt.Errorf("recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
