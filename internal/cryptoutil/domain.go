// Package cryptoutil derives EIP-712 claim hashes and produces EIP-2098
// compact signatures (spec §4.5, C5). It builds on
// github.com/ethereum/go-ethereum/crypto and .../common exactly as
// core/transactions.go and core/transaction_distribution.go do, rather than
// hand-rolling Keccak256 or secp256k1.
//
// Per spec §9 Open Question 2, there is a single implementation path here
// (manual assembly) for both the witness and no-witness cases — no
// parallel library-call shortcut that could silently diverge.
package cryptoutil

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// VerifyingContract is The Compact's fixed on-chain address (spec §4.5).
var VerifyingContract = common.HexToAddress("0x00000000000018DF021Ff2467dF97ff846E09f48")

const (
	domainName    = "The Compact"
	domainVersion = "0"

	baseTypeFields = "address arbiter,address sponsor,uint256 nonce,uint256 expires,uint256 id,uint256 amount"
)

var (
	domainTypeHash = crypto.Keccak256([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))
	noWitnessType  = "Compact(" + baseTypeFields + ")"
)

// CompactFields is the subset of a validated Compact needed to derive a
// claim hash; kept separate from types.Compact to keep this package free of
// an import-cycle-prone dependency on the API-level types package.
type CompactFields struct {
	Arbiter           common.Address
	Sponsor           common.Address
	Nonce             *uint256.Int
	Expires           int64
	ID                *uint256.Int
	Amount            *uint256.Int
	WitnessTypeString *string // nil if no witness
	WitnessHash       *[32]byte
}

// effectiveTypeString returns the primaryType's full type signature,
// extended with the witness tail when present (spec §4.5).
func (c CompactFields) effectiveTypeString() string {
	if c.WitnessTypeString == nil {
		return noWitnessType
	}
	return "Compact(" + baseTypeFields + "," + *c.WitnessTypeString
}

// domainSeparator assembles keccak256(abi.encode(domainTypeHash,
// keccak256(name), keccak256(version), chainId, verifyingContract)).
func domainSeparator(chainID uint64) [32]byte {
	nameHash := crypto.Keccak256([]byte(domainName))
	versionHash := crypto.Keccak256([]byte(domainVersion))

	packed := make([]byte, 0, 32*5)
	packed = append(packed, domainTypeHash...)
	packed = append(packed, nameHash...)
	packed = append(packed, versionHash...)
	packed = append(packed, leftPadUint64(chainID)...)
	packed = append(packed, leftPadAddress(VerifyingContract)...)

	var out [32]byte
	copy(out[:], crypto.Keccak256(packed))
	return out
}

// messageHash assembles keccak256(abi.encode(typeHash, arbiter, sponsor,
// nonce, expires, id, amount[, witnessHash])).
func messageHash(c CompactFields) [32]byte {
	typeHash := crypto.Keccak256([]byte(c.effectiveTypeString()))

	packed := make([]byte, 0, 32*8)
	packed = append(packed, typeHash...)
	packed = append(packed, leftPadAddress(c.Arbiter)...)
	packed = append(packed, leftPadAddress(c.Sponsor)...)
	packed = append(packed, uint256Bytes(c.Nonce)...)
	packed = append(packed, leftPadUint64(uint64(c.Expires))...)
	packed = append(packed, uint256Bytes(c.ID)...)
	packed = append(packed, uint256Bytes(c.Amount)...)
	if c.WitnessHash != nil {
		packed = append(packed, c.WitnessHash[:]...)
	}

	var out [32]byte
	copy(out[:], crypto.Keccak256(packed))
	return out
}

// ClaimHash derives the final EIP-712 digest
// keccak256(0x1901 || domainSeparator || messageHash) for compact on
// chainID (spec §4.5).
func ClaimHash(chainID uint64, c CompactFields) [32]byte {
	ds := domainSeparator(chainID)
	mh := messageHash(c)

	packed := make([]byte, 0, 2+32+32)
	packed = append(packed, 0x19, 0x01)
	packed = append(packed, ds[:]...)
	packed = append(packed, mh[:]...)

	var out [32]byte
	copy(out[:], crypto.Keccak256(packed))
	return out
}

func leftPadAddress(a common.Address) []byte {
	var out [32]byte
	copy(out[12:], a.Bytes())
	return out[:]
}

func leftPadUint64(v uint64) []byte {
	var out [32]byte
	b := new(big.Int).SetUint64(v).Bytes()
	copy(out[32-len(b):], b)
	return out[:]
}

func uint256Bytes(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}
