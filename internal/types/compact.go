// Package types holds the wire and domain representations shared across
// the validation, crypto, balance, and persistence layers (spec §3).
package types

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// NonceInput is the discriminated input type spec §9 calls for: the
// inbound nonce is either absent (server allocates) or a concrete u256.
// Modeling it explicitly avoids the usual nil-pointer-means-something
// ad-hoc JSON pattern.
type NonceInput struct {
	set   bool
	value *uint256.Int
}

// NoNonce is the zero value: "server shall allocate".
var NoNonce = NonceInput{}

// SomeNonce wraps a concrete nonce value.
func SomeNonce(v *uint256.Int) NonceInput { return NonceInput{set: true, value: v} }

// IsSet reports whether the caller supplied a concrete nonce.
func (n NonceInput) IsSet() bool { return n.set }

// Value returns the concrete nonce. Callers must check IsSet first.
func (n NonceInput) Value() *uint256.Int { return n.value }

// UnmarshalJSON accepts JSON null, a decimal-digit string, or a JSON number
// for the nonce field.
func (n *NonceInput) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NoNonce
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		v, err := uint256.FromDecimal(asString)
		if err != nil {
			return fmt.Errorf("nonce %q: %w", asString, err)
		}
		*n = SomeNonce(v)
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return fmt.Errorf("nonce: expected null, decimal string, or number: %w", err)
	}
	v, err := uint256.FromDecimal(asNumber.String())
	if err != nil {
		return fmt.Errorf("nonce %q: %w", asNumber.String(), err)
	}
	*n = SomeNonce(v)
	return nil
}

// MarshalJSON renders a set nonce as a decimal string and an unset nonce as
// null, matching the inbound contract.
func (n NonceInput) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	return json.Marshal(n.value.Dec())
}

// CompactInput is the raw, not-yet-validated shape POSTed to /compact. Id
// and Amount arrive as numeric strings (spec §9); Nonce uses the
// discriminated NonceInput above.
type CompactInput struct {
	Arbiter           string     `json:"arbiter"`
	Sponsor           string     `json:"sponsor"`
	ID                string     `json:"id"`
	Nonce             NonceInput `json:"nonce"`
	Expires           string     `json:"expires"`
	Amount            string     `json:"amount"`
	WitnessTypeString *string    `json:"witnessTypeString,omitempty"`
	WitnessHash       *string    `json:"witnessHash,omitempty"`
}

// Compact is the parsed, structurally-typed form of a compact, after stage
// 2 validation but before nonce allocation (spec §3).
type Compact struct {
	Arbiter           common.Address
	Sponsor           common.Address
	ID                *uint256.Int
	Nonce             NonceInput
	Expires           int64
	Amount            *uint256.Int
	WitnessTypeString *string
	WitnessHash       *[32]byte
}

// HasWitness reports whether both witness fields are present.
func (c *Compact) HasWitness() bool {
	return c.WitnessTypeString != nil && c.WitnessHash != nil
}

// ResetPeriodIndex extracts bits [252..255) of the lock id.
func (c *Compact) ResetPeriodIndex() uint8 {
	shifted := new(uint256.Int).Rsh(c.ID, 252)
	return uint8(shifted.Uint64() & 0x7)
}

// AllocatorID extracts bits [160..252) of the lock id (92 bits).
func (c *Compact) AllocatorID() *uint256.Int {
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), 92)
	mask.Sub(mask, uint256.NewInt(1))
	shifted := new(uint256.Int).Rsh(c.ID, 160)
	return shifted.And(shifted, mask)
}

// CompactSubmissionInput is the raw POST /compact request body. chainId
// arrives as a decimal string like every other numeric wire field (spec
// §9, stage 1: "round-trips through decimal string") rather than a JSON
// number, so oversized chain ids never hit float precision loss.
type CompactSubmissionInput struct {
	ChainID string       `json:"chainId"`
	Compact CompactInput `json:"compact"`
}

// CompactSubmission is the parsed, validated form of CompactSubmissionInput.
type CompactSubmission struct {
	ChainID uint64  `json:"chainId"`
	Compact Compact `json:"compact"`
}

// StoredCompact is a Compact with a concrete nonce plus the derived
// claim hash and produced signature (spec §3).
type StoredCompact struct {
	ChainID       uint64
	Compact       Compact
	ConcreteNonce *uint256.Int
	ClaimHash     [32]byte
	Signature     [64]byte
}

// CompactRecord is the API-facing projection returned by GET /compacts and
// GET /compact/:chainId/:claimHash.
type CompactRecord struct {
	ChainID           uint64  `json:"chainId"`
	Arbiter           string  `json:"arbiter"`
	Sponsor           string  `json:"sponsor"`
	ID                string  `json:"id"`
	Nonce             string  `json:"nonce"`
	Expires           int64   `json:"expires"`
	Amount            string  `json:"amount"`
	WitnessTypeString *string `json:"witnessTypeString,omitempty"`
	WitnessHash       *string `json:"witnessHash,omitempty"`
	ClaimHash         string  `json:"claimHash"`
	Signature         string  `json:"signature"`
}
