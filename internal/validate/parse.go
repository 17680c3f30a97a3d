// Package validate implements the sequenced validation pipeline (spec
// §4.7, C7): chain-id syntax, structural parsing, nonce shape/replay,
// expiration, domain/id, and solvency. Stage order is normative — later
// stages assume invariants earlier ones already enforced.
package validate

import (
	"regexp"
	"strconv"

	"smallocator/internal/apperr"
	"smallocator/internal/encoding"
	"smallocator/internal/types"
)

var decimalRE = regexp.MustCompile(`^\d+$`)

// ParseChainID implements stage 1: a chain id must be a positive integer
// that round-trips through its decimal string (no leading zeros, no sign,
// no overflow of uint64).
func ParseChainID(s string) (uint64, error) {
	if !decimalRE.MatchString(s) {
		return 0, apperr.New(apperr.BadChainID, "chainId must be a decimal digit string")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, apperr.Wrap(apperr.BadChainID, "chainId overflows 64 bits", err)
	}
	if v == 0 {
		return 0, apperr.New(apperr.BadChainID, "chainId must be positive")
	}
	if strconv.FormatUint(v, 10) != s {
		return 0, apperr.New(apperr.BadChainID, "chainId does not round-trip through its decimal string")
	}
	return v, nil
}

// Parse implements stage 2 (structural): addresses must be checksummable,
// expires and id must be positive, amount must match the decimal-digit
// wire format, and the witness pair must be both-present or both-absent.
func Parse(in types.CompactInput) (*types.Compact, error) {
	arbiter, err := encoding.ParseAddress(in.Arbiter)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadAddress, "arbiter: "+err.Error(), err)
	}
	sponsor, err := encoding.ParseAddress(in.Sponsor)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadAddress, "sponsor: "+err.Error(), err)
	}

	id, err := encoding.ParseU256Decimal(in.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadID, "id: "+err.Error(), err)
	}
	if id.IsZero() {
		return nil, apperr.New(apperr.BadID, "id must be greater than zero")
	}

	expires, err := parsePositiveInt64(in.Expires)
	if err != nil {
		return nil, err
	}

	amount, err := encoding.ParseU256Decimal(in.Amount)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadAmount, "amount: "+err.Error(), err)
	}

	hasType := in.WitnessTypeString != nil
	hasHash := in.WitnessHash != nil
	if hasType != hasHash {
		return nil, apperr.New(apperr.BadWitnessPair, "witnessTypeString and witnessHash must both be present or both be absent")
	}

	var witnessHash *[32]byte
	if hasHash {
		b, err := encoding.ParseHexBytesN(*in.WitnessHash, 32)
		if err != nil {
			return nil, apperr.Wrap(apperr.BadWitnessPair, "witnessHash: "+err.Error(), err)
		}
		var arr [32]byte
		copy(arr[:], b)
		witnessHash = &arr
	}

	return &types.Compact{
		Arbiter:           arbiter,
		Sponsor:           sponsor,
		ID:                id,
		Nonce:             in.Nonce,
		Expires:           expires,
		Amount:            amount,
		WitnessTypeString: in.WitnessTypeString,
		WitnessHash:       witnessHash,
	}, nil
}

func parsePositiveInt64(s string) (int64, error) {
	if !decimalRE.MatchString(s) {
		return 0, apperr.New(apperr.BadExpires, "expires must be a decimal digit string")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, apperr.Wrap(apperr.BadExpires, "expires overflows 64 bits", err)
	}
	if v <= 0 {
		return 0, apperr.New(apperr.BadExpires, "expires must be greater than zero")
	}
	return v, nil
}
