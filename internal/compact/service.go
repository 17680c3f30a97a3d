// Package compact implements the compact submission orchestration (spec
// §4.8, C8): sponsor authorization, nonce allocation, validation (C7),
// claim-hash derivation and signing (C5), and atomic persistence (C4).
package compact

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"smallocator/internal/apperr"
	"smallocator/internal/cryptoutil"
	"smallocator/internal/encoding"
	"smallocator/internal/types"
	"smallocator/internal/validate"
)

// Nonces is the nonce-allocation dependency this service needs from C4, on
// top of validate.NonceChecker.
type Nonces interface {
	validate.NonceChecker
	NextCounter(ctx context.Context, chainID uint64, sponsor []byte) (*uint256.Int, error)
}

// Persister is the C4 dependency that atomically consumes a nonce and
// stores the signed compact.
type Persister interface {
	InsertCompact(ctx context.Context, sc types.StoredCompact) error
}

// Result is the response shape for a successful submission (spec §6).
type Result struct {
	ClaimHash [32]byte
	Signature [64]byte
	Nonce     *uint256.Int
}

// Service orchestrates POST /compact.
type Service struct {
	Validate  *validate.Pipeline
	Nonces    Nonces
	Store     Persister
	Identity  *cryptoutil.Identity
	Allocator common.Address
}

// Submit implements the C8 contract: submit(submission,
// authenticatedSponsor) -> {claimHash, signature, nonce}.
func (s *Service) Submit(ctx context.Context, chainID uint64, c *types.Compact, authenticatedSponsor common.Address) (*Result, error) {
	if c.Sponsor != authenticatedSponsor {
		return nil, apperr.New(apperr.SponsorMismatch, "compact sponsor does not match the authenticated session address")
	}

	if c.Nonce.IsSet() {
		return s.submitWithNonce(ctx, chainID, c, c.Nonce.Value())
	}

	nonce, err := s.allocateNonce(ctx, chainID, c.Sponsor)
	if err != nil {
		return nil, err
	}
	result, err := s.submitWithNonce(ctx, chainID, c, nonce)
	if err != nil && (apperr.As(err, apperr.NonceRaced) || apperr.As(err, apperr.NonceAlreadyConsumed)) {
		// The advisory allocation lost to another submission, caught either
		// by validation (NonceAlreadyConsumed) or by the unique constraint
		// at insert time (NonceRaced). Retry once with a freshly allocated
		// nonce (spec §4.8); a second conflict is fatal to the request.
		nonce, err = s.allocateNonce(ctx, chainID, c.Sponsor)
		if err != nil {
			return nil, err
		}
		return s.submitWithNonce(ctx, chainID, c, nonce)
	}
	return result, err
}

// SuggestNonce implements GET /suggested-nonce/:chainId: the same advisory
// allocation Submit performs internally, exposed read-only for clients that
// want to pick a nonce up front.
func (s *Service) SuggestNonce(ctx context.Context, chainID uint64, sponsor common.Address) (*uint256.Int, error) {
	return s.allocateNonce(ctx, chainID, sponsor)
}

func (s *Service) allocateNonce(ctx context.Context, chainID uint64, sponsor common.Address) (*uint256.Int, error) {
	counter, err := s.Nonces.NextCounter(ctx, chainID, sponsor.Bytes())
	if err != nil {
		return nil, err
	}
	high := new(uint256.Int).Lsh(new(uint256.Int).SetBytes(sponsor.Bytes()), 96)
	return new(uint256.Int).Or(high, counter), nil
}

func (s *Service) submitWithNonce(ctx context.Context, chainID uint64, c *types.Compact, nonce *uint256.Int) (*Result, error) {
	withNonce := *c
	withNonce.Nonce = types.SomeNonce(nonce)

	if err := s.Validate.Validate(ctx, chainID, &withNonce, s.Allocator, time.Now()); err != nil {
		return nil, err
	}

	claimHash := cryptoutil.ClaimHash(chainID, compactFields(&withNonce, nonce))
	sig, err := cryptoutil.SignCompact(s.Identity.PrivateKey, claimHash)
	if err != nil {
		return nil, apperr.Wrap(apperr.SigningFailure, "sign claim hash", err)
	}

	stored := types.StoredCompact{
		ChainID:       chainID,
		Compact:       withNonce,
		ConcreteNonce: nonce,
		ClaimHash:     claimHash,
		Signature:     sig,
	}
	if err := s.Store.InsertCompact(ctx, stored); err != nil {
		return nil, err
	}

	return &Result{ClaimHash: claimHash, Signature: sig, Nonce: nonce}, nil
}

func compactFields(c *types.Compact, nonce *uint256.Int) cryptoutil.CompactFields {
	return cryptoutil.CompactFields{
		Arbiter:           c.Arbiter,
		Sponsor:           c.Sponsor,
		Nonce:             nonce,
		Expires:           c.Expires,
		ID:                c.ID,
		Amount:            c.Amount,
		WitnessTypeString: c.WitnessTypeString,
		WitnessHash:       c.WitnessHash,
	}
}

// ClaimHashHex, SignatureHex and NonceDecimal render Result's fields the way the API layer serializes them
// (spec §6: claimHash/signature as 0x-prefixed hex, nonce as decimal).
func (r *Result) ClaimHashHex() string { return encoding.BytesToHex(r.ClaimHash[:]) }
func (r *Result) SignatureHex() string { return encoding.BytesToHex(r.Signature[:]) }
func (r *Result) NonceDecimal() string { return r.Nonce.Dec() }
