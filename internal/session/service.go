// Package session implements the EIP-4361 sign-in session service (spec
// §4.9, C9): payload issuance, signature verification, and session
// lifecycle management.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"smallocator/internal/apperr"
	"smallocator/internal/config"
	"smallocator/internal/cryptoutil"
	"smallocator/internal/encoding"
	"smallocator/internal/types"
)

const (
	statement        = "Sign in to Smallocator"
	payloadVersion   = "1"
	payloadLifetime  = 30 * time.Minute
	issuedAtSkew     = 5 * time.Second
	maxSessionWindow = time.Hour
	timeLayout       = time.RFC3339
)

// Store is the C4 dependency this service needs.
type Store interface {
	CreateSession(ctx context.Context, sess types.Session) error
	GetSession(ctx context.Context, id string) (*types.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Service orchestrates the session endpoints.
type Service struct {
	Store  Store
	Config *config.Config
}

// IssuePayload implements GET /session/:chainId/:address: a stateless
// EIP-4361 payload construction. No session-request row is persisted
// (spec §3: "implementations may drop it") because every invariant POST
// /session checks is re-derivable from the payload the client signs and
// echoes back; only the nonce's one-shot use needs a durable record, and
// that is enforced by session_nonces at creation time, not at issuance.
func (s *Service) IssuePayload(chainID uint64, addressRaw string) (*types.EIP4361Payload, error) {
	if chainID == 0 {
		return nil, apperr.New(apperr.BadChainID, "chainId must be positive")
	}
	addr, err := encoding.ParseAddress(addressRaw)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadAddress, "address: "+err.Error(), err)
	}

	now := time.Now().UTC()
	return &types.EIP4361Payload{
		Domain:         s.Config.Domain,
		Address:        encoding.ChecksumString(addr),
		Statement:      statement,
		URI:            s.Config.BaseURL,
		Version:        payloadVersion,
		ChainID:        chainID,
		Nonce:          uuid.NewString(),
		IssuedAt:       now.Format(timeLayout),
		ExpirationTime: now.Add(payloadLifetime).Format(timeLayout),
	}, nil
}

// Create implements POST /session: reconstructs the canonical message,
// verifies the personal-sign signature, checks every payload invariant,
// and atomically consumes the nonce while inserting the session row.
func (s *Service) Create(ctx context.Context, signatureHex string, payload types.EIP4361Payload) (*types.SessionSummary, error) {
	addr, err := encoding.ParseAddress(payload.Address)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadAddress, "payload.address: "+err.Error(), err)
	}
	if payload.ChainID == 0 {
		return nil, apperr.New(apperr.BadChainID, "payload.chainId must be positive")
	}
	if payload.Domain != s.Config.Domain {
		return nil, apperr.New(apperr.SessionInvalid, "payload.domain does not match the configured domain")
	}
	if payload.Statement != statement {
		return nil, apperr.New(apperr.SessionInvalid, "payload.statement does not match the expected statement")
	}
	if !strings.HasPrefix(payload.URI, s.Config.BaseURL) {
		return nil, apperr.New(apperr.SessionInvalid, "payload.uri does not start with the configured base URL")
	}

	issuedAt, err := time.Parse(timeLayout, payload.IssuedAt)
	if err != nil {
		return nil, apperr.Wrap(apperr.SessionInvalid, "payload.issuedAt is not a valid timestamp", err)
	}
	now := time.Now().UTC()
	if issuedAt.Before(now.Add(-issuedAtSkew)) || issuedAt.After(now.Add(issuedAtSkew)) {
		return nil, apperr.New(apperr.SessionInvalid, "payload.issuedAt is not within the allowed clock skew")
	}

	expirationTime, err := time.Parse(timeLayout, payload.ExpirationTime)
	if err != nil {
		return nil, apperr.Wrap(apperr.SessionInvalid, "payload.expirationTime is not a valid timestamp", err)
	}
	window := expirationTime.Sub(now)
	if window <= 0 || window > maxSessionWindow {
		return nil, apperr.New(apperr.SessionInvalid, "payload.expirationTime is outside the allowed session window")
	}

	sigBytes, err := encoding.ParseHexBytesN(signatureHex, 65)
	if err != nil {
		return nil, apperr.Wrap(apperr.SessionInvalid, "signature: "+err.Error(), err)
	}
	message := CanonicalMessage(payload)
	ok, err := cryptoutil.VerifyPersonalSign([]byte(message), sigBytes, addr)
	if err != nil {
		return nil, apperr.Wrap(apperr.SessionInvalid, "signature verification failed", err)
	}
	if !ok {
		return nil, apperr.New(apperr.SessionInvalid, "signature does not match payload.address")
	}

	sess := types.Session{
		ID:        uuid.NewString(),
		Address:   encoding.ChecksumString(addr),
		ExpiresAt: expirationTime.Unix(),
		Nonce:     payload.Nonce,
		Domain:    payload.Domain,
	}
	if err := s.Store.CreateSession(ctx, sess); err != nil {
		return nil, err
	}

	return &types.SessionSummary{ID: sess.ID, Address: sess.Address, ExpiresAt: sess.ExpiresAt}, nil
}

// Verify implements sessionId -> address | expired | invalid (spec §4.9).
func (s *Service) Verify(ctx context.Context, sessionID string) (*types.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.New(apperr.SessionMissing, "missing session id")
	}
	return s.Store.GetSession(ctx, sessionID)
}

// Delete implements DELETE /session.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	return s.Store.DeleteSession(ctx, sessionID)
}
