package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"smallocator/internal/apperr"
	"smallocator/internal/types"
)

// CreateSession atomically consumes (domain, nonce) and inserts the session
// row. A nonce replay surfaces as apperr.SessionNonceReplay (spec §4.9,
// §5: "errors (session nonce replay)").
func (s *Store) CreateSession(ctx context.Context, sess types.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.PersistenceFailure, "begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO session_nonces (domain, nonce) VALUES (?, ?)`,
		sess.Domain, sess.Nonce,
	); err != nil {
		if isUniqueConstraint(err) {
			return apperr.New(apperr.SessionNonceReplay, "session nonce already used")
		}
		return apperr.Wrap(apperr.PersistenceFailure, "insert session nonce", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, address, expires_at, nonce, domain) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, mustAddressBytes(sess.Address), sess.ExpiresAt, sess.Nonce, sess.Domain,
	); err != nil {
		return apperr.Wrap(apperr.PersistenceFailure, "insert session", err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.PersistenceFailure, "commit session creation", err)
	}
	return nil
}

// GetSession looks up a session by id. Expired sessions are deleted on
// access and reported as apperr.SessionExpired (spec §4.9, §4.10).
func (s *Store) GetSession(ctx context.Context, id string) (*types.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, address, expires_at, nonce, domain FROM sessions WHERE id = ?`, id)

	var sess types.Session
	var addrBytes []byte
	if err := row.Scan(&sess.ID, &addrBytes, &sess.ExpiresAt, &sess.Nonce, &sess.Domain); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.SessionInvalid, "unknown session")
		}
		return nil, apperr.Wrap(apperr.PersistenceFailure, "query session", err)
	}
	sess.Address = bytesToAddressHex(addrBytes)

	if sess.ExpiresAt <= time.Now().Unix() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
		return nil, apperr.New(apperr.SessionExpired, "session expired")
	}
	return &sess, nil
}

// DeleteSession removes a session row (DELETE /session).
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return apperr.Wrap(apperr.PersistenceFailure, "delete session", err)
	}
	return nil
}

func isUniqueConstraint(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed: UNIQUE")
}

func mustAddressBytes(hexAddr string) []byte {
	b, err := addressHexToBytes(hexAddr)
	if err != nil {
		// Addresses are validated before reaching the store; a failure
		// here means an internal invariant was violated upstream.
		panic(fmt.Sprintf("store: invalid address reached persistence: %v", err))
	}
	return b
}
