package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/holiman/uint256"

	"smallocator/internal/apperr"
)

// NonceConsumed reports whether (chainID, sponsor, nonce) is already in the
// compact_nonces anti-replay set (spec §4.7, stage 3).
func (s *Store) NonceConsumed(ctx context.Context, chainID uint64, sponsor []byte, high, low []byte) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM compact_nonces WHERE chain_id = ? AND sponsor = ? AND nonce_high = ? AND nonce_low = ? LIMIT 1`,
		chainID, sponsor, high, low,
	)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, apperr.Wrap(apperr.PersistenceFailure, "query consumed nonce", err)
	}
	return true, nil
}

// NextCounter returns max(low)+1 over (chainId, sponsor) consumed rows,
// i.e. the advisory next free low-96-bit counter (spec §4.8). The caller
// must still go through the unique-constraint consumption path — this is
// advisory only.
func (s *Store) NextCounter(ctx context.Context, chainID uint64, sponsor []byte) (*uint256.Int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT nonce_low FROM compact_nonces WHERE chain_id = ? AND sponsor = ?`,
		chainID, sponsor,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, "query nonce counters", err)
	}
	defer rows.Close()

	max := new(uint256.Int)
	found := false
	for rows.Next() {
		var low []byte
		if err := rows.Scan(&low); err != nil {
			return nil, apperr.Wrap(apperr.PersistenceFailure, "scan nonce counter", err)
		}
		var padded [32]byte
		copy(padded[32-len(low):], low)
		v := new(uint256.Int).SetBytes32(padded[:])
		if !found || v.Gt(max) {
			max = v
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, "iterate nonce counters", err)
	}
	if !found {
		return uint256.NewInt(0), nil
	}
	return new(uint256.Int).AddUint64(max, 1), nil
}
