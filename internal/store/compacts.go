package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/holiman/uint256"

	"smallocator/internal/apperr"
	"smallocator/internal/balance"
	"smallocator/internal/types"
)

// InsertCompact atomically consumes the compact's nonce and inserts the
// compact row (spec §4.4: "atomic with the corresponding signature
// production"; §4.8: NonceRaced on conflict). Both writes happen in one
// transaction so a crash or disconnect between them is impossible.
func (s *Store) InsertCompact(ctx context.Context, sc types.StoredCompact) error {
	sponsorBytes := sc.Compact.Sponsor.Bytes()
	nonceBytes := sc.ConcreteNonce.Bytes32()
	high := nonceBytes[:20]
	low := nonceBytes[20:]

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.PersistenceFailure, "begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO compact_nonces (chain_id, sponsor, nonce_high, nonce_low) VALUES (?, ?, ?, ?)`,
		sc.ChainID, sponsorBytes, high, low,
	); err != nil {
		if isUniqueConstraint(err) {
			return apperr.New(apperr.NonceRaced, "nonce consumed by a concurrent submission")
		}
		return apperr.Wrap(apperr.PersistenceFailure, "insert compact nonce", err)
	}

	idBytes := sc.Compact.ID.Bytes32()
	amountBytes := sc.Compact.Amount.Bytes32()
	arbiterBytes := sc.Compact.Arbiter.Bytes()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO compacts (chain_id, claim_hash, arbiter, sponsor, lock_id, nonce, expires, amount, witness_type_string, witness_hash, signature)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ChainID, sc.ClaimHash[:], arbiterBytes, sponsorBytes, idBytes[:], nonceBytes[:], sc.Compact.Expires, amountBytes[:],
		sc.Compact.WitnessTypeString, witnessHashBytes(sc.Compact.WitnessHash), sc.Signature[:],
	); err != nil {
		if isUniqueConstraint(err) {
			return apperr.New(apperr.NonceRaced, "claim hash already recorded")
		}
		return apperr.Wrap(apperr.PersistenceFailure, "insert compact", err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.PersistenceFailure, "commit compact insertion", err)
	}
	return nil
}

func witnessHashBytes(h *[32]byte) []byte {
	if h == nil {
		return nil
	}
	return h[:]
}

// RowsForLock fetches the raw compact rows for (sponsor, chainId, lockId),
// for the balance engine (C6) to apply finalization/processed-hash policy
// to. It performs no business-rule filtering itself.
func (s *Store) RowsForLock(ctx context.Context, sponsor []byte, chainID uint64, lockID []byte) ([]balance.CompactRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT claim_hash, amount, expires FROM compacts WHERE sponsor = ? AND chain_id = ? AND lock_id = ?`,
		sponsor, chainID, lockID,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, "query compact rows", err)
	}
	defer rows.Close()

	var out []balance.CompactRow
	for rows.Next() {
		var claimHash, amount []byte
		var expires int64
		if err := rows.Scan(&claimHash, &amount, &expires); err != nil {
			return nil, apperr.Wrap(apperr.PersistenceFailure, "scan compact row", err)
		}
		var ch [32]byte
		copy(ch[:], claimHash)
		var amt [32]byte
		copy(amt[32-len(amount):], amount)
		out = append(out, balance.CompactRow{
			ClaimHash: ch,
			Amount:    new(uint256.Int).SetBytes32(amt[:]),
			Expires:   expires,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, "iterate compact rows", err)
	}
	return out, nil
}

// GetByClaimHash returns the API-facing projection of a single compact
// (GET /compact/:chainId/:claimHash).
func (s *Store) GetByClaimHash(ctx context.Context, chainID uint64, claimHash []byte) (*types.CompactRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT chain_id, claim_hash, arbiter, sponsor, lock_id, nonce, expires, amount, witness_type_string, witness_hash, signature
		 FROM compacts WHERE chain_id = ? AND claim_hash = ?`,
		chainID, claimHash,
	)
	rec, err := scanCompactRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "compact not found")
		}
		return nil, err
	}
	return rec, nil
}

// ListBySponsor returns every compact issued to sponsor, most recent last
// (GET /compacts).
func (s *Store) ListBySponsor(ctx context.Context, sponsor []byte) ([]types.CompactRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chain_id, claim_hash, arbiter, sponsor, lock_id, nonce, expires, amount, witness_type_string, witness_hash, signature
		 FROM compacts WHERE sponsor = ? ORDER BY id ASC`,
		sponsor,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, "query compacts by sponsor", err)
	}
	defer rows.Close()

	var out []types.CompactRecord
	for rows.Next() {
		rec, err := scanCompactRecordRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, "iterate compacts by sponsor", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompactRecord(row *sql.Row) (*types.CompactRecord, error) {
	return scanCompactRecordFrom(row)
}

func scanCompactRecordRows(rows *sql.Rows) (*types.CompactRecord, error) {
	return scanCompactRecordFrom(rows)
}

func scanCompactRecordFrom(sc scanner) (*types.CompactRecord, error) {
	var (
		chainID            uint64
		claimHash          []byte
		arbiter            []byte
		sponsor            []byte
		lockID             []byte
		nonce              []byte
		amount             []byte
		sig                []byte
		expires            int64
		witnessTypeString  sql.NullString
		witnessHash        []byte
	)
	if err := sc.Scan(&chainID, &claimHash, &arbiter, &sponsor, &lockID, &nonce, &expires, &amount, &witnessTypeString, &witnessHash, &sig); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.PersistenceFailure, "scan compact record", err)
	}

	var lockIDPadded, amountPadded [32]byte
	copy(lockIDPadded[32-len(lockID):], lockID)
	copy(amountPadded[32-len(amount):], amount)
	lockIDInt := new(uint256.Int).SetBytes32(lockIDPadded[:])
	amountInt := new(uint256.Int).SetBytes32(amountPadded[:])

	rec := &types.CompactRecord{
		ChainID:   chainID,
		Arbiter:   bytesToAddressHex(arbiter),
		Sponsor:   bytesToAddressHex(sponsor),
		ID:        lockIDInt.Dec(),
		Nonce:     hexPrefixed(nonce),
		Expires:   expires,
		Amount:    amountInt.Dec(),
		ClaimHash: hexPrefixed(claimHash),
		Signature: hexPrefixed(sig),
	}
	if witnessTypeString.Valid {
		v := witnessTypeString.String
		rec.WitnessTypeString = &v
	}
	if len(witnessHash) > 0 {
		v := hexPrefixed(witnessHash)
		rec.WitnessHash = &v
	}
	return rec, nil
}
