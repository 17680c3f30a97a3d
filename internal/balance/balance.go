// Package balance implements the allocation accounting engine (spec §4.6,
// C6): how much of a sponsor's locked balance is already promised away by
// locally-issued compacts.
package balance

import (
	"context"
	"time"

	"github.com/holiman/uint256"

	"smallocator/internal/chainconfig"
)

// CompactRow is the minimal shape this package needs from persistence: the
// store package returns these directly, keeping the balance engine a pure
// function over data handed to it rather than a consumer of *store.Store.
type CompactRow struct {
	ClaimHash [32]byte
	Amount    *uint256.Int
	Expires   int64
}

// Reader fetches the raw local compact rows for (sponsor, chainId, lockId).
type Reader interface {
	RowsForLock(ctx context.Context, sponsor []byte, chainID uint64, lockID []byte) ([]CompactRow, error)
}

// Outstanding computes the sum of amounts over locally-stored compacts for
// (sponsor, chainId, lockId) that are still outstanding: not yet expired
// past the finalization cushion, and not already observed as processed
// on-chain (spec §4.6).
//
// now < expires + finalizationThreshold(chainId), and claimHash is absent
// from processedClaimHashes.
func Outstanding(ctx context.Context, r Reader, sponsor []byte, chainID uint64, lockID []byte, processedClaimHashes [][32]byte, now time.Time) (*uint256.Int, error) {
	rows, err := r.RowsForLock(ctx, sponsor, chainID, lockID)
	if err != nil {
		return nil, err
	}

	processed := make(map[[32]byte]struct{}, len(processedClaimHashes))
	for _, h := range processedClaimHashes {
		processed[h] = struct{}{}
	}

	finalization := chainconfig.FinalizationThreshold(chainID)
	nowUnix := now.Unix()

	sum := uint256.NewInt(0)
	for _, row := range rows {
		if _, seen := processed[row.ClaimHash]; seen {
			continue
		}
		if nowUnix >= row.Expires+finalization {
			continue
		}
		sum = new(uint256.Int).Add(sum, row.Amount)
	}
	return sum, nil
}

// Allocatable computes max(0, onChainBalance - pending) where pending is
// the sum of positive deltas reported since the finalization window (spec
// §4.7 stage 6).
func Allocatable(onChainBalance *uint256.Int, pendingDeltas []*uint256.Int) *uint256.Int {
	pending := uint256.NewInt(0)
	for _, d := range pendingDeltas {
		pending = new(uint256.Int).Add(pending, d)
	}
	if pending.Gt(onChainBalance) {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Sub(onChainBalance, pending)
}
