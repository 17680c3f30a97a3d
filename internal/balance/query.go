package balance

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"smallocator/internal/apperr"
	"smallocator/internal/chainconfig"
	"smallocator/internal/indexer"
)

// View is the GET /balance/:chainId/:lockId response shape (spec §6). It
// reuses the same allocatable/outstanding arithmetic stage 6 of the
// validation pipeline applies, minus the amount-sufficiency check, since
// here there is no candidate amount to test against.
type View struct {
	AllocatableBalance         *uint256.Int
	AllocatedBalance           *uint256.Int
	BalanceAvailableToAllocate *uint256.Int
	WithdrawalStatus           int
}

// Query computes the balance view for (sponsor, chainId, lockId) as owned
// by allocator. Balances are strictly lock-scoped (spec §10, redesign
// flag 3): a resource lock absent for this exact (sponsor, chainId,
// lockId) triple is ResourceLockNotFound, never silently substituted with
// a sponsor-wide balance.
func Query(ctx context.Context, idx indexer.Client, r Reader, allocator, sponsor common.Address, chainID uint64, lockID *uint256.Int, now time.Time) (*View, error) {
	finalization := chainconfig.FinalizationThreshold(chainID)

	details, err := idx.GetCompactDetails(ctx, allocator, sponsor, lockID, chainID, finalization)
	if err != nil {
		return nil, err
	}
	if details.ResourceLock == nil {
		return nil, apperr.New(apperr.ResourceLockNotFound, "indexer reports no resource lock for this sponsor/chain/id")
	}

	allocatable := Allocatable(details.ResourceLock.Balance, details.DeltasPositiveSinceFinalization)

	idBytes := lockID.Bytes32()
	outstanding, err := Outstanding(ctx, r, sponsor.Bytes(), chainID, idBytes[:], details.RecentClaimHashesWithinWindow, now)
	if err != nil {
		return nil, err
	}

	available := new(uint256.Int)
	if allocatable.Gt(outstanding) || allocatable.Eq(outstanding) {
		available = new(uint256.Int).Sub(allocatable, outstanding)
	}

	return &View{
		AllocatableBalance:         allocatable,
		AllocatedBalance:           outstanding,
		BalanceAvailableToAllocate: available,
		WithdrawalStatus:           details.ResourceLock.WithdrawalStatus,
	}, nil
}
