// Package indexer is a thin typed client over the on-chain-state oracle's
// GraphQL endpoint (spec §4.3, C3). No GraphQL *client* library exists
// anywhere in the example pack — graph-gophers/graphql-go (used by
// ethereum-go-ethereum's own /graphql endpoint) is a server framework, the
// wrong shape for an outbound client — so this is a minimal
// net/http + encoding/json POST client, the same wire protocol any
// GraphQL-over-HTTP client reduces to. See DESIGN.md.
package indexer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ResourceLockInfo is the resourceLock sub-object of getCompactDetails.
type ResourceLockInfo struct {
	WithdrawalStatus int
	Balance          *uint256.Int
}

// CompactDetails is the full getCompactDetails response (spec §4.3a).
type CompactDetails struct {
	AllocatorID                   *uint256.Int // nil if the indexer has no record
	DeltasPositiveSinceFinalization []*uint256.Int
	ResourceLock                   *ResourceLockInfo // nil if no resource lock exists
	RecentClaimHashesWithinWindow   [][32]byte
}

// ResourceLock is one element of getAllResourceLocks (spec §4.3b).
type ResourceLock struct {
	ChainID          uint64
	LockID           *uint256.Int
	AllocatorAddress common.Address
}

// Client is the interface the validation pipeline (C7) and balance engine
// consume. A real Client and a test double both satisfy it.
type Client interface {
	GetCompactDetails(ctx context.Context, allocator, sponsor common.Address, lockID *uint256.Int, chainID uint64, finalizationThresholdSeconds int64) (*CompactDetails, error)
	GetAllResourceLocks(ctx context.Context, sponsor common.Address) ([]ResourceLock, error)
}
