package api

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"smallocator/internal/balance"
	"smallocator/internal/compact"
	"smallocator/internal/config"
	"smallocator/internal/cryptoutil"
	"smallocator/internal/indexer"
	"smallocator/internal/session"
	"smallocator/internal/types"
)

// CompactStore is the C4 read surface GET /compacts and
// GET /compact/:chainId/:claimHash need; *store.Store satisfies it.
type CompactStore interface {
	ListBySponsor(ctx context.Context, sponsor []byte) ([]types.CompactRecord, error)
	GetByClaimHash(ctx context.Context, chainID uint64, claimHash []byte) (*types.CompactRecord, error)
}

// Server holds every dependency the handlers need. One instance is built
// at boot and shared across requests, mirroring store.Store's own single-
// instance-shared-across-requests pattern.
type Server struct {
	Config    *config.Config
	Sessions  *session.Service
	Compacts  *compact.Service
	Store     CompactStore
	Indexer   indexer.Client
	Balance   balance.Reader
	Identity  *cryptoutil.Identity
	Allocator common.Address
}
