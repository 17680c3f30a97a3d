package validate

import (
	"bytes"
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"smallocator/internal/apperr"
	"smallocator/internal/balance"
	"smallocator/internal/chainconfig"
	"smallocator/internal/config"
	"smallocator/internal/indexer"
	"smallocator/internal/types"
)

// NonceChecker is the persistence dependency stage 3 needs (C4).
type NonceChecker interface {
	NonceConsumed(ctx context.Context, chainID uint64, sponsor, high, low []byte) (bool, error)
}

// Pipeline bundles stage 3-6's dependencies: the anti-replay store, the
// indexer client, the local balance reader, and the boot-time config (for
// the id==1 test bypass).
type Pipeline struct {
	Nonces  NonceChecker
	Indexer indexer.Client
	Balance balance.Reader
	Config  *config.Config
}

// Validate runs stages 3 through 6 against an already-structurally-parsed
// compact (stage 1/2 already done by ParseChainID/Parse). allocator is the
// allocator's own configured address, passed to the indexer as the
// allocator identity to query against.
func (p *Pipeline) Validate(ctx context.Context, chainID uint64, c *types.Compact, allocator common.Address, now time.Time) error {
	if err := p.checkNonce(ctx, chainID, c); err != nil {
		return err
	}
	if err := checkExpiration(c, now); err != nil {
		return err
	}
	if err := p.checkDomainID(c, now); err != nil {
		return err
	}
	if err := p.checkSolvency(ctx, chainID, c, allocator, now); err != nil {
		return err
	}
	return nil
}

// checkNonce implements stage 3. It is a no-op if the nonce is unset; C8
// allocates a nonce before it calls Validate, so its calls always carry one.
func (p *Pipeline) checkNonce(ctx context.Context, chainID uint64, c *types.Compact) error {
	if !c.Nonce.IsSet() {
		return nil
	}
	nonceBytes := c.Nonce.Value().Bytes32()
	high := nonceBytes[:20]
	low := nonceBytes[20:]
	sponsorBytes := c.Sponsor.Bytes()

	if !bytes.Equal(high, sponsorBytes) {
		return apperr.New(apperr.BadNonceShape, "nonce's high 160 bits must equal the sponsor address")
	}

	consumed, err := p.Nonces.NonceConsumed(ctx, chainID, sponsorBytes, high, low)
	if err != nil {
		return err
	}
	if consumed {
		return apperr.New(apperr.NonceAlreadyConsumed, "nonce already consumed")
	}
	return nil
}

// checkExpiration implements stage 4: now < expires <= now + 7200.
func checkExpiration(c *types.Compact, now time.Time) error {
	nowUnix := now.Unix()
	if c.Expires <= nowUnix {
		return apperr.New(apperr.ExpiredCompact, "expires must be strictly in the future")
	}
	if c.Expires > nowUnix+7200 {
		return apperr.New(apperr.ExpiresTooFar, "expires is more than 7200 seconds out")
	}
	return nil
}

// checkDomainID implements stage 5: the reset period encoded in id must
// cover the time remaining until expiry. The id==1 test bypass (Open
// Question #1) short-circuits this stage entirely when enabled.
func (p *Pipeline) checkDomainID(c *types.Compact, now time.Time) error {
	if p.Config != nil && p.Config.TestAcceptLockIDOne && c.ID.IsUint64() && c.ID.Uint64() == 1 {
		return nil
	}
	resetPeriod := chainconfig.ResetPeriods[c.ResetPeriodIndex()]
	if now.Unix()+resetPeriod < c.Expires {
		return apperr.New(apperr.ResetPeriodTooShort, "reset period is shorter than the time remaining until expiry")
	}
	return nil
}

// checkSolvency implements stage 6: the indexer must show an unlocked
// resource lock owned by this allocator with enough headroom for the
// compact's amount on top of everything already outstanding locally.
func (p *Pipeline) checkSolvency(ctx context.Context, chainID uint64, c *types.Compact, allocator common.Address, now time.Time) error {
	finalization := chainconfig.FinalizationThreshold(chainID)

	details, err := p.Indexer.GetCompactDetails(ctx, allocator, c.Sponsor, c.ID, chainID, finalization)
	if err != nil {
		return err
	}
	if details.ResourceLock == nil {
		return apperr.New(apperr.ResourceLockNotFound, "indexer reports no resource lock for this sponsor/chain/id")
	}
	if details.ResourceLock.WithdrawalStatus != 0 {
		return apperr.New(apperr.ForcedWithdrawalActive, "resource lock is in forced withdrawal")
	}
	if details.AllocatorID == nil || !details.AllocatorID.Eq(c.AllocatorID()) {
		return apperr.New(apperr.AllocatorMismatch, "indexer's allocatorId does not match id's embedded allocatorId")
	}

	allocatable := balance.Allocatable(details.ResourceLock.Balance, details.DeltasPositiveSinceFinalization)

	idBytes := c.ID.Bytes32()
	outstanding, err := balance.Outstanding(ctx, p.Balance, c.Sponsor.Bytes(), chainID, idBytes[:], details.RecentClaimHashesWithinWindow, now)
	if err != nil {
		return err
	}

	required := new(uint256.Int).Add(outstanding, c.Amount)
	if allocatable.Lt(required) {
		return apperr.Insufficient(allocatable.Dec(), required.Dec())
	}
	return nil
}
