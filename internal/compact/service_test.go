package compact

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"smallocator/internal/apperr"
	"smallocator/internal/balance"
	"smallocator/internal/config"
	"smallocator/internal/cryptoutil"
	"smallocator/internal/indexer"
	"smallocator/internal/types"
	"smallocator/internal/validate"
)

const (
	testPrivateKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress       = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// fakeStore is an in-memory Persister + Nonces test double standing in
// for C4, reusing the same (chainId, sponsor, high, low) uniqueness rule
// the real store enforces.
type fakeStore struct {
	consumed     map[string]bool
	compacts     map[[32]byte]bool
	nextCounters map[string]uint64
	staleCounter bool // simulate a stale advisory allocation to force one retry
}

func newFakeStore() *fakeStore {
	return &fakeStore{consumed: map[string]bool{}, compacts: map[[32]byte]bool{}, nextCounters: map[string]uint64{}}
}

func nonceKey(chainID uint64, sponsor, high, low []byte) string {
	return string(sponsor) + string(high) + string(low)
}

func (f *fakeStore) NonceConsumed(ctx context.Context, chainID uint64, sponsor, high, low []byte) (bool, error) {
	return f.consumed[nonceKey(chainID, sponsor, high, low)], nil
}

func (f *fakeStore) NextCounter(ctx context.Context, chainID uint64, sponsor []byte) (*uint256.Int, error) {
	if f.staleCounter {
		f.staleCounter = false // only the first allocation is stale
		return uint256.NewInt(0), nil
	}
	return uint256.NewInt(f.nextCounters[string(sponsor)]), nil
}

func (f *fakeStore) InsertCompact(ctx context.Context, sc types.StoredCompact) error {
	nonceBytes := sc.ConcreteNonce.Bytes32()
	k := nonceKey(sc.ChainID, sc.Compact.Sponsor.Bytes(), nonceBytes[:20], nonceBytes[20:])
	if f.consumed[k] || f.compacts[sc.ClaimHash] {
		return apperr.New(apperr.NonceRaced, "nonce consumed by a concurrent submission")
	}
	f.consumed[k] = true
	f.compacts[sc.ClaimHash] = true
	f.nextCounters[string(sc.Compact.Sponsor.Bytes())]++
	return nil
}

type fakeIndexer struct {
	details *indexer.CompactDetails
}

func (f *fakeIndexer) GetCompactDetails(ctx context.Context, allocator, sponsor common.Address, lockID *uint256.Int, chainID uint64, finalizationThresholdSeconds int64) (*indexer.CompactDetails, error) {
	return f.details, nil
}

func (f *fakeIndexer) GetAllResourceLocks(ctx context.Context, sponsor common.Address) ([]indexer.ResourceLock, error) {
	return nil, nil
}

type fakeBalanceReader struct{}

func (fakeBalanceReader) RowsForLock(ctx context.Context, sponsor []byte, chainID uint64, lockID []byte) ([]balance.CompactRow, error) {
	return nil, nil
}

func lockID(allocatorID, resetPeriodIndex uint64) *uint256.Int {
	id := new(uint256.Int).Lsh(uint256.NewInt(allocatorID), 160)
	idx := new(uint256.Int).Lsh(uint256.NewInt(resetPeriodIndex), 252)
	return new(uint256.Int).Or(id, idx)
}

func newService(t *testing.T, balanceDec string) (*Service, *fakeStore) {
	t.Helper()
	bal, err := uint256.FromDecimal(balanceDec)
	if err != nil {
		t.Fatalf("bad balance fixture %q", balanceDec)
	}
	details := &indexer.CompactDetails{
		AllocatorID:  uint256.NewInt(1),
		ResourceLock: &indexer.ResourceLockInfo{WithdrawalStatus: 0, Balance: bal},
	}
	id, err := cryptoutil.LoadIdentity(testPrivateKeyHex, testAddress)
	if err != nil {
		t.Fatalf("load identity: %v", err)
	}
	store := newFakeStore()
	svc := &Service{
		Validate: &validate.Pipeline{
			Nonces:  store,
			Indexer: &fakeIndexer{details: details},
			Balance: fakeBalanceReader{},
			Config:  &config.Config{},
		},
		Nonces:    store,
		Store:     store,
		Identity:  id,
		Allocator: common.HexToAddress(testAddress),
	}
	return svc, store
}

func sampleCompact(nonce types.NonceInput) *types.Compact {
	sponsor := common.HexToAddress(testAddress)
	return &types.Compact{
		Arbiter: sponsor,
		Sponsor: sponsor,
		ID:      lockID(1, 7),
		Nonce:   nonce,
		Expires: time.Now().Unix() + 3600,
		Amount:  uint256.NewInt(1_000_000_000_000_000_000),
	}
}

func TestSubmitHappyPathWithExplicitNonce(t *testing.T) {
	svc, _ := newService(t, "1000000000000000000000")
	sponsor := common.HexToAddress(testAddress)

	var nonceBytes [32]byte
	copy(nonceBytes[:20], sponsor.Bytes())
	c := sampleCompact(types.SomeNonce(new(uint256.Int).SetBytes32(nonceBytes[:])))

	result, err := svc.Submit(context.Background(), 1, c, sponsor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ClaimHashHex() == "" || result.SignatureHex() == "" {
		t.Fatalf("expected populated claim hash/signature, got %+v", result)
	}

	// Re-submit with the same nonce -> NonceAlreadyConsumed (spec S3).
	c2 := sampleCompact(types.SomeNonce(new(uint256.Int).SetBytes32(nonceBytes[:])))
	_, err = svc.Submit(context.Background(), 1, c2, sponsor)
	if !apperr.As(err, apperr.NonceAlreadyConsumed) {
		t.Fatalf("expected NonceAlreadyConsumed on resubmission, got %v", err)
	}
}

func TestSubmitAllocatesNonceWhenUnset(t *testing.T) {
	svc, store := newService(t, "1000000000000000000000")
	sponsor := common.HexToAddress(testAddress)
	c := sampleCompact(types.NoNonce)

	result, err := svc.Submit(context.Background(), 1, c, sponsor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Nonce == nil {
		t.Fatal("expected an allocated nonce")
	}
	if len(store.compacts) != 1 {
		t.Fatalf("expected exactly one stored compact, got %d", len(store.compacts))
	}
}

func TestSubmitRejectsSponsorMismatch(t *testing.T) {
	svc, _ := newService(t, "1000000000000000000000")
	c := sampleCompact(types.NoNonce)

	_, err := svc.Submit(context.Background(), 1, c, common.HexToAddress("0x0000000000000000000000000000000000000001"))
	if !apperr.As(err, apperr.SponsorMismatch) {
		t.Fatalf("expected SponsorMismatch, got %v", err)
	}
}

func TestSubmitInsufficientBalance(t *testing.T) {
	svc, _ := newService(t, "500000000000000000")
	sponsor := common.HexToAddress(testAddress)
	c := sampleCompact(types.NoNonce)

	_, err := svc.Submit(context.Background(), 1, c, sponsor)
	if !apperr.As(err, apperr.InsufficientBalance) {
		t.Fatalf("expected InsufficientBalance, got %v", err)
	}
}

func TestSubmitRetriesOnceAfterNonceRace(t *testing.T) {
	svc, store := newService(t, "1000000000000000000000")
	sponsor := common.HexToAddress(testAddress)

	// Consume counter 0 with a first submission, then force the
	// allocator's next NextCounter call to return the now-stale value 0:
	// validation finds that nonce already consumed and Submit must retry
	// with a fresh allocation before succeeding.
	first, err := svc.Submit(context.Background(), 1, sampleCompact(types.NoNonce), sponsor)
	if err != nil {
		t.Fatalf("unexpected error on first submission: %v", err)
	}
	if first.Nonce.Uint64() != 0 {
		t.Fatalf("expected first allocated nonce counter 0, got %s", first.NonceDecimal())
	}

	store.staleCounter = true
	second, err := svc.Submit(context.Background(), 1, sampleCompact(types.NoNonce), sponsor)
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if second.Nonce.Uint64() != 1 {
		t.Fatalf("expected retried submission to land on counter 1, got %s", second.NonceDecimal())
	}
}

func TestSubmitClaimHashDeterministic(t *testing.T) {
	svc, _ := newService(t, "1000000000000000000000")
	sponsor := common.HexToAddress(testAddress)

	var nonceBytes [32]byte
	copy(nonceBytes[:20], sponsor.Bytes())
	nonce := types.SomeNonce(new(uint256.Int).SetBytes32(nonceBytes[:]))

	result, err := svc.Submit(context.Background(), 1, sampleCompact(nonce), sponsor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recovered, err := cryptoutil.RecoverSigner(result.ClaimHash, result.Signature)
	if err != nil {
		t.Fatalf("recover signer: %v", err)
	}
	if recovered != svc.Identity.Address {
		t.Errorf("recovered signer = %s, want %s", recovered.Hex(), svc.Identity.Address.Hex())
	}
}
