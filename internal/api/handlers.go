package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"smallocator/internal/apperr"
	"smallocator/internal/balance"
	"smallocator/internal/chainconfig"
	"smallocator/internal/encoding"
	"smallocator/internal/types"
	"smallocator/internal/validate"
)

// healthResponse is the GET /health body (spec §6).
type healthResponse struct {
	Status           string            `json:"status"`
	AllocatorAddress string            `json:"allocatorAddress"`
	SigningAddress   string            `json:"signingAddress"`
	Timestamp        string            `json:"timestamp"`
	ChainConfig      healthChainConfig `json:"chainConfig"`
}

type healthChainConfig struct {
	DefaultFinalizationThresholdSeconds int64                         `json:"defaultFinalizationThresholdSeconds"`
	SupportedChains                     []chainconfig.SupportedChain `json:"supportedChains"`
}

// Health implements GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:           "healthy",
		AllocatorAddress: encoding.ChecksumString(s.Allocator),
		SigningAddress:   encoding.ChecksumString(s.Identity.Address),
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ChainConfig: healthChainConfig{
			DefaultFinalizationThresholdSeconds: chainconfig.DefaultFinalizationThresholdSeconds,
			SupportedChains:                     chainconfig.SupportedChains(),
		},
	})
}

type sessionPayloadResponse struct {
	Session types.EIP4361Payload `json:"session"`
}

// IssueSessionPayload implements GET /session/:chainId/:address.
func (s *Server) IssueSessionPayload(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chainID, err := validate.ParseChainID(vars["chainId"])
	if err != nil {
		writeError(w, err)
		return
	}
	payload, err := s.Sessions.IssuePayload(chainID, vars["address"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayloadResponse{Session: *payload})
}

type createSessionRequest struct {
	Signature string                `json:"signature"`
	Payload   types.EIP4361Payload `json:"payload"`
}

type sessionSummaryResponse struct {
	Session types.SessionSummary `json:"session"`
}

// CreateSession implements POST /session.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Wrap(apperr.BadRequest, "malformed request body", err))
		return
	}
	summary, err := s.Sessions.Create(r.Context(), req.Signature, req.Payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionSummaryResponse{Session: *summary})
}

// GetSession implements GET /session (authenticated).
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r)
	writeJSON(w, http.StatusOK, sessionSummaryResponse{Session: types.SessionSummary{
		ID: sess.ID, Address: sess.Address, ExpiresAt: sess.ExpiresAt,
	}})
}

type successResponse struct {
	Success bool `json:"success"`
}

// DeleteSession implements DELETE /session (authenticated).
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r)
	if err := s.Sessions.Delete(r.Context(), sess.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

type submitCompactResponse struct {
	Hash      string `json:"hash"`
	Signature string `json:"signature"`
	Nonce     string `json:"nonce"`
}

// SubmitCompact implements POST /compact (authenticated).
func (s *Server) SubmitCompact(w http.ResponseWriter, r *http.Request) {
	var req types.CompactSubmissionInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Wrap(apperr.BadRequest, "malformed request body", err))
		return
	}

	chainID, err := validate.ParseChainID(req.ChainID)
	if err != nil {
		writeError(w, err)
		return
	}
	parsed, err := validate.Parse(req.Compact)
	if err != nil {
		writeError(w, err)
		return
	}

	sess := sessionFromContext(r)
	authenticatedSponsor, err := encoding.ParseAddress(sess.Address)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.PersistenceFailure, "session address is malformed", err))
		return
	}

	result, err := s.Compacts.Submit(r.Context(), chainID, parsed, authenticatedSponsor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitCompactResponse{
		Hash:      result.ClaimHashHex(),
		Signature: result.SignatureHex(),
		Nonce:     result.NonceDecimal(),
	})
}

// ListCompacts implements GET /compacts (authenticated).
func (s *Server) ListCompacts(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r)
	sponsor, err := encoding.ParseAddress(sess.Address)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.PersistenceFailure, "session address is malformed", err))
		return
	}
	records, err := s.Store.ListBySponsor(r.Context(), sponsor.Bytes())
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []types.CompactRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// GetCompact implements GET /compact/:chainId/:claimHash (authenticated).
// A compact that belongs to a different sponsor than the caller is a
// SponsorMismatch (403), not a 404: its existence already leaked through
// routing, and §7 reserves 403 for exactly this case.
func (s *Server) GetCompact(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chainID, err := validate.ParseChainID(vars["chainId"])
	if err != nil {
		writeError(w, err)
		return
	}
	claimHash, err := encoding.ParseHexBytesN(vars["claimHash"], 32)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.BadRequest, "claimHash: "+err.Error(), err))
		return
	}

	rec, err := s.Store.GetByClaimHash(r.Context(), chainID, claimHash)
	if err != nil {
		writeError(w, err)
		return
	}

	sess := sessionFromContext(r)
	if !encoding.ChecksumEqual(rec.Sponsor, sess.Address) {
		writeError(w, apperr.New(apperr.SponsorMismatch, "compact does not belong to the authenticated sponsor"))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type balanceResponse struct {
	AllocatableBalance         string `json:"allocatableBalance"`
	AllocatedBalance           string `json:"allocatedBalance"`
	BalanceAvailableToAllocate string `json:"balanceAvailableToAllocate"`
	WithdrawalStatus           int    `json:"withdrawalStatus"`
}

// GetBalance implements GET /balance/:chainId/:lockId (authenticated).
func (s *Server) GetBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chainID, err := validate.ParseChainID(vars["chainId"])
	if err != nil {
		writeError(w, err)
		return
	}
	lockID, err := encoding.ParseU256Decimal(vars["lockId"])
	if err != nil {
		writeError(w, apperr.Wrap(apperr.BadLockID, "lockId: "+err.Error(), err))
		return
	}

	sess := sessionFromContext(r)
	sponsor, err := encoding.ParseAddress(sess.Address)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.PersistenceFailure, "session address is malformed", err))
		return
	}

	view, err := balance.Query(r.Context(), s.Indexer, s.Balance, s.Allocator, sponsor, chainID, lockID, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		AllocatableBalance:         view.AllocatableBalance.Dec(),
		AllocatedBalance:           view.AllocatedBalance.Dec(),
		BalanceAvailableToAllocate: view.BalanceAvailableToAllocate.Dec(),
		WithdrawalStatus:           view.WithdrawalStatus,
	})
}

type lockBalance struct {
	ChainID                    uint64 `json:"chainId"`
	LockID                     string `json:"lockId"`
	AllocatorAddress           string `json:"allocatorAddress"`
	AllocatableBalance         string `json:"allocatableBalance"`
	AllocatedBalance           string `json:"allocatedBalance"`
	BalanceAvailableToAllocate string `json:"balanceAvailableToAllocate"`
	WithdrawalStatus           int    `json:"withdrawalStatus"`
}

type balancesResponse struct {
	Balances []lockBalance `json:"balances"`
}

// ListBalances implements GET /balances (authenticated): every resource
// lock the indexer knows about for this sponsor that is assigned to this
// allocator, each resolved to a balance view (spec §4.3b + §4.6).
func (s *Server) ListBalances(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r)
	sponsor, err := encoding.ParseAddress(sess.Address)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.PersistenceFailure, "session address is malformed", err))
		return
	}

	locks, err := s.Indexer.GetAllResourceLocks(r.Context(), sponsor)
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now()
	out := make([]lockBalance, 0, len(locks))
	for _, lock := range locks {
		if lock.AllocatorAddress != s.Allocator {
			continue
		}
		view, err := balance.Query(r.Context(), s.Indexer, s.Balance, s.Allocator, sponsor, lock.ChainID, lock.LockID, now)
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, lockBalance{
			ChainID:                    lock.ChainID,
			LockID:                     lock.LockID.Dec(),
			AllocatorAddress:           encoding.ChecksumString(lock.AllocatorAddress),
			AllocatableBalance:         view.AllocatableBalance.Dec(),
			AllocatedBalance:           view.AllocatedBalance.Dec(),
			BalanceAvailableToAllocate: view.BalanceAvailableToAllocate.Dec(),
			WithdrawalStatus:           view.WithdrawalStatus,
		})
	}
	writeJSON(w, http.StatusOK, balancesResponse{Balances: out})
}

type suggestedNonceResponse struct {
	Nonce string `json:"nonce"`
}

// SuggestedNonce implements GET /suggested-nonce/:chainId (authenticated).
func (s *Server) SuggestedNonce(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chainID, err := validate.ParseChainID(vars["chainId"])
	if err != nil {
		writeError(w, err)
		return
	}
	sess := sessionFromContext(r)
	sponsor, err := encoding.ParseAddress(sess.Address)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.PersistenceFailure, "session address is malformed", err))
		return
	}

	nonce, err := s.Compacts.SuggestNonce(r.Context(), chainID, sponsor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestedNonceResponse{Nonce: nonce.Dec()})
}
