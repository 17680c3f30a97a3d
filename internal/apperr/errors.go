// Package apperr defines the closed set of error kinds the allocation
// pipeline can raise and the HTTP status each maps to. Every stage of the
// pipeline returns one of these instead of an ad-hoc error so the API layer
// has a single table to consult (spec §7).
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a distinguishable failure reason. It is intentionally a
// small closed enum rather than an open string so the HTTP-status table in
// Status stays exhaustive.
type Kind string

const (
	BadAddress      Kind = "BadAddress"
	BadAmount       Kind = "BadAmount"
	BadNonceShape   Kind = "BadNonceShape"
	BadWitnessPair  Kind = "BadWitnessPair"
	BadExpires      Kind = "BadExpires"
	BadID           Kind = "BadId"
	BadChainID      Kind = "BadChainId"
	BadLockID       Kind = "BadLockId"
	BadRequest      Kind = "BadRequest"

	ExpiredCompact Kind = "ExpiredCompact"
	ExpiresTooFar  Kind = "ExpiresTooFar"

	ResetPeriodTooShort Kind = "ResetPeriodTooShort"

	NonceAlreadyConsumed Kind = "NonceAlreadyConsumed"
	NonceRaced           Kind = "NonceRaced"

	SponsorMismatch Kind = "SponsorMismatch"

	SessionMissing     Kind = "SessionMissing"
	SessionInvalid     Kind = "SessionInvalid"
	SessionExpired     Kind = "SessionExpired"
	SessionNonceReplay Kind = "SessionNonceReplay"

	ResourceLockNotFound   Kind = "ResourceLockNotFound"
	AllocatorMismatch      Kind = "AllocatorMismatch"
	ForcedWithdrawalActive Kind = "ForcedWithdrawalActive"
	InsufficientBalance    Kind = "InsufficientBalance"

	IndexerUnavailable Kind = "IndexerUnavailable"
	PersistenceFailure Kind = "PersistenceFailure"
	SigningFailure     Kind = "SigningFailure"

	NotFound Kind = "NotFound"
)

// statusByKind is the single source of truth for §7's tag-to-status table.
var statusByKind = map[Kind]int{
	BadAddress:             http.StatusBadRequest,
	BadAmount:              http.StatusBadRequest,
	BadNonceShape:          http.StatusBadRequest,
	BadWitnessPair:         http.StatusBadRequest,
	BadExpires:             http.StatusBadRequest,
	BadID:                  http.StatusBadRequest,
	BadChainID:             http.StatusBadRequest,
	BadLockID:              http.StatusBadRequest,
	BadRequest:             http.StatusBadRequest,
	ExpiredCompact:         http.StatusBadRequest,
	ExpiresTooFar:          http.StatusBadRequest,
	ResetPeriodTooShort:    http.StatusBadRequest,
	NonceAlreadyConsumed:   http.StatusBadRequest,
	NonceRaced:             http.StatusBadRequest,
	SponsorMismatch:        http.StatusForbidden,
	SessionMissing:         http.StatusUnauthorized,
	SessionInvalid:         http.StatusUnauthorized,
	SessionExpired:         http.StatusUnauthorized,
	SessionNonceReplay:     http.StatusBadRequest,
	ResourceLockNotFound:   http.StatusBadRequest,
	AllocatorMismatch:      http.StatusBadRequest,
	ForcedWithdrawalActive: http.StatusBadRequest,
	InsufficientBalance:    http.StatusBadRequest,
	IndexerUnavailable:     http.StatusInternalServerError,
	PersistenceFailure:     http.StatusInternalServerError,
	SigningFailure:         http.StatusInternalServerError,
	NotFound:               http.StatusNotFound,
}

// Error is the error type every pipeline stage returns. It wraps an
// underlying cause (if any) so %w unwrapping keeps working for logging.
type Error struct {
	Kind Kind
	Msg  string
	Have string
	Need string
	err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.err }

// Status returns the HTTP status code this error should produce. Unknown
// kinds (should not happen for a closed enum) fall back to 500.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New builds an Error with the given kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an Error carrying kind that records cause for %w unwrapping
// without leaking cause's text into the user-visible message.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, err: cause}
}

// Insufficient builds the InsufficientBalance error with structured
// have/need fields, echoed by the API layer in the JSON error body.
func Insufficient(have, need string) *Error {
	return &Error{
		Kind: InsufficientBalance,
		Msg:  fmt.Sprintf("insufficient balance: have %s, need %s", have, need),
		Have: have,
		Need: need,
	}
}

// As reports whether err (or anything it wraps) is an *Error of kind k.
func As(err error, k Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == k {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
