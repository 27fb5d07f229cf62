package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidCredentials hides whether username or password failed.
	// The reason is to prevent account-enumeration side channels.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked signals temporary lockout after repeated failed attempts.
	ErrAccountLocked  = errors.New("account locked")
	ErrSessionRevoked = errors.New("session revoked")
	ErrSessionExpired = errors.New("session expired")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict")
	// ErrForbidden means the caller has no standing on the resource,
	// e.g. trying to settle an expense they owe nothing on.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState marks an operation whose precondition is unmet,
	// e.g. settling an expense that carries no debts.
	ErrInvalidState = errors.New("invalid state")
	// ErrPersistence wraps storage failures so callers can tell an aborted
	// transaction from a domain rejection and assume nothing was persisted.
	ErrPersistence = errors.New("persistence failure")
)
