package core

import "errors"

// Protocol error codes sent to clients in error frames.
const (
	ErrCodeMissingCredential  = "missing_credential"
	ErrCodeInvalidCredential  = "invalid_credential"
	ErrCodeBadRequest         = "bad_request"
	ErrCodeInvalidMessage     = "invalid_message"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeUnsupportedVersion = "unsupported_version"
)

var (
	// ErrMissingCredential is returned by the binder when a handshake
	// carries no credential at all.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidCredential is returned by the binder when a credential is
	// present but fails verification.
	ErrInvalidCredential = errors.New("invalid credential")
)
