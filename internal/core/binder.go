package core

import "fmt"

// CredentialVerifier turns opaque credential material into an identity. The
// auth service implements it; the core never learns how verification works.
type CredentialVerifier interface {
	VerifyCredential(credential string) (identity string, err error)
}

// Binder validates the credential presented at handshake and produces the
// identity a connection is bound to. It runs once per connection attempt,
// before registration; a rejection is terminal for that attempt. The binder
// never touches the registry or the log.
type Binder struct {
	verifier CredentialVerifier
}

// NewBinder constructs a binder delegating verification to v.
func NewBinder(v CredentialVerifier) *Binder {
	return &Binder{verifier: v}
}

// Bind returns the identity for the given credential material.
// An absent credential yields ErrMissingCredential; a present but
// unverifiable one yields ErrInvalidCredential.
func (b *Binder) Bind(credential string) (string, error) {
	if credential == "" {
		return "", ErrMissingCredential
	}

	identity, err := b.verifier.VerifyCredential(credential)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if identity == "" {
		return "", ErrInvalidCredential
	}
	return identity, nil
}
