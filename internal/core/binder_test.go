package core

import (
	"errors"
	"testing"
)

type fakeVerifier struct {
	identity string
	err      error
}

func (f fakeVerifier) VerifyCredential(credential string) (string, error) {
	return f.identity, f.err
}

func TestBindRejectsMissingCredential(t *testing.T) {
	b := NewBinder(fakeVerifier{identity: "alice"})

	if _, err := b.Bind(""); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestBindRejectsFailedVerification(t *testing.T) {
	b := NewBinder(fakeVerifier{err: errors.New("signature mismatch")})

	_, err := b.Bind("some-token")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if errors.Is(err, ErrMissingCredential) {
		t.Fatal("invalid credential must not match ErrMissingCredential")
	}
}

func TestBindRejectsEmptyIdentity(t *testing.T) {
	b := NewBinder(fakeVerifier{identity: ""})

	if _, err := b.Bind("some-token"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestBindReturnsIdentity(t *testing.T) {
	b := NewBinder(fakeVerifier{identity: "alice"})

	identity, err := b.Bind("some-token")
	if err != nil {
		t.Fatalf("expected bind to succeed, got %v", err)
	}
	if identity != "alice" {
		t.Fatalf("expected identity alice, got %q", identity)
	}
}
