package auth

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("auth: account not found")
	// ErrAccountExists is returned by Create for an occupied email.
	ErrAccountExists = errors.New("auth: account already exists")
	// ErrInvalidCredentials is returned for a bad email/password pair.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidToken is returned for tokens that fail verification.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrAccountDisabled is returned for operations on disabled accounts.
	ErrAccountDisabled = errors.New("auth: account is disabled")
)

// Identity is a verified caller: the token's subject plus its claims.
type Identity struct {
	SubjectID     string
	Email         string
	EmailVerified bool
	Role          string
}

// Record is a stored authentication account.
type Record struct {
	ID            string
	Email         string
	EmailVerified bool
	Disabled      bool
	Role          string
}

// Provider issues and verifies credentials and manages account records.
type Provider interface {
	// Verify checks a bearer token and returns the identity it asserts.
	Verify(ctx context.Context, token string) (*Identity, error)
	// IssueToken authenticates email/password and returns a signed token.
	IssueToken(ctx context.Context, email, password string) (string, error)
	// Create registers a new account.
	Create(ctx context.Context, email, password string, emailVerified bool) (*Record, error)
	// Lookup fetches an account by subject id.
	Lookup(ctx context.Context, id string) (*Record, error)
	// LookupByEmail fetches an account by email.
	LookupByEmail(ctx context.Context, email string) (*Record, error)
	// SetRole replaces the account's role claim.
	SetRole(ctx context.Context, id, role string) error
	// Disable blocks the account from future token issuance.
	Disable(ctx context.Context, id string) error
}
