package service

import (
	"context"
	"errors"

	"telemed/internal/auth"
	"telemed/internal/docstore"
)

// IdentityContext carries one request's verified identity and lazily
// resolves its stored profile, caching the single read. Not safe for use
// from multiple goroutines; build one per request.
type IdentityContext struct {
	identity auth.Identity
	store    docstore.Store
	fetched  bool
	profile  *docstore.Snapshot
}

// NewIdentityContext wraps a verified identity.
func NewIdentityContext(identity auth.Identity, store docstore.Store) *IdentityContext {
	return &IdentityContext{identity: identity, store: store}
}

// Identity returns the verified claims.
func (c *IdentityContext) Identity() auth.Identity { return c.identity }

// SubjectID returns the authenticated subject id, empty if unauthenticated.
func (c *IdentityContext) SubjectID() string { return c.identity.SubjectID }

// Role returns the caller's role claim, empty if none.
func (c *IdentityContext) Role() string { return c.identity.Role }

// Profile fetches the caller's profile document at users/{uid}. It returns
// (nil, nil) when no profile exists, and caches the result either way.
func (c *IdentityContext) Profile(ctx context.Context) (*docstore.Snapshot, error) {
	if c.fetched {
		return c.profile, nil
	}
	if c.identity.SubjectID == "" {
		return nil, nil
	}
	snap, err := c.store.Get(ctx, docstore.Join("users", c.identity.SubjectID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			c.fetched = true
			return nil, nil
		}
		return nil, err
	}
	c.fetched = true
	c.profile = snap
	return snap, nil
}
