package service

import "errors"

var (
	// ErrNotRegistered means the caller has no stored user profile.
	ErrNotRegistered = errors.New("user is not registered")
	// ErrAlreadyRegistered means a profile already exists for the identity.
	ErrAlreadyRegistered = errors.New("user is already registered")
	// ErrNotFound means an addressed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConcurrentModification means another writer updated the record
	// between read and conditional write; callers may re-fetch and retry.
	ErrConcurrentModification = errors.New("record was modified concurrently")
	// ErrInvalidID means an id violates the document-id grammar.
	ErrInvalidID = errors.New("invalid document id")
	// ErrInvalidName means a profile name is empty or too long after
	// normalization.
	ErrInvalidName = errors.New("invalid name")
	// ErrIndeterminate means the request was cancelled while a batch was
	// committing; the outcome is unknown and the caller must re-query.
	ErrIndeterminate = errors.New("request cancelled during commit, outcome unknown")
	// ErrAccountDisabled means the target auth account is disabled.
	ErrAccountDisabled = errors.New("account is disabled")
)
