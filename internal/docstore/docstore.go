package docstore

import (
	"context"
	"errors"
	"time"
)

// Document is the schemaless payload stored under a path.
type Document = map[string]any

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrAlreadyExists is returned by Create when the path is occupied.
	ErrAlreadyExists = errors.New("docstore: document already exists")
	// ErrFailedPrecondition is returned when an update's last-updated
	// precondition no longer holds.
	ErrFailedPrecondition = errors.New("docstore: update precondition failed")
	// ErrInvalidPath is returned for paths violating the document-id grammar.
	ErrInvalidPath = errors.New("docstore: invalid document path")
)

// Snapshot is the state of one document at read time. UpdateTime is the
// store-assigned last-modified marker used for optimistic concurrency.
type Snapshot struct {
	Path       string
	ID         string
	Data       Document
	CreateTime time.Time
	UpdateTime time.Time
}

// Precondition guards an update. The zero value imposes no condition.
type Precondition struct {
	lastUpdated time.Time
	conditional bool
}

// None returns an unconditional precondition.
func None() Precondition { return Precondition{} }

// LastUpdated returns a precondition that holds only while the document's
// update time still equals t.
func LastUpdated(t time.Time) Precondition {
	return Precondition{lastUpdated: t, conditional: true}
}

// Query selects documents of one collection by a single equality filter,
// ordered ascending by one field.
type Query struct {
	Field   string
	Equals  any
	OrderBy string
	Limit   int
}

// Store is a transactional, path-addressed document store.
//
// Paths alternate collection and document segments, e.g.
// "users/u1/visits/v1"; every segment must satisfy ValidDocID.
type Store interface {
	// Get reads one document. Missing documents yield ErrNotFound.
	Get(ctx context.Context, path string) (*Snapshot, error)
	// Create writes a new document, failing with ErrAlreadyExists if the
	// path is occupied.
	Create(ctx context.Context, path string, doc Document) error
	// Update applies a field patch to an existing document.
	Update(ctx context.Context, path string, patch Document, pre Precondition) error
	// Query lists documents of the collection matching q.
	Query(ctx context.Context, collectionPath string, q Query) ([]*Snapshot, error)
	// Batch starts an atomic write batch.
	Batch() Batch
}

// Batch queues creates and updates that Commit applies all-or-nothing. A
// failed operation (missing document, occupied path, stale precondition)
// rejects the whole batch.
type Batch interface {
	Create(path string, doc Document)
	Update(path string, patch Document, pre Precondition)
	Commit(ctx context.Context) error
}
