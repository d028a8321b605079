package docstore

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxDocIDLength is the longest permitted path segment.
const MaxDocIDLength = 1500

// ValidDocID reports whether id is a legal document or collection id:
// non-empty, not "." or "..", no "/", at most one "__" occurrence, and at
// most MaxDocIDLength characters. Transport validators and the core share
// this single predicate.
func ValidDocID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	if len(id) > MaxDocIDLength {
		return false
	}
	if strings.ContainsRune(id, '/') {
		return false
	}
	if i := strings.Index(id, "__"); i >= 0 && strings.Contains(id[i+2:], "__") {
		return false
	}
	return true
}

// Join builds a path from already-validated segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// SplitPath validates and splits a document path. A document path has an
// even number of segments (collection/id pairs); a collection path an odd
// number.
func SplitPath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	segments := strings.Split(path, "/")
	for _, s := range segments {
		if !ValidDocID(s) {
			return nil, fmt.Errorf("%w: bad segment %q in %q", ErrInvalidPath, s, path)
		}
	}
	return segments, nil
}

// splitDocPath splits a document path into its parent collection path, the
// document id, and the name of the innermost collection.
func splitDocPath(path string) (parent, id, collection string, err error) {
	segments, err := SplitPath(path)
	if err != nil {
		return "", "", "", err
	}
	if len(segments)%2 != 0 {
		return "", "", "", fmt.Errorf("%w: %q is not a document path", ErrInvalidPath, path)
	}
	id = segments[len(segments)-1]
	collection = segments[len(segments)-2]
	parent = strings.Join(segments[:len(segments)-1], "/")
	return parent, id, collection, nil
}

// splitCollectionPath validates a collection path and returns the innermost
// collection name.
func splitCollectionPath(path string) (collection string, err error) {
	segments, err := SplitPath(path)
	if err != nil {
		return "", err
	}
	if len(segments)%2 != 1 {
		return "", fmt.Errorf("%w: %q is not a collection path", ErrInvalidPath, path)
	}
	return segments[len(segments)-1], nil
}

// NewID generates a store-unique document id.
func NewID() string {
	return primitive.NewObjectID().Hex()
}
