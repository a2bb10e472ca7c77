// Package docstore is the document database boundary: named collections of JSON-like documents
// with per-id CRUD and bounded, ordered scans.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound is returned when a document id does not resolve.
var ErrNotFound = errors.New("document not found")

// Document is a stored document without its id.
type Document map[string]any

// Snapshot is a document together with its id.
type Snapshot struct {
	ID   string
	Data Document
}

// Query bounds and orders a collection scan.
//
// With an empty OrderBy documents are ordered by id ascending and StartAfter is an id cursor.
// StartAfter is ignored when ordering by a field.
type Query struct {
	OrderBy    string
	Descending bool
	Limit      int
	StartAfter string
}

// Store is a collection-oriented document database.
type Store interface {
	// Add stores doc under a new id and returns it.
	Add(ctx context.Context, collection string, doc Document) (string, error)
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Set replaces the whole document, creating it when absent.
	Set(ctx context.Context, collection, id string, doc Document) error
	// Merge overwrites the given top-level fields of an existing document, or returns ErrNotFound.
	Merge(ctx context.Context, collection, id string, fields Document) error
	// Delete removes the document. Deleting a missing id is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Scan returns documents in query order.
	Scan(ctx context.Context, collection string, q Query) ([]Snapshot, error)
	// Close releases the underlying connection.
	Close() error
}

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkQuery(q Query) error {
	if q.OrderBy != "" && !fieldName.MatchString(q.OrderBy) {
		return fmt.Errorf("invalid order field %q", q.OrderBy)
	}
	if q.Limit < 0 {
		return fmt.Errorf("invalid limit %d", q.Limit)
	}
	return nil
}
