// Package store defines the record store contract shared by every backend.
//
// A store holds named collections of schemaless records. Each record carries
// a store-assigned identifier in IDField which is always surfaced to callers
// as a string, whatever the native representation of the backend is.
package store

import (
	"context"

	"github.com/cockroachdb/errors"
)

// IDField is the field holding a record's identifier.
const IDField = "_id"

// Record is one persisted document.
type Record map[string]any

// Filter selects records by exact field equality. A value under IDField is
// the string form of an identifier.
type Filter map[string]any

var (
	// ErrNotFound is returned when no record matches a filter.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when an insert violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInvalidID is returned when an identifier cannot be parsed by the backend.
	ErrInvalidID = errors.New("invalid id")
)

// Store is implemented by every record store backend.
type Store interface {
	// Find returns every record of collection matching filter. An empty
	// filter selects the whole collection.
	Find(ctx context.Context, collection string, filter Filter) ([]Record, error)
	// FindOne returns the first record matching filter or ErrNotFound.
	FindOne(ctx context.Context, collection string, filter Filter) (Record, error)
	// Insert stores rec and returns the stored copy including its identifier.
	Insert(ctx context.Context, collection string, rec Record) (Record, error)
	// Update overwrites the named fields of the first record matching filter
	// and returns the record as it is after the update.
	Update(ctx context.Context, collection string, filter Filter, fields Record) (Record, error)
	// Delete removes every record matching filter.
	Delete(ctx context.Context, collection string, filter Filter) (int64, error)
	Count(ctx context.Context, collection string, filter Filter) (int64, error)
	// EnsureUniqueIndex makes the combination of fields unique in collection.
	EnsureUniqueIndex(ctx context.Context, collection string, fields []string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Clone returns a shallow copy of rec.
func (rec Record) Clone() Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// WithoutID returns a copy of rec with IDField removed. Backends assign
// identifiers themselves and never let callers overwrite them.
func (rec Record) WithoutID() Record {
	out := rec.Clone()
	delete(out, IDField)
	return out
}

// ID returns the identifier of rec as a string, or "" when absent.
func (rec Record) ID() string {
	id, _ := rec[IDField].(string)
	return id
}
