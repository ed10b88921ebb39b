// Package docstore defines the contract this application has with its
// document-store backend: documents are opaque field maps guarded by
// per-document access-control lists, and the store itself enforces those
// lists. The application never talks to a database directly; every
// component receives a Client and an immutable Config at construction.
package docstore

import (
	"context"
	"errors"
)

// Collection identifiers are configuration, not constants, so tests and
// multi-environment deployments can point the same code at different
// collections.
type Config struct {
	Database    string
	Groups      string
	Memberships string
	Persons     string
	Quotes      string
	Invites     string
}

// DefaultConfig returns the collection names used in production.
func DefaultConfig() Config {
	return Config{
		Database:    "quotes",
		Groups:      "groups",
		Memberships: "memberships",
		Persons:     "persons",
		Quotes:      "quotes",
		Invites:     "invites",
	}
}

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a write violates a store-side
	// uniqueness constraint.
	ErrConflict = errors.New("document conflict")
)

// Document is a stored record: an ID, a flat field map, and the ACL the
// store enforces on it.
type Document struct {
	ID     string
	Fields map[string]any
	ACL    ACL
}

// Filter is an equality constraint on a single field.
type Filter struct {
	Field string
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Query selects documents in a collection. Offset/limit paging only; the
// store returns documents in a stable order so look-ahead pagination
// (fetch limit, a short page means done) terminates.
type Query struct {
	Filters []Filter
	Limit   int64
	Offset  int64
}

// Page is one page of query results.
type Page struct {
	Documents []Document
}

// Client is the document-store API consumed by every component.
//
// Update semantics: a nil fields map leaves fields untouched; a nil ACL
// leaves permissions untouched. All methods may return ErrNotFound,
// ErrConflict, or a transient backend error; callers treat transient
// errors as retryable because every multi-step operation in this
// application is resumable.
type Client interface {
	Create(ctx context.Context, collection, id string, fields map[string]any, acl ACL) error
	Get(ctx context.Context, collection, id string) (Document, error)
	List(ctx context.Context, collection string, q Query) (Page, error)
	Update(ctx context.Context, collection, id string, fields map[string]any, acl ACL) error
	Delete(ctx context.Context, collection, id string) error
}
