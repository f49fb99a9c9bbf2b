// Package store defines the storage collaborator consumed by the
// authorization core. The core only reads through Reader; writes go
// through Writer under optimistic concurrency, where every put carries
// the revision it was read from.
package store

import (
	"context"
	"errors"

	"github.com/avoskresensky/docvault/document"
)

var (
	// ErrNotFound is returned when the referenced document is absent.
	ErrNotFound = errors.New("not found")

	// ErrWriteConflict is returned when a write carries a stale revision.
	// The caller re-reads, reapplies, and retries; the store never
	// retries on its own.
	ErrWriteConflict = errors.New("write conflict")

	// ErrConfiguration is returned when one of the db singletons has an
	// invalid shape. It is surfaced rather than defaulted: silently
	// ignoring it would silently widen or narrow access.
	ErrConfiguration = errors.New("malformed configuration document")
)

// Reader is the read-only surface the rights resolver depends on.
// Implementations must return group query results in a deterministic
// order (sorted by group name) so resolution stays reproducible.
type Reader interface {
	// GetDocument returns the document stored under key together with
	// its current revision, or ErrNotFound.
	GetDocument(ctx context.Context, key string) (document.Document, int64, error)

	// QueryGroupsByUser returns the group documents listing email as a
	// member.
	QueryGroupsByUser(ctx context.Context, email string) ([]document.Document, error)

	// QueryGroupsByUserAndRight returns the names of groups that list
	// email as a member and grant right.
	QueryGroupsByUserAndRight(ctx context.Context, email, right string) ([]string, error)

	// GetGlobalRights returns the decoded db/rights singleton as a map
	// from right name to granted principals. An absent document means no
	// global grants; a malformed one is ErrConfiguration.
	GetGlobalRights(ctx context.Context) (map[string][]string, error)

	// GetDefaultGroups returns the decoded db/defaultGroups singleton.
	GetDefaultGroups(ctx context.Context) (document.DefaultGroups, error)
}

// Writer persists documents under compare-and-set semantics. expectedRev
// is the revision the caller read (0 for creation); a stale value yields
// ErrWriteConflict.
type Writer interface {
	PutDocument(ctx context.Context, key string, doc document.Document, expectedRev int64) (int64, error)
	DeleteDocument(ctx context.Context, key string, expectedRev int64) error
}

// Store is the full collaborator surface.
type Store interface {
	Reader
	Writer
}
