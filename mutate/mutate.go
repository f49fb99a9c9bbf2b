// Package mutate implements the caller-side read-modify-write loop the
// optimistic concurrency model requires: read the current revision, apply
// the change, validate, attempt the write, and on conflict re-read and
// reapply, bounded by a retry limit. This loop is the only concurrency
// primitive callers need; the core itself never blocks or retries.
package mutate

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/avoskresensky/docvault/document"
	"github.com/avoskresensky/docvault/store"
	"github.com/avoskresensky/docvault/validate"
)

// ApplyFn transforms the current document state into the proposed one.
// current is a deep copy (nil on creation) that may be modified in place
// and returned.
type ApplyFn func(current document.Document) (document.Document, error)

// Update runs a bounded read-modify-write cycle against key. Validation
// failures abort immediately; only write conflicts are retried, with a
// short fibonacci backoff. maxRetries bounds the retries after the first
// attempt.
func Update(ctx context.Context, st store.Store, v *validate.Validator, key, principal string, apply ApplyFn, maxRetries uint64) error {
	backoff := retry.WithMaxRetries(maxRetries, retry.NewFibonacci(5*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		current, rev, err := st.GetDocument(ctx, key)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		var previous document.Document
		if current != nil {
			previous = current
			current = current.Clone()
		}

		next, err := apply(current)
		if err != nil {
			return err
		}
		if err := v.ValidateWrite(next, previous, principal); err != nil {
			return err
		}

		if _, err := st.PutDocument(ctx, key, next, rev); err != nil {
			if errors.Is(err, store.ErrWriteConflict) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}

// Delete removes the document under key with the same conflict-retry
// semantics. Content invariants do not apply to deletions; the validator
// still gates the acting principal.
func Delete(ctx context.Context, st store.Store, v *validate.Validator, key, principal string, maxRetries uint64) error {
	backoff := retry.WithMaxRetries(maxRetries, retry.NewFibonacci(5*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, rev, err := st.GetDocument(ctx, key)
		if err != nil {
			return err
		}
		if err := v.ValidateWrite(nil, nil, principal); err != nil {
			return err
		}
		if err := st.DeleteDocument(ctx, key, rev); err != nil {
			if errors.Is(err, store.ErrWriteConflict) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}
