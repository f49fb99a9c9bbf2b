// Package view holds the index extension point. Deployments register an
// IndexFn per index; OwnerScoped wraps one so its rows become visible
// through owner-prefixed range scans.
package view

import "github.com/avoskresensky/docvault/document"

// Row is one emitted index record. A nil Key means the function emitted a
// bare value.
type Row struct {
	Key   []any
	Value any
}

// IndexFn maps a document to zero or more index rows.
type IndexFn func(document.Document) []Row

// OwnerScoped rewrites base so that every entry document fans out into one
// row per current owner, with the owner identity prepended to the key.
// An index over the wrapped function answers "everything owner X can see
// under key K" with a single prefix range scan, with no per-query
// ownership filtering.
//
// Non-entry documents and documents for which base emits nothing produce
// no rows. Wrapping is opt-in per index definition: an index that is not
// scoped per owner must register the base function directly.
func OwnerScoped(base IndexFn) IndexFn {
	return func(d document.Document) []Row {
		if d.Type() != document.TypeEntry {
			return nil
		}
		rows := base(d)
		if len(rows) == 0 {
			return nil
		}
		owners := d.Owners()
		out := make([]Row, 0, len(owners)*len(rows))
		for _, owner := range owners {
			for _, r := range rows {
				key := make([]any, 0, 1+len(r.Key))
				key = append(key, owner)
				key = append(key, r.Key...)
				out = append(out, Row{Key: key, Value: r.Value})
			}
		}
		return out
	}
}

// ReduceCount is the canonical aggregate paired with owner-scoped
// projections.
func ReduceCount(rows []Row) int {
	return len(rows)
}
