// Package rights computes the effective group set a principal holds a
// right through. The result is an ordered, duplicate-free list of owner
// identifiers (group names, pseudo-principals, and the principal itself)
// directly usable as key prefixes in owner-scoped indexes.
package rights

import (
	"context"
	"fmt"

	"github.com/avoskresensky/docvault/document"
	"github.com/avoskresensky/docvault/store"
)

// Query describes one resolution request. An empty Principal is treated
// as anonymous. Groups, when non-empty, restricts the result to the
// listed identifiers; MineOnly collapses or re-extends the result around
// the principal itself.
type Query struct {
	Principal string
	Right     string
	Groups    []string
	MineOnly  bool
}

// Resolver is a pure read path over a point-in-time snapshot of the
// groups, global-rights, and default-groups documents. It never mutates
// state; concurrent callers need no coordination.
type Resolver struct {
	reader store.Reader
}

func NewResolver(r store.Reader) *Resolver {
	return &Resolver{reader: r}
}

// Resolve returns the ordered set of identifiers through which the
// principal holds the right. For identical stored state and arguments the
// result and its order are exactly reproducible.
func (r *Resolver) Resolve(ctx context.Context, q Query) ([]string, error) {
	principal := q.Principal
	if principal == "" {
		principal = document.Anonymous
	}

	raw, err := r.rawSet(ctx, principal, q.Right)
	if err != nil {
		return nil, err
	}

	if len(q.Groups) > 0 {
		filtered := intersect(raw, q.Groups)
		if q.MineOnly && !contains(filtered, principal) {
			filtered = append(filtered, principal)
		}
		return filtered, nil
	}
	if q.MineOnly {
		return []string{principal}, nil
	}
	return raw, nil
}

// MemberOf lists the names of the groups the user belongs to, in store
// order.
func (r *Resolver) MemberOf(ctx context.Context, email string) ([]string, error) {
	groups, err := r.reader.QueryGroupsByUser(ctx, email)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name())
	}
	return names, nil
}

// rawSet assembles, in order: groups granting the right where the
// principal is a member, applicable global grants, default groups for the
// principal class, and finally the principal itself. Duplicates keep
// their first position.
func (r *Resolver) rawSet(ctx context.Context, principal, right string) ([]string, error) {
	var raw []string

	if principal != document.Anonymous {
		groups, err := r.reader.QueryGroupsByUserAndRight(ctx, principal, right)
		if err != nil {
			return nil, fmt.Errorf("group lookup for %s: %w", principal, err)
		}
		raw = append(raw, groups...)
	}

	global, err := r.reader.GetGlobalRights(ctx)
	if err != nil {
		return nil, fmt.Errorf("global rights: %w", err)
	}
	for _, grantee := range global[right] {
		switch {
		case grantee == principal:
			raw = append(raw, principal)
		case grantee == document.Anonymous:
			// A world grant applies to everyone, authenticated or not.
			raw = append(raw, document.Anonymous)
		case grantee == document.AnyUser && principal != document.Anonymous:
			raw = append(raw, document.AnyUser)
		}
	}

	defaults, err := r.reader.GetDefaultGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("default groups: %w", err)
	}
	raw = append(raw, defaults.Anonymous...)
	if principal != document.Anonymous {
		raw = append(raw, defaults.AnyUser...)
	}

	// A principal always has rights over what it directly owns.
	raw = append(raw, principal)

	return dedupe(raw), nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// intersect keeps the elements of raw present in filter, preserving raw
// order.
func intersect(raw, filter []string) []string {
	allowed := make(map[string]struct{}, len(filter))
	for _, f := range filter {
		allowed[f] = struct{}{}
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if _, ok := allowed[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
