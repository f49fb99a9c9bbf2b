// Package memory is an in-process Store used by tests and by offline
// validation runs. It applies the same compare-and-set semantics as the
// postgres backend.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/avoskresensky/docvault/document"
	"github.com/avoskresensky/docvault/store"
)

type versioned struct {
	doc document.Document
	rev int64
}

// Store keeps documents in a mutex-guarded map. The zero value is not
// usable; call New.
type Store struct {
	mu   sync.RWMutex
	docs map[string]versioned
}

func New() *Store {
	return &Store{docs: make(map[string]versioned)}
}

func (s *Store) GetDocument(ctx context.Context, key string) (document.Document, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.docs[key]
	if !ok {
		return nil, 0, store.ErrNotFound
	}
	return v.doc.Clone(), v.rev, nil
}

func (s *Store) PutDocument(ctx context.Context, key string, doc document.Document, expectedRev int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.docs[key]
	if !ok {
		if expectedRev != 0 {
			return 0, store.ErrWriteConflict
		}
		s.docs[key] = versioned{doc: doc.Clone(), rev: 1}
		return 1, nil
	}
	if current.rev != expectedRev {
		return 0, store.ErrWriteConflict
	}
	next := versioned{doc: doc.Clone(), rev: current.rev + 1}
	s.docs[key] = next
	return next.rev, nil
}

func (s *Store) DeleteDocument(ctx context.Context, key string, expectedRev int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.docs[key]
	if !ok {
		return store.ErrNotFound
	}
	if current.rev != expectedRev {
		return store.ErrWriteConflict
	}
	delete(s.docs, key)
	return nil
}

func (s *Store) QueryGroupsByUser(ctx context.Context, email string) ([]document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []document.Document
	for _, v := range s.docs {
		if v.doc.Type() != document.TypeGroup {
			continue
		}
		if containsString(v.doc.Users(), email) {
			out = append(out, v.doc.Clone())
		}
	}
	// Deterministic order, matching the postgres backend.
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (s *Store) QueryGroupsByUserAndRight(ctx context.Context, email, right string) ([]string, error) {
	groups, err := s.QueryGroupsByUser(ctx, email)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, g := range groups {
		if containsString(g.Rights(), right) {
			names = append(names, g.Name())
		}
	}
	return names, nil
}

func (s *Store) GetGlobalRights(ctx context.Context) (map[string][]string, error) {
	doc, _, err := s.GetDocument(ctx, "db/"+document.RightsDocID)
	if errors.Is(err, store.ErrNotFound) {
		return map[string][]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return store.ParseGlobalRights(doc)
}

func (s *Store) GetDefaultGroups(ctx context.Context) (document.DefaultGroups, error) {
	doc, _, err := s.GetDocument(ctx, "db/"+document.DefaultGroupsDocID)
	if errors.Is(err, store.ErrNotFound) {
		return document.DefaultGroups{}, nil
	}
	if err != nil {
		return document.DefaultGroups{}, err
	}
	return store.ParseDefaultGroups(doc)
}

func containsString(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
