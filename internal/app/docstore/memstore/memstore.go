// Package memstore is an in-memory docstore.Client used by tests. It
// mirrors the backend contract closely enough to exercise the lifecycle
// and reconciliation logic: stable list order, equality filters,
// offset/limit paging, uniqueness indexes, and per-operation write
// counters so tests can assert that reconciliation is minimal.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
)

type Store struct {
	mu      sync.RWMutex
	order   map[string][]string
	docs    map[string]map[string]docstore.Document
	uniques map[string][][]string

	creates int
	updates int
	deletes int

	updateHook func(collection, id string) error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		order:   make(map[string][]string),
		docs:    make(map[string]map[string]docstore.Document),
		uniques: make(map[string][][]string),
	}
}

// AddUniqueIndex registers a store-side uniqueness constraint over the
// given field tuple, like the backend index the application relies on
// for (group_id, user_id) memberships and invite codes.
func (s *Store) AddUniqueIndex(collection string, fields ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uniques[collection] = append(s.uniques[collection], fields)
}

// FailUpdate installs a hook consulted before every Update; a non-nil
// return aborts the write with that error. Tests use it to interrupt a
// multi-step operation partway through. A nil hook clears it.
func (s *Store) FailUpdate(hook func(collection, id string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateHook = hook
}

// Creates returns the number of successful Create calls.
func (s *Store) Creates() int { s.mu.RLock(); defer s.mu.RUnlock(); return s.creates }

// Updates returns the number of successful Update calls.
func (s *Store) Updates() int { s.mu.RLock(); defer s.mu.RUnlock(); return s.updates }

// Deletes returns the number of successful Delete calls.
func (s *Store) Deletes() int { s.mu.RLock(); defer s.mu.RUnlock(); return s.deletes }

// ResetCounters zeroes the write counters.
func (s *Store) ResetCounters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates, s.updates, s.deletes = 0, 0, 0
}

func (s *Store) Create(ctx context.Context, collection, id string, fields map[string]any, acl docstore.ACL) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.docs[collection]
	if col == nil {
		col = make(map[string]docstore.Document)
		s.docs[collection] = col
	}
	if _, exists := col[id]; exists {
		return fmt.Errorf("create %s/%s: %w", collection, id, docstore.ErrConflict)
	}
	for _, idx := range s.uniques[collection] {
		for _, otherID := range s.order[collection] {
			if tupleEqual(col[otherID].Fields, fields, idx) {
				return fmt.Errorf("create %s/%s: unique index violation: %w", collection, id, docstore.ErrConflict)
			}
		}
	}

	col[id] = docstore.Document{ID: id, Fields: copyFields(fields), ACL: copyACL(acl)}
	s.order[collection] = append(s.order[collection], id)
	s.creates++
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[collection][id]
	if !ok {
		return docstore.Document{}, fmt.Errorf("get %s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	return copyDoc(d), nil
}

func (s *Store) List(ctx context.Context, collection string, q docstore.Query) (docstore.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []docstore.Document
	for _, id := range s.order[collection] {
		d := s.docs[collection][id]
		if matchesFilters(d.Fields, q.Filters) {
			matched = append(matched, d)
		}
	}

	start := int(q.Offset)
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if q.Limit > 0 && start+int(q.Limit) < end {
		end = start + int(q.Limit)
	}

	page := docstore.Page{}
	for _, d := range matched[start:end] {
		page.Documents = append(page.Documents, copyDoc(d))
	}
	return page, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any, acl docstore.ACL) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updateHook != nil {
		if err := s.updateHook(collection, id); err != nil {
			return err
		}
	}
	d, ok := s.docs[collection][id]
	if !ok {
		return fmt.Errorf("update %s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	if fields != nil {
		for k, v := range fields {
			d.Fields[k] = v
		}
	}
	if acl != nil {
		d.ACL = copyACL(acl)
	}
	s.docs[collection][id] = d
	s.updates++
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[collection][id]; !ok {
		return fmt.Errorf("delete %s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	delete(s.docs[collection], id)
	order := s.order[collection]
	for i, oid := range order {
		if oid == id {
			s.order[collection] = append(order[:i:i], order[i+1:]...)
			break
		}
	}
	s.deletes++
	return nil
}

func matchesFilters(fields map[string]any, filters []docstore.Filter) bool {
	for _, f := range filters {
		if fields[f.Field] != f.Value {
			return false
		}
	}
	return true
}

func tupleEqual(a, b map[string]any, fields []string) bool {
	for _, f := range fields {
		if a[f] != b[f] {
			return false
		}
	}
	return len(fields) > 0
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func copyACL(acl docstore.ACL) docstore.ACL {
	return append(docstore.ACL(nil), acl...)
}

func copyDoc(d docstore.Document) docstore.Document {
	return docstore.Document{ID: d.ID, Fields: copyFields(d.Fields), ACL: copyACL(d.ACL)}
}
