// Package memstore is an in-memory implementation of store.Store, used in
// tests and as the default store for the CLI tools when no external store
// is configured. It keeps every document in a single path-keyed map
// guarded by one mutex, mirroring the teacher's connection-pool-shaped
// handle in spirit (a single serialization point for all mutating access)
// without needing a real network round trip.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sandyland/sams-core/internal/store"
)

// Store is an in-memory, path-keyed document store.
type Store struct {
	mu   sync.Mutex
	docs map[string]map[string]interface{}
	now  func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		docs: make(map[string]map[string]interface{}),
		now:  time.Now,
	}
}

func cloneDoc(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func resolveTimestamps(data map[string]interface{}, at time.Time) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if store.IsServerTimestamp(v) {
			out[k] = at.UTC().Format(time.RFC3339Nano)
		} else {
			out[k] = v
		}
	}
	return out
}

func (s *Store) getLocked(path string) (map[string]interface{}, error) {
	doc, ok := s.docs[path]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneDoc(doc), nil
}

// Get returns a copy of the document at path, or store.ErrNotFound.
func (s *Store) Get(ctx context.Context, path string) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(path)
}

// Set replaces the document at path with data.
func (s *Store) Set(ctx context.Context, path string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = resolveTimestamps(data, s.now())
	return nil
}

// Update merges partial into the document at path, creating it if absent.
func (s *Store) Update(ctx context.Context, path string, partial map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.docs[path]
	if !ok {
		existing = make(map[string]interface{})
	} else {
		existing = cloneDoc(existing)
	}
	resolved := resolveTimestamps(partial, s.now())
	for k, v := range resolved {
		existing[k] = v
	}
	s.docs[path] = existing
	return nil
}

// Delete removes the document at path. Deleting a non-existent path is a no-op.
func (s *Store) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
	return nil
}

func segments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// ListDocs returns every document directly under collectionPath.
func (s *Store) ListDocs(ctx context.Context, collectionPath string) ([]store.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wantLen := len(segments(collectionPath)) + 1
	prefix := strings.Trim(collectionPath, "/") + "/"

	var out []store.Doc
	for path, data := range s.docs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		if len(segments(path)) != wantLen {
			continue
		}
		out = append(out, store.Doc{Path: path, Data: cloneDoc(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// ListCollections returns the distinct subcollection names directly under docPath.
func (s *Store) ListCollections(ctx context.Context, docPath string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := segments(docPath)
	prefix := strings.Trim(docPath, "/") + "/"

	seen := make(map[string]bool)
	for path := range s.docs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		segs := segments(path)
		if len(segs) <= len(base)+1 {
			continue
		}
		seen[segs[len(base)]] = true
	}

	var out []string
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// ListDescendants returns every document path at or below rootPath.
func (s *Store) ListDescendants(ctx context.Context, rootPath string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trimmed := strings.Trim(rootPath, "/")
	prefix := trimmed + "/"

	var out []string
	for path := range s.docs {
		if path == trimmed || strings.HasPrefix(path, prefix) {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out, nil
}

func matches(data map[string]interface{}, p store.Predicate) bool {
	v, ok := data[p.Field]
	if !ok {
		return false
	}
	switch p.Op {
	case store.OpEqual:
		return fmt.Sprint(v) == fmt.Sprint(p.Value)
	case store.OpIn:
		values, ok := p.Value.([]interface{})
		if !ok {
			return false
		}
		for _, candidate := range values {
			if fmt.Sprint(v) == fmt.Sprint(candidate) {
				return true
			}
		}
		return false
	case store.OpLessThan, store.OpLessThanEq, store.OpGreaterThan, store.OpGreaterThanEq:
		return compareOrdered(v, p.Value, p.Op)
	default:
		return false
	}
}

func compareOrdered(a, b interface{}, op store.Op) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch op {
		case store.OpLessThan:
			return af < bf
		case store.OpLessThanEq:
			return af <= bf
		case store.OpGreaterThan:
			return af > bf
		case store.OpGreaterThanEq:
			return af >= bf
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch op {
	case store.OpLessThan:
		return as < bs
	case store.OpLessThanEq:
		return as <= bs
	case store.OpGreaterThan:
		return as > bs
	case store.OpGreaterThanEq:
		return as >= bs
	}
	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// Query returns documents in collectionPath matching all predicates,
// optionally ordered and limited.
func (s *Store) Query(ctx context.Context, collectionPath string, predicates []store.Predicate, orderBy *store.OrderBy, limit int) ([]store.Doc, error) {
	docs, err := s.ListDocs(ctx, collectionPath)
	if err != nil {
		return nil, err
	}

	var out []store.Doc
	for _, d := range docs {
		ok := true
		for _, p := range predicates {
			if !matches(d.Data, p) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, d)
		}
	}

	if orderBy != nil {
		sort.SliceStable(out, func(i, j int) bool {
			vi, vj := out[i].Data[orderBy.Field], out[j].Data[orderBy.Field]
			less := fmt.Sprint(vi) < fmt.Sprint(vj)
			if orderBy.Descending {
				return !less
			}
			return less
		})
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// txHandle implements store.Tx over the parent Store while the parent's
// mutex is held for the duration of one RunTransaction call.
type txHandle struct {
	s *Store
}

func (t *txHandle) Get(path string) (map[string]interface{}, error) {
	return t.s.getLocked(path)
}

func (t *txHandle) Set(path string, data map[string]interface{}) error {
	t.s.docs[path] = resolveTimestamps(data, t.s.now())
	return nil
}

func (t *txHandle) Update(path string, partial map[string]interface{}) error {
	existing, ok := t.s.docs[path]
	if !ok {
		existing = make(map[string]interface{})
	} else {
		existing = cloneDoc(existing)
	}
	resolved := resolveTimestamps(partial, t.s.now())
	for k, v := range resolved {
		existing[k] = v
	}
	t.s.docs[path] = existing
	return nil
}

func (t *txHandle) Delete(path string) error {
	delete(t.s.docs, path)
	return nil
}

// RunTransaction executes fn while holding the store's single mutex,
// giving it the atomicity the port promises. A single in-process mutex is
// sufficient here because memstore has no network partition to retry
// around; pgstore's RunTransaction is where real optimistic-concurrency
// retry matters.
func (s *Store) RunTransaction(ctx context.Context, fn func(store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&txHandle{s: s})
}
