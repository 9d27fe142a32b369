// Package memory is an in-process db.Store holding JSON documents in a map.
// Searches go through docfilter, for tests and local runs without Redis.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kailas-cloud/propsales/internal/db"
	"github.com/kailas-cloud/propsales/internal/db/docfilter"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store keeps JSON documents and index definitions in memory.
type Store struct {
	mu      sync.RWMutex
	docs    map[string][]byte
	indexes map[string]*db.IndexDefinition
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		docs:    make(map[string][]byte),
		indexes: make(map[string]*db.IndexDefinition),
	}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// JSONSetMulti stores documents at the root path. The batch is validated
// before anything is written.
func (s *Store) JSONSetMulti(ctx context.Context, items []db.JSONSetItem) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, &db.Error{Op: db.OpJSONSet, Err: err}
	}
	for _, item := range items {
		if item.Path != "" && item.Path != "$" {
			return 0, &db.Error{Op: db.OpJSONSet, Err: fmt.Errorf("key %s: unsupported path %q", item.Key, item.Path)}
		}
		if !json.Valid(item.Data) {
			return 0, &db.Error{Op: db.OpJSONSet, Err: fmt.Errorf("key %s: invalid JSON", item.Key)}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	written := 0
	for _, item := range items {
		if _, ok := s.docs[item.Key]; ok && item.OnlyIfAbsent {
			continue
		}
		s.docs[item.Key] = bytes.Clone(item.Data)
		written++
	}
	return written, nil
}

// ExistsMulti reports presence of each key.
func (s *Store) ExistsMulti(ctx context.Context, keys []string) ([]bool, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpExists, Err: err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]bool, len(keys))
	for i, k := range keys {
		_, out[i] = s.docs[k]
	}
	return out, nil
}

// CreateIndex registers an index definition.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	cp := *def
	cp.Prefixes = append([]string(nil), def.Prefixes...)
	cp.Fields = append([]db.IndexField(nil), def.Fields...)
	s.indexes[def.Name] = &cp
	return nil
}

// DropIndex removes an index definition. Documents are kept.
func (s *Store) DropIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(s.indexes, name)
	return nil
}

// IndexExists reports whether the index is registered.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok, nil
}

// SearchCount returns the number of indexed documents matching q.Filters.
func (s *Store) SearchCount(ctx context.Context, q *db.ListQuery) (int, error) {
	hits, err := s.match(ctx, q)
	if err != nil {
		return 0, err
	}
	return len(hits), nil
}

// SearchList returns one sorted page of matching documents.
func (s *Store) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if q != nil {
		if err := docfilter.ValidateWindow(q.Offset, q.Limit); err != nil {
			return nil, err
		}
	}
	hits, err := s.match(ctx, q)
	if err != nil {
		return nil, err
	}
	res, err := docfilter.Page(hits, q)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return res, nil
}

// match collects indexed documents that satisfy every condition, in key order.
func (s *Store) match(ctx context.Context, q *db.ListQuery) ([]docfilter.Hit, error) {
	if q == nil {
		return nil, fmt.Errorf("query is required")
	}
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}
	if err := docfilter.CheckFields(idx, q.Filters); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		if docfilter.HasAnyPrefix(k, idx.Prefixes) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var hits []docfilter.Hit
	for _, k := range keys {
		h, ok, err := docfilter.Evaluate(k, s.docs[k], idx, q.Filters)
		if err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: err}
		}
		if ok {
			hits = append(hits, h)
		}
	}
	return hits, nil
}
