// Package valkey is a db.Store for Valkey servers that carry the JSON module
// but no full-text search. valkey-search cannot run FT.SEARCH without a KNN
// clause, so listing and counting scan the index prefix with SCAN + JSON.GET
// and evaluate filters in process.
package valkey

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/propsales/internal/db"
	"github.com/kailas-cloud/propsales/internal/db/docfilter"
	dbRedis "github.com/kailas-cloud/propsales/internal/db/redis"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// fetchBatch bounds the keys read per JSON.GET pipeline.
const fetchBatch = 500

// Config holds connection parameters.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store reuses the rueidis driver for connectivity, writes and key lookups.
// Index definitions live in process; callers register them at startup.
type Store struct {
	*dbRedis.Store

	mu      sync.RWMutex
	indexes map[string]*db.IndexDefinition
}

// NewStore creates a store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	base, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, err
	}
	return wrap(base), nil
}

func wrap(base *dbRedis.Store) *Store {
	return &Store{Store: base, indexes: make(map[string]*db.IndexDefinition)}
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

// DropIndex forgets an index definition. Documents are kept.
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

// SearchCount returns the number of documents under the index prefixes that
// match q.Filters.
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

func (s *Store) index(name string) (*db.IndexDefinition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indexes[name]
	return idx, ok
}

// match scans every prefix of the index and keeps matching documents in key order.
func (s *Store) match(ctx context.Context, q *db.ListQuery) ([]docfilter.Hit, error) {
	if q == nil {
		return nil, fmt.Errorf("query is required")
	}
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}

	idx, ok := s.index(q.IndexName)
	if !ok {
		return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}
	if err := docfilter.CheckFields(idx, q.Filters); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	keys, err := s.scanPrefixes(ctx, idx.Prefixes)
	if err != nil {
		return nil, fmt.Errorf("scan index %s: %w", idx.Name, err)
	}

	var hits []docfilter.Hit
	for start := 0; start < len(keys); start += fetchBatch {
		chunk := keys[start:min(start+fetchBatch, len(keys))]
		docs, err := s.JSONGetMulti(ctx, chunk)
		if err != nil {
			return nil, err
		}
		for i, raw := range docs {
			if raw == nil {
				continue // deleted between SCAN and JSON.GET
			}
			h, ok, err := docfilter.Evaluate(chunk[i], raw, idx, q.Filters)
			if err != nil {
				return nil, &db.Error{Op: db.OpSearch, Err: err}
			}
			if ok {
				hits = append(hits, h)
			}
		}
	}
	return hits, nil
}

// scanPrefixes returns the sorted, de-duplicated keys under any prefix.
func (s *Store) scanPrefixes(ctx context.Context, prefixes []string) ([]string, error) {
	patterns := []string{"*"}
	if len(prefixes) > 0 {
		patterns = patterns[:0]
		for _, p := range prefixes {
			patterns = append(patterns, globEscaper.Replace(p)+"*")
		}
	}

	seen := make(map[string]struct{})
	var keys []string
	for _, pattern := range patterns {
		found, err := s.Scan(ctx, pattern)
		if err != nil {
			return nil, err
		}
		for _, k := range found {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys) // deterministic ordering
	return keys, nil
}

var globEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"?", `\?`,
	"[", `\[`,
	"]", `\]`,
)

// NewStoreForTest creates a Store with the provided rueidis client (test-only).
func NewStoreForTest(c rueidis.Client) *Store {
	return wrap(dbRedis.NewStoreForTest(c))
}
