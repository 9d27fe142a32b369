package property

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/propsales/internal/db"
	domprop "github.com/kailas-cloud/propsales/internal/domain/property"
	"github.com/kailas-cloud/propsales/internal/domain/search/query"
)

// store is the consumer interface for property documents (ISP).
type store interface {
	JSONSetMulti(ctx context.Context, items []db.JSONSetItem) (int, error)
	ExistsMulti(ctx context.Context, keys []string) ([]bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, q *db.ListQuery) (int, error)
}

// Repo implements the ingest and search repositories over one JSON index.
type Repo struct {
	store  store
	prefix string
}

// New creates a property repository. keyPrefix namespaces every key and the index.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// EnsureIndex creates the search index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	err := r.store.CreateIndex(ctx, buildIndex(r.IndexName(), r.docPrefix()))
	if err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.IndexName(), err)
	}
	return nil
}

// IndexReady reports whether the search index exists.
func (r *Repo) IndexReady(ctx context.Context) (bool, error) {
	ok, err := r.store.IndexExists(ctx, r.IndexName())
	if err != nil {
		return false, fmt.Errorf("index info %s: %w", r.IndexName(), err)
	}
	return ok, nil
}

// ExistingIDs returns the subset of ids already stored, in one pipelined lookup.
func (r *Repo) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	if len(ids) == 0 {
		return map[string]struct{}{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.docKey(id)
	}

	flags, err := r.store.ExistsMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("exists %d keys: %w", len(keys), err)
	}
	if len(flags) != len(ids) {
		return nil, fmt.Errorf("exists: got %d answers for %d keys", len(flags), len(ids))
	}

	found := make(map[string]struct{})
	for i, ok := range flags {
		if ok {
			found[ids[i]] = struct{}{}
		}
	}
	return found, nil
}

// InsertMany writes records in one pipelined call and returns how many were
// new. A record whose key is already present is left untouched and not counted.
func (r *Repo) InsertMany(ctx context.Context, records []domprop.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	items := make([]db.JSONSetItem, len(records))
	for i := range records {
		data, err := json.Marshal(toDoc(&records[i]))
		if err != nil {
			return 0, fmt.Errorf("marshal %s: %w", records[i].ListingID, err)
		}
		items[i] = db.JSONSetItem{
			Key:          r.docKey(records[i].ListingID),
			Path:         "$",
			Data:         data,
			OnlyIfAbsent: true,
		}
	}

	n, err := r.store.JSONSetMulti(ctx, items)
	if err != nil {
		return n, fmt.Errorf("json.set %d documents: %w", len(items), err)
	}
	return n, nil
}

// Count returns the number of records matching q.
func (r *Repo) Count(ctx context.Context, q query.Query) (int, error) {
	n, err := r.store.SearchCount(ctx, r.listQuery(q, 0, 0))
	if err != nil {
		return 0, fmt.Errorf("search count: %w", err)
	}
	return n, nil
}

// Find returns up to limit records matching q after skipping skip, in q's order.
func (r *Repo) Find(ctx context.Context, q query.Query, skip, limit int) ([]domprop.Result, error) {
	res, err := r.store.SearchList(ctx, r.listQuery(q, skip, limit))
	if err != nil {
		return nil, fmt.Errorf("search list: %w", err)
	}
	if res == nil || len(res.Entries) == 0 {
		return []domprop.Result{}, nil
	}

	out := make([]domprop.Result, 0, len(res.Entries))
	for _, e := range res.Entries {
		raw, ok := e.Fields[db.JSONRootField]
		if !ok {
			return nil, fmt.Errorf("search entry %s: missing document", e.Key)
		}
		var d propertyDoc
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		out = append(out, d.toResult())
	}
	return out, nil
}

// IndexName is the FT index over property documents.
func (r *Repo) IndexName() string {
	return r.prefix + "property:idx"
}

func (r *Repo) listQuery(q query.Query, skip, limit int) *db.ListQuery {
	return &db.ListQuery{
		IndexName:  r.IndexName(),
		Filters:    q.Filters,
		SortBy:     q.SortBy,
		Descending: q.Descending,
		Offset:     skip,
		Limit:      limit,
	}
}

func (r *Repo) docPrefix() string {
	return r.prefix + "property:"
}

func (r *Repo) docKey(listingID string) string {
	return r.docPrefix() + listingID
}
