package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	JSONStore
	KeyChecker
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONSetItem holds a single key+path+data triple for pipelined JSON.SET.
// OnlyIfAbsent adds NX: an existing document is left untouched.
type JSONSetItem struct {
	Key          string
	Path         string
	Data         []byte
	OnlyIfAbsent bool
}

// JSONStore provides JSON document writes.
type JSONStore interface {
	// JSONSetMulti returns the number of documents actually written; NX items
	// that found their key present are not counted.
	JSONSetMulti(ctx context.Context, items []JSONSetItem) (int, error)
}

// KeyChecker answers key presence for many keys in one round-trip.
type KeyChecker interface {
	// ExistsMulti returns one flag per key, in input order.
	ExistsMulti(ctx context.Context, keys []string) ([]bool, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides filtered count and sorted page reads over FT indexes.
type Searcher interface {
	SearchList(ctx context.Context, q *ListQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, q *ListQuery) (int, error)
}
