package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker reports whether the property search index exists.
type IndexChecker interface {
	IndexReady(ctx context.Context) (bool, error)
}
