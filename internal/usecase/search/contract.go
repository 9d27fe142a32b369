package search

import (
	"context"

	domprop "github.com/kailas-cloud/propsales/internal/domain/property"
	"github.com/kailas-cloud/propsales/internal/domain/search/query"
)

// Repository defines the storage contract for property search.
type Repository interface {
	Count(ctx context.Context, q query.Query) (int, error)
	Find(ctx context.Context, q query.Query, skip, limit int) ([]domprop.Result, error)
}
