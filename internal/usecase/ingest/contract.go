package ingest

import (
	"context"

	"github.com/kailas-cloud/propsales/internal/domain/extract"
	"github.com/kailas-cloud/propsales/internal/domain/period"
	domprop "github.com/kailas-cloud/propsales/internal/domain/property"
)

// Fetcher downloads the extract for one period into a fresh work directory.
type Fetcher interface {
	Fetch(ctx context.Context, p period.Period) (extract.File, error)
}

// ExistenceChecker reports which listing IDs are already stored.
type ExistenceChecker interface {
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
}

// BulkInserter writes one batch of records and reports how many were new.
type BulkInserter interface {
	InsertMany(ctx context.Context, records []domprop.Record) (int, error)
}

// Repository is the store contract of the full pipeline.
type Repository interface {
	ExistenceChecker
	BulkInserter
}
