package ingest

import (
	"context"
	"time"

	"github.com/kailas-cloud/propsales/internal/domain"
	domprop "github.com/kailas-cloud/propsales/internal/domain/property"
	"github.com/kailas-cloud/propsales/internal/metrics"
)

// DefaultBatchSize is the number of records per bulk insert.
const DefaultBatchSize = 1000

// Loader writes records in fixed-size, independently committed batches.
type Loader struct {
	repo      BulkInserter
	batchSize int
}

// NewLoader creates a loader. A non-positive batchSize uses DefaultBatchSize.
func NewLoader(repo BulkInserter, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{repo: repo, batchSize: batchSize}
}

// BatchSize returns the configured batch size.
func (l *Loader) BatchSize() int { return l.batchSize }

// Load inserts records in ceil(len/batchSize) calls and returns the number
// the store actually wrote. Records another run stored in the meantime are
// skipped by the store and not counted. A failed batch, or cancellation
// between batches, returns a *domain.InsertError; writes before it stay
// committed.
func (l *Loader) Load(ctx context.Context, records []domprop.Record) (int, error) {
	inserted := 0
	for start := 0; start < len(records); start += l.batchSize {
		if err := ctx.Err(); err != nil {
			return inserted, &domain.InsertError{Inserted: inserted, Err: err}
		}

		end := min(start+l.batchSize, len(records))
		batch := records[start:end]

		began := time.Now()
		n, err := l.repo.InsertMany(ctx, batch)
		metrics.IngestBatchDuration.Observe(time.Since(began).Seconds())
		inserted += n
		metrics.IngestRowsInsertedTotal.Add(float64(n))
		if err != nil {
			return inserted, &domain.InsertError{Inserted: inserted, Err: err}
		}
	}
	return inserted, nil
}
