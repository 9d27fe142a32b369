// Package ingest loads one month of the property sales register into the store.
package ingest

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propsales/internal/domain"
	"github.com/kailas-cloud/propsales/internal/domain/period"
	domprop "github.com/kailas-cloud/propsales/internal/domain/property"
	"github.com/kailas-cloud/propsales/internal/metrics"
)

// Outcome summarizes a successful run.
type Outcome struct {
	SourceURL    string
	RowsInserted int
	Elapsed      time.Duration
}

// Service runs fetch, transform and load for one period. Runs share no state,
// so independent periods may be ingested concurrently.
type Service struct {
	fetcher     Fetcher
	transformer *Transformer
	loader      *Loader
	logger      *zap.Logger
}

// New creates an ingestion service with the default batch size and namespace.
func New(fetcher Fetcher, repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fetcher:     fetcher,
		transformer: NewTransformer(repo, uuid.Nil),
		loader:      NewLoader(repo, DefaultBatchSize),
		logger:      logger,
	}
}

// WithBatchSize configures the loader batch size.
func (s *Service) WithBatchSize(size int) *Service {
	s.loader = NewLoader(s.loader.repo, size)
	return s
}

// WithNamespace configures the listing ID namespace.
func (s *Service) WithNamespace(ns uuid.UUID) *Service {
	s.transformer = NewTransformer(s.transformer.existing, ns)
	return s
}

// Run ingests the extract for p. On success the run's work directory is
// removed. On failure the error is a *domain.StageError and the downloaded
// file and parsed snapshot are left in place for inspection.
func (s *Service) Run(ctx context.Context, p period.Period) (Outcome, error) {
	start := time.Now()
	log := s.logger.With(zap.String("period", p.String()))

	file, err := s.fetcher.Fetch(ctx, p)
	if err != nil {
		if file.Dir != "" {
			log = log.With(zap.String("artifacts", file.Dir))
		}
		return Outcome{}, s.fail(log, domain.StageFetch, err)
	}
	log = log.With(zap.String("url", file.URL), zap.String("artifacts", file.Dir))
	log.Info("Source downloaded", zap.Int64("bytes", file.Bytes))

	records, err := s.transform(ctx, file.Path)
	if err != nil {
		return Outcome{}, s.fail(log, domain.StageTransform, err)
	}
	log.Info("Source parsed", zap.Int("new_records", len(records)))

	inserted, err := s.loader.Load(ctx, records)
	if err != nil {
		return Outcome{}, s.fail(log, domain.StageLoad, err)
	}

	if err := os.RemoveAll(file.Dir); err != nil {
		log.Warn("Failed to remove work dir", zap.Error(err))
	}

	elapsed := time.Since(start)
	metrics.IngestRunsTotal.WithLabelValues(metrics.RunSuccess).Inc()
	log.Info("Ingestion completed",
		zap.Int("rows_inserted", inserted),
		zap.Duration("elapsed", elapsed),
	)
	return Outcome{SourceURL: file.URL, RowsInserted: inserted, Elapsed: elapsed}, nil
}

func (s *Service) transform(ctx context.Context, path string) ([]domprop.Record, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the fetcher's work dir
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := s.transformer.Transform(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := writeSnapshot(snapshotPath(path), records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) fail(log *zap.Logger, stage domain.Stage, err error) error {
	metrics.IngestRunsTotal.WithLabelValues(metrics.RunFailure).Inc()
	log.Error("Ingestion failed", zap.String("stage", string(stage)), zap.Error(err))
	return &domain.StageError{Stage: stage, Err: err}
}
