// Package app is the composition root shared by the server and the backfill CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propsales/internal/config"
	"github.com/kailas-cloud/propsales/internal/db"
	"github.com/kailas-cloud/propsales/internal/db/memory"
	dbRedis "github.com/kailas-cloud/propsales/internal/db/redis"
	dbValkey "github.com/kailas-cloud/propsales/internal/db/valkey"
	repoprop "github.com/kailas-cloud/propsales/internal/repository/property"
	"github.com/kailas-cloud/propsales/internal/transport/source"
	ingestuc "github.com/kailas-cloud/propsales/internal/usecase/ingest"
)

// OpenStore creates the store for the configured driver.
func OpenStore(cfg config.DatabaseConfig) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverValkey:
		store, err = dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	case config.DriverRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	case config.DriverMemory:
		store = memory.NewStore()
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
	}
	return store, nil
}

// Deps holds the wired components over one store.
type Deps struct {
	Store      db.Store
	Properties *repoprop.Repo
	Ingest     *ingestuc.Service
}

// Build waits for the store, ensures the property index and wires ingestion.
// The caller owns store and closes it.
func Build(ctx context.Context, cfg *config.Config, store db.Store, logger *zap.Logger) (*Deps, error) {
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	props := repoprop.New(store, cfg.Storage.KeyPrefix)
	if err := props.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ensure property index: %w", err)
	}

	fetcher, err := source.NewFetcher(&source.Config{
		URLTemplate:        cfg.Ingest.SourceURLTemplate,
		WorkDir:            cfg.Ingest.WorkDir,
		Timeout:            time.Duration(cfg.Ingest.HTTPTimeoutSec) * time.Second,
		RatePerSec:         cfg.Ingest.FetchRatePerSec,
		InsecureSkipVerify: cfg.Ingest.InsecureSkipVerify,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	ingest := ingestuc.New(fetcher, props, logger).WithBatchSize(cfg.Ingest.BatchSize)
	if cfg.Ingest.DedupNamespace != "" {
		ns, err := uuid.Parse(cfg.Ingest.DedupNamespace)
		if err != nil {
			return nil, fmt.Errorf("parse dedup namespace: %w", err)
		}
		ingest = ingest.WithNamespace(ns)
	}

	return &Deps{Store: store, Properties: props, Ingest: ingest}, nil
}
