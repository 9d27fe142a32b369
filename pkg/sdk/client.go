package propsales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propsales/internal/app"
	"github.com/kailas-cloud/propsales/internal/config"
	"github.com/kailas-cloud/propsales/internal/db"
	"github.com/kailas-cloud/propsales/internal/domain/period"
	domprop "github.com/kailas-cloud/propsales/internal/domain/property"
	"github.com/kailas-cloud/propsales/internal/domain/search/query"
	healthuc "github.com/kailas-cloud/propsales/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/propsales/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/propsales/internal/usecase/search"
)

const defaultReadinessTimeout = 10

// Internal interfaces, replaced in tests.
type searchUseCase interface {
	Search(ctx context.Context, p query.Params) (searchuc.Page, error)
}

type ingestUseCase interface {
	Run(ctx context.Context, p period.Period) (ingestuc.Outcome, error)
}

// Client is the propsales SDK entry point.
type Client struct {
	store     db.Store
	searchSvc searchUseCase
	ingestSvc ingestUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client, connects to the store and ensures the search index.
// The provided context is used for the readiness check and index creation.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	appCfg, err := cfg.toConfig()
	if err != nil {
		return nil, err
	}

	store, err := app.OpenStore(appCfg.Database)
	if err != nil {
		return nil, fmt.Errorf("propsales: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	deps, err := app.Build(ctx, appCfg, store, zap.NewNop())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("propsales: %w", err)
	}

	return &Client{
		store:     store,
		searchSvc: searchuc.New(deps.Properties, appCfg.Search.PageSize),
		ingestSvc: deps.Ingest,
		healthSvc: healthuc.New(store, deps.Properties),
		obs:       obs,
	}, nil
}

// toConfig maps options onto the service configuration and validates it.
func (c *clientConfig) toConfig() (*config.Config, error) {
	if c.driver == "" {
		return nil, errors.New("propsales: storage required (use WithValkey, WithRedis or WithMemory)")
	}
	if c.sourceURL == "" {
		return nil, errors.New("propsales: source URL required (use WithSourceURL)")
	}

	cfg := &config.Config{
		HTTP: config.HTTPConfig{Port: 1}, // unused; satisfies validation
		Database: config.DatabaseConfig{
			Driver:           c.driver,
			Addrs:            c.addrs,
			Password:         c.password,
			ReadinessTimeout: defaultReadinessTimeout,
		},
		Storage: config.StorageConfig{KeyPrefix: c.keyPrefix},
		Ingest: config.IngestConfig{
			SourceURLTemplate: c.sourceURL,
			WorkDir:           c.workDir,
			BatchSize:         c.batchSize,
			FetchRatePerSec:   c.fetchPerSec,
		},
		Search: config.SearchConfig{PageSize: c.pageSize},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("propsales: %w", err)
	}
	return cfg, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Ingest downloads, parses and stores the extract for year-month. Rows
// already stored are skipped, so repeating a month inserts nothing new.
func (c *Client) Ingest(ctx context.Context, year int, month time.Month) (res IngestResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err) }()

	out, err := c.ingestSvc.Run(ctx, period.Period{Year: year, Month: month})
	if err != nil {
		return IngestResult{}, fmt.Errorf("ingest: %w", err)
	}
	return IngestResult{
		SourceURL:    out.SourceURL,
		RowsInserted: out.RowsInserted,
		Elapsed:      out.Elapsed,
	}, nil
}

// Search returns one page of sales matching every supplied constraint.
func (c *Client) Search(ctx context.Context, p SearchParams) (res SearchPage, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	page, err := c.searchSvc.Search(ctx, toQueryParams(&p))
	if err != nil {
		return SearchPage{}, fmt.Errorf("search: %w", err)
	}
	return fromSearchPage(&page), nil
}

func toQueryParams(p *SearchParams) query.Params {
	q := query.NewParams()
	q.Address = p.Address
	q.County = p.County
	q.StartDate = p.StartDate
	q.EndDate = p.EndDate
	q.MinPrice = p.MinPrice
	q.MaxPrice = p.MaxPrice
	q.IsSecondHand = p.IsSecondHand
	q.Descending = !p.Ascending
	if p.PageNum != 0 {
		q.PageNum = p.PageNum
	}
	return q
}

func fromSearchPage(p *searchuc.Page) SearchPage {
	out := SearchPage{
		Total:    p.Meta.Total,
		HasNext:  p.Meta.HasNext,
		NextPage: p.Meta.NextPage,
		Results:  make([]Property, 0, len(p.Results)),
	}
	for i := range p.Results {
		out.Results = append(out.Results, fromResult(&p.Results[i]))
	}
	return out
}

func fromResult(r *domprop.Result) Property {
	return Property{
		SaleDate:                r.SaleDate,
		Address:                 r.Address,
		County:                  r.County,
		Eircode:                 r.Eircode,
		Price:                   r.Price,
		IsFullMarketPrice:       r.IsFullMarketPrice,
		VATExclusive:            r.VATExclusive,
		PropertySizeDescription: r.PropertySizeDescription,
		IsSecondHand:            r.IsSecondHand,
	}
}
