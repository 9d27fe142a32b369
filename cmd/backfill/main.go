// Command backfill ingests every monthly extract in an inclusive period range.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/propsales/internal/app"
	"github.com/kailas-cloud/propsales/internal/config"
	"github.com/kailas-cloud/propsales/internal/domain/period"
	logpkg "github.com/kailas-cloud/propsales/internal/logger"
	"github.com/kailas-cloud/propsales/internal/metrics"
	ingestuc "github.com/kailas-cloud/propsales/internal/usecase/ingest"
	"github.com/kailas-cloud/propsales/internal/version"
)

func main() {
	from := flag.String("from", "", "first period, YYYY-MM")
	to := flag.String("to", "", "last period, YYYY-MM (default: current month)")
	concurrency := flag.Int("concurrency", 2, "periods ingested in parallel")
	flag.Parse()

	if err := run(*from, *to, *concurrency); err != nil {
		fmt.Fprintln(os.Stderr, "backfill:", err)
		os.Exit(1)
	}
}

func run(fromArg, toArg string, concurrency int) error {
	periods, err := periodRange(fromArg, toArg, time.Now())
	if err != nil {
		return err
	}
	if concurrency <= 0 {
		return fmt.Errorf("-concurrency must be positive, got %d", concurrency)
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting propsales backfill",
		zap.String("version", version.Version),
		zap.String("from", periods[0].String()),
		zap.String("to", periods[len(periods)-1].String()),
		zap.Int("periods", len(periods)),
		zap.Int("concurrency", concurrency),
	)

	store, err := app.OpenStore(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	metrics.RegisterIngestMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, &cfg, store, logger)
	if err != nil {
		return err
	}

	outcomes, err := backfill(ctx, deps.Ingest, periods, concurrency)
	total := 0
	for _, o := range outcomes {
		total += o.RowsInserted
	}
	logger.Info("Backfill finished",
		zap.Int("rows_inserted", total),
		zap.Error(err),
	)
	return err
}

// runner ingests one period.
type runner interface {
	Run(ctx context.Context, p period.Period) (ingestuc.Outcome, error)
}

// backfill runs one ingestion per period with at most limit in flight. The
// first failure cancels the runs still pending. Outcomes are indexed like
// periods; failed or skipped runs leave a zero Outcome.
func backfill(ctx context.Context, r runner, periods []period.Period, limit int) ([]ingestuc.Outcome, error) {
	outcomes := make([]ingestuc.Outcome, len(periods))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range periods {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := r.Run(gctx, p)
			if err != nil {
				return fmt.Errorf("period %s: %w", p, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	return outcomes, g.Wait()
}

// periodRange resolves the flags into an inclusive, non-empty period list.
func periodRange(fromArg, toArg string, now time.Time) ([]period.Period, error) {
	if fromArg == "" {
		return nil, fmt.Errorf("-from is required")
	}
	from, err := period.Parse(fromArg)
	if err != nil {
		return nil, err
	}
	to := period.Of(now)
	if toArg != "" {
		if to, err = period.Parse(toArg); err != nil {
			return nil, err
		}
	}
	periods := period.Range(from, to)
	if len(periods) == 0 {
		return nil, fmt.Errorf("-from %s is after -to %s", from, to)
	}
	return periods, nil
}
