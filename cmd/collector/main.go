// Command collector runs the Brand Collection Engine: a batch that resolves
// every active brand's sources into scrape targets, drives each through its
// platform connector, and upserts the results into the Ad Store (spec.md
// §4). Invoked either as a one-shot batch (`run-batch`) or as a standing
// process that also starts the cron scheduler (`serve`).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brandwatch/collector/config"
	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/repository"
	"github.com/brandwatch/collector/internal/domain/service"
	"github.com/brandwatch/collector/internal/infrastructure/cache"
	"github.com/brandwatch/collector/internal/infrastructure/persistence/postgres"
	"github.com/brandwatch/collector/internal/infrastructure/platform/google"
	"github.com/brandwatch/collector/internal/infrastructure/platform/meta"
	"github.com/brandwatch/collector/internal/infrastructure/platform/metagraph"
	"github.com/brandwatch/collector/internal/infrastructure/platform/serpapi"
	"github.com/brandwatch/collector/internal/infrastructure/platform/tiktok"
	"github.com/brandwatch/collector/internal/scheduler"
	"github.com/brandwatch/collector/internal/sinks"
	"github.com/brandwatch/collector/internal/usecase/orchestrator"
	"github.com/brandwatch/collector/internal/usecase/resolver"
	"github.com/brandwatch/collector/pkg/errortracker"
	"github.com/brandwatch/collector/pkg/logger"
	"github.com/brandwatch/collector/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	flagDomain      string
	flagDryRun      bool
	flagTriggerType string
	flagMode        string
	flagMigrate     bool
)

func main() {
	root := &cobra.Command{
		Use:   "collector",
		Short: "Brand Collection Engine — scrapes competitor ad libraries into the Ad Store",
	}

	runBatchCmd := &cobra.Command{
		Use:   "run-batch",
		Short: "Resolve targets and run one collection batch, then exit",
		RunE:  runRunBatch,
	}
	runBatchCmd.Flags().StringVar(&flagDomain, "domain", "", "restrict the batch to a single brand/domain")
	runBatchCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "resolve and print the target list without scraping")
	runBatchCmd.Flags().StringVar(&flagTriggerType, "trigger-type", "manual", "manual|scheduled_incremental|scheduled_full")
	runBatchCmd.Flags().StringVar(&flagMode, "mode", "auto", "full|incremental|auto")
	runBatchCmd.Flags().BoolVar(&flagMigrate, "migrate", false, "run AutoMigrate before the batch")
	root.AddCommand(runBatchCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the cron scheduler and run batches on its schedule until interrupted",
		RunE:  runServe,
	}
	serveCmd.Flags().BoolVar(&flagMigrate, "migrate", false, "run AutoMigrate before starting")
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles everything wireApp constructs so both subcommands can share
// the setup path.
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	db           *postgres.Database
	errTracker   *errortracker.ErrorTracker
	metrics      *metrics.Metrics
	batchRuns    repository.BatchRunRepository
	orchestrator *orchestrator.Orchestrator
}

func wireApp(migrate bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		AppName:    cfg.App.Name,
		Env:        cfg.App.Env,
	})

	errTracker, err := errortracker.Init(errortracker.Config{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		ServerName:  cfg.App.Name,
	})
	if err != nil {
		log.Error().Err(err).Msg("error tracker init failed, continuing without it")
	}

	m := metrics.Init()

	db, err := postgres.NewDatabase(cfg.Database, cfg.App.Debug)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if migrate {
		if err := db.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		log.Info().Msg("schema migration complete")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	serpCache := cache.NewCache(redisClient)

	brandRepo := postgres.NewBrandRepository(db)
	monitoredDomainRepo := postgres.NewMonitoredDomainRepository(db)
	adRepo := postgres.NewAdRepository(db)
	batchRunRepo := postgres.NewBatchRunRepository(db)
	statsRepo := postgres.NewDailyBrandStatsRepository(db)
	activityRepo := postgres.NewActivityLogRepository(db)

	res := resolver.NewResolver(brandRepo, monitoredDomainRepo)

	registry := service.NewRegistry()
	registry.Register(google.NewConnector(google.DefaultConfig(), *log))
	registry.Register(meta.NewConnector(meta.DefaultConfig(), *log))
	registerGoogleRoute(registry, cfg, serpCache, log)
	registerMetaGraphRoute(registry, cfg, log)
	registry.Register(tiktok.NewConnector(tiktok.Config{
		APIKey:          cfg.TikTok.APIKey,
		RateLimitCalls:  cfg.TikTok.RateLimitCalls,
		RateLimitWindow: cfg.TikTok.RateLimitWindow,
	}, *log))

	activitySink := sinks.NewActivitySink(activityRepo, *log)
	statsSink := sinks.NewStatsSink(statsRepo, *log)

	orch := orchestrator.New(res, registry, adRepo, batchRunRepo, activitySink, statsSink, m, *log)

	return &app{cfg: cfg, log: log, db: db, errTracker: errTracker, metrics: m, batchRuns: batchRunRepo, orchestrator: orch}, nil
}

// failInFlightBatchRuns marks every run still "running" as failed with
// finished_at=now. Called from the signal handlers below so a cancelled
// process never leaves an orphaned run row behind (spec.md §4.5
// "Cancellation"). Uses its own background context since the caller's ctx
// is already cancelled by the time this runs.
func failInFlightBatchRuns(log *logger.Logger, repo repository.BatchRunRepository) {
	ctx := context.Background()
	runs, err := repo.ListStaleRunning(ctx, 0)
	if err != nil {
		log.Error().Err(err).Msg("failed to list in-flight batch runs during shutdown")
		return
	}

	now := time.Now().UTC()
	for i := range runs {
		run := &runs[i]
		run.Status = entity.BatchRunStatusFailed
		run.FinishedAt = &now
		if err := repo.Update(ctx, run); err != nil {
			log.Error().Err(err).Str("run_id", run.ID.String()).Msg("failed to mark in-flight batch run as failed")
			continue
		}
		log.Warn().Str("run_id", run.ID.String()).Msg("marked in-flight batch run as failed due to shutdown")
	}
}

// registerGoogleRoute picks which of the two Google-data connectors backs
// the single entity.PlatformGoogle registry slot: service.Registry holds
// one scraper per platform key, and both the browser connector and the
// SerpAPI connector declare Platform() == entity.PlatformGoogle. SerpAPI
// wins whenever an API key is configured — it is cheaper and more reliable
// than driving a real browser — and the browser connector otherwise stays
// registered as the no-API-key fallback.
func registerGoogleRoute(registry *service.Registry, cfg *config.Config, serpCache *cache.Cache, log *logger.Logger) {
	if cfg.SerpAPI.APIKey == "" {
		return
	}
	registry.Register(serpapi.NewConnector(serpapi.Config{
		APIKey:          cfg.SerpAPI.APIKey,
		CacheTTL:        cfg.SerpAPI.CacheTTL,
		RateLimitCalls:  cfg.SerpAPI.RateLimitCalls,
		RateLimitWindow: cfg.SerpAPI.RateLimitWindow,
	}, serpCache, *log))
}

// registerMetaGraphRoute mirrors registerGoogleRoute: the Graph API
// ads_archive connector and the Ad Library browser connector both declare
// entity.PlatformMeta, so whichever is registered last would otherwise win
// arbitrarily. A configured Graph access token indicates the official API
// route is available and preferred over driving a real browser.
func registerMetaGraphRoute(registry *service.Registry, cfg *config.Config, log *logger.Logger) {
	if cfg.Meta.AccessToken == "" {
		return
	}
	registry.Register(metagraph.NewConnector(metagraph.Config{
		AccessToken:     cfg.Meta.AccessToken,
		GraphAPIVersion: cfg.Meta.GraphAPIVersion,
		RateLimitCalls:  cfg.Meta.RateLimitCalls,
		RateLimitWindow: cfg.Meta.RateLimitWindow,
	}, *log))
}

func runRunBatch(cmd *cobra.Command, args []string) error {
	a, err := wireApp(flagMigrate)
	if err != nil {
		return err
	}
	defer closeApp(a)

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(sigCtx, 4*time.Hour)
	defer cancel()

	triggerType := entity.TriggerType(flagTriggerType)
	mode := entity.ScrapeMode(flagMode)

	if flagDryRun {
		plan, err := a.orchestrator.Plan(ctx, flagDomain)
		if err != nil {
			return fmt.Errorf("plan batch: %w", err)
		}
		a.log.Info().Int("target_count", len(plan.Targets)).Msg("dry run: resolved targets")
		for _, t := range plan.Targets {
			fmt.Printf("%s\t%s\t%s\n", t.Label(), t.Platform, t.SourceType)
		}
		return nil
	}

	type outcome struct {
		run *entity.BatchRun
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		run, err := a.orchestrator.RunBatch(ctx, triggerType, mode, flagDomain)
		done <- outcome{run, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			a.log.Error().Err(out.err).Msg("batch run failed")
			return out.err
		}

		a.log.Info().
			Str("status", string(out.run.Status)).
			Int("total_ads_scraped", out.run.TotalAdsScraped).
			Int("total_ads_new", out.run.TotalAdsNew).
			Int("total_ads_updated", out.run.TotalAdsUpdated).
			Int("error_count", len(out.run.Errors)).
			Msg("batch run finished")

		// A batch that completes with per-target errors still exits 0: the
		// run as a whole succeeded even if individual targets failed
		// (spec.md §7). Only an orchestrator-level failure (resolving targets,
		// creating or finalizing the run record) is unrecoverable, and that
		// path already returned above.
		return nil

	case <-sigCtx.Done():
		a.log.Warn().Msg("shutdown signal received mid-batch, marking the run as failed")
		failInFlightBatchRuns(a.log, a.batchRuns)
		return sigCtx.Err()
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := wireApp(flagMigrate)
	if err != nil {
		return err
	}
	defer closeApp(a)

	sched := scheduler.NewScheduler(a.orchestrator, a.log.Zerolog())
	schedCfg := scheduler.BuildConfig(
		a.cfg.Scheduler.Enabled,
		a.cfg.Scheduler.IncrementalInterval,
		a.cfg.Scheduler.FullDay,
		a.cfg.Scheduler.FullHour,
	)
	if err := sched.Start(schedCfg); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	a.log.Info().Msg("shutting down")
	// A cron-driven run still in flight when the signal arrived must not be
	// left "running" forever: mark it failed before waiting for the
	// scheduler to drain (spec.md §4.5 "Cancellation").
	failInFlightBatchRuns(a.log, a.batchRuns)
	sched.Stop()
	return nil
}

func closeApp(a *app) {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error().Err(err).Msg("error closing database")
		}
	}
	if a.errTracker != nil {
		errortracker.Close()
	}
}

// repository is imported for its interface types only, satisfied by the
// postgres package's concrete repositories constructed above.
var (
	_ repository.AdRepository             = (*postgres.AdRepository)(nil)
	_ repository.BrandRepository           = (*postgres.BrandRepository)(nil)
	_ repository.BrandSourceRepository     = (*postgres.BrandSourceRepository)(nil)
	_ repository.MonitoredDomainRepository = (*postgres.MonitoredDomainRepository)(nil)
	_ repository.BatchRunRepository        = (*postgres.BatchRunRepository)(nil)
	_ repository.DailyBrandStatsRepository = (*postgres.DailyBrandStatsRepository)(nil)
	_ repository.ActivityLogRepository     = (*postgres.ActivityLogRepository)(nil)
)
