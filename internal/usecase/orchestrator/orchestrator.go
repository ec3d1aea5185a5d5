// Package orchestrator implements the Collection Orchestrator (spec.md
// §4.5): the state machine that drives every resolved target through its
// platform scraper, streams results into the Ad Store, and keeps a
// persistent BatchRun row current as it goes.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/repository"
	"github.com/brandwatch/collector/internal/domain/service"
	"github.com/brandwatch/collector/internal/sinks"
	"github.com/brandwatch/collector/internal/usecase/resolver"
	apperrors "github.com/brandwatch/collector/pkg/errors"
	"github.com/brandwatch/collector/pkg/errortracker"
	"github.com/brandwatch/collector/pkg/logger"
	"github.com/brandwatch/collector/pkg/metrics"
	"github.com/google/uuid"
)

// Orchestrator executes one batch run across all resolved targets.
type Orchestrator struct {
	resolver  *resolver.Resolver
	registry  *service.Registry
	ads       repository.AdRepository
	runs      repository.BatchRunRepository
	activity  *sinks.ActivitySink
	stats     *sinks.StatsSink
	metrics   *metrics.Metrics
	log       logger.Logger
}

// New creates a Collection Orchestrator.
func New(
	r *resolver.Resolver,
	registry *service.Registry,
	ads repository.AdRepository,
	runs repository.BatchRunRepository,
	activity *sinks.ActivitySink,
	stats *sinks.StatsSink,
	m *metrics.Metrics,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		resolver: r,
		registry: registry,
		ads:      ads,
		runs:     runs,
		activity: activity,
		stats:    stats,
		metrics:  m,
		log:      log,
	}
}

// Plan is the dry-run result: the target list the batch would process,
// without touching the store (spec.md §4.5 step 2).
type Plan struct {
	Targets []service.Target
}

// RunBatch executes a full batch per spec.md §4.5. mode=auto resolves to
// full on Sunday, incremental otherwise. RunBatch always runs the batch;
// the dry-run path is Plan, which resolves targets without touching the
// store.
func (o *Orchestrator) RunBatch(ctx context.Context, triggerType entity.TriggerType, mode entity.ScrapeMode, domainFilter string) (*entity.BatchRun, error) {
	run, _, err := o.runBatch(ctx, triggerType, mode, domainFilter, false)
	return run, err
}

// Plan resolves the target list without touching the store (spec.md §4.5
// step 2, dry_run=true).
func (o *Orchestrator) Plan(ctx context.Context, domainFilter string) (*Plan, error) {
	_, plan, err := o.runBatch(ctx, entity.TriggerManual, entity.ModeIncremental, domainFilter, true)
	return plan, err
}

func (o *Orchestrator) runBatch(ctx context.Context, triggerType entity.TriggerType, mode entity.ScrapeMode, domainFilter string, dryRun bool) (*entity.BatchRun, *Plan, error) {
	resolvedMode := mode
	if mode == entity.ModeAuto {
		if time.Now().UTC().Weekday() == time.Sunday {
			resolvedMode = entity.ModeFull
		} else {
			resolvedMode = entity.ModeIncremental
		}
	}

	targets, err := o.resolver.Resolve(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve targets: %w", err)
	}

	if domainFilter != "" {
		targets = filterByDomain(targets, domainFilter)
	}

	if dryRun {
		return nil, &Plan{Targets: targets}, nil
	}

	run := &entity.BatchRun{
		BaseEntity:    entity.BaseEntity{ID: uuid.New()},
		StartedAt:     time.Now().UTC(),
		Status:        entity.BatchRunStatusRunning,
		TotalTargets:  len(targets),
		TargetResults: entity.JSONMap{},
		Errors:        entity.JSONMap{},
		TriggerType:   triggerType,
	}

	if err := o.runs.Create(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("create batch run: %w", err)
	}

	runLog := o.log.With().Str("run_id", run.ID.String()).Str("trigger_type", string(triggerType)).Logger()
	runLog.Info().Int("total_targets", run.TotalTargets).Msg("batch run started")
	o.activity.Emit(ctx, "collection/batch_started", "", "Batch run started",
		fmt.Sprintf("%d targets queued", len(targets)),
		entity.JSONMap{"run_id": run.ID.String(), "trigger_type": string(triggerType)})

	var errs []string
	startedAt := time.Now()

	for _, target := range targets {
		result, err := o.runTarget(ctx, run, target, resolvedMode)
		if err != nil {
			errLine := err.Error() // a TargetError already renders "[label] ErrType: msg"
			errs = append(errs, errLine)
			runLog.Error().Str("target", target.Label()).Err(err).Msg("target failed")

			if o.metrics != nil {
				o.metrics.RecordTargetError(string(target.Platform))
			}
			o.activity.Emit(ctx, "collection/batch_failed", string(target.Platform),
				"Target failed", errLine, entity.JSONMap{"run_id": run.ID.String(), "target": target.Label()})

			run.Errors[target.Label()] = errLine
			run.TargetResults[target.Label()] = entity.TargetResult{Error: err.Error()}
		} else {
			run.TotalAdsScraped += result.Scraped
			run.TotalAdsNew += result.New
			run.TotalAdsUpdated += result.Updated
			run.TargetResults[target.Label()] = entity.TargetResult{
				Scraped: result.Scraped, New: result.New, Updated: result.Updated,
			}

			if result.New > 0 {
				o.activity.Emit(ctx, "ad_change/new_ads_found", string(target.Platform),
					"New ads found", fmt.Sprintf("%d new ads for %s", result.New, target.Label()),
					entity.JSONMap{"run_id": run.ID.String(), "target": target.Label()})
			}
			if result.New+result.Updated > 0 && target.BrandID != uuid.Nil {
				o.stats.Record(ctx, target.BrandID, target.Platform, result.New, result.Updated, result.Scraped)
			}
		}

		if persistErr := o.runs.Update(ctx, run); persistErr != nil {
			runLog.Error().Err(persistErr).Msg("failed to persist mid-run batch state")
		}
	}

	finishedAt := time.Now().UTC()
	run.FinishedAt = &finishedAt
	run.Status = entity.BatchRunStatusCompleted

	if err := o.runs.Update(ctx, run); err != nil {
		errortracker.CaptureErrorWithContext(ctx, err, map[string]interface{}{"run_id": run.ID.String()})
		return run, nil, fmt.Errorf("finalize batch run: %w", err)
	}

	if o.metrics != nil {
		o.metrics.RecordBatchRun(string(run.Status), string(triggerType), time.Since(startedAt))
	}

	runLog.Info().
		Int("total_ads_scraped", run.TotalAdsScraped).
		Int("total_ads_new", run.TotalAdsNew).
		Int("total_ads_updated", run.TotalAdsUpdated).
		Int("errors", len(errs)).
		Msg("batch run completed")

	o.activity.Emit(ctx, "collection/batch_completed", "", "Batch run completed",
		fmt.Sprintf("%d ads scraped, %d new, %d updated", run.TotalAdsScraped, run.TotalAdsNew, run.TotalAdsUpdated),
		entity.JSONMap{"run_id": run.ID.String()})

	return run, nil, nil
}

// targetResult is the per-target aggregate the orchestrator accumulates as
// the scraper streams batches through the onBatch callback.
type targetResult struct {
	Scraped int
	New     int
	Updated int
}

// runTarget drives a single target's scraper to completion, streaming every
// batch through the Ad Store. A scraper error here is target-fatal: it is
// captured and recorded, never propagated to abort the whole run.
func (o *Orchestrator) runTarget(ctx context.Context, run *entity.BatchRun, target service.Target, mode entity.ScrapeMode) (*targetResult, error) {
	scraper, ok := o.registry.Get(target.Platform)
	if !ok {
		return nil, apperrors.NewTargetError(target.Label(), string(target.Platform), fmt.Errorf("no scraper registered for platform %q", target.Platform))
	}

	start := time.Now()
	agg := &targetResult{}

	opts := service.ScrapeOptions{Mode: mode}
	if mode == entity.ModeIncremental {
		existing, err := o.ads.ListExistingCreativeIDs(ctx, target.Platform, target.SourceValue)
		if err == nil {
			opts.KnownIdentityKeys = existing
		}
	}

	onBatch := func(normalized []service.NormalizedAd) error {
		ads := make([]entity.Ad, 0, len(normalized))
		for _, n := range normalized {
			domain := n.Domain
			if domain == "" {
				domain = target.SourceValue
			}

			var brandID *uuid.UUID
			if target.BrandID != uuid.Nil {
				id := target.BrandID
				brandID = &id
			}

			ads = append(ads, entity.Ad{
				SourceID: n.SourceID, Platform: n.Platform, Format: n.Format, MediaType: n.MediaType,
				AdvertiserName: n.AdvertiserName, AdvertiserHandle: n.AdvertiserHandle, AdvertiserAvatar: n.AdvertiserAvatar,
				ThumbnailURL: n.ThumbnailURL, PreviewURL: n.PreviewURL, AdCopy: n.AdCopy, CallToAction: n.CallToAction,
				ImpressionsCount: n.ImpressionsCount, EngagementCount: n.EngagementCount,
				StartDate: n.StartDate, EndDate: n.EndDate, Tags: entity.StringSlice(n.Tags),
				LandingPageURL: n.LandingPageURL, Domain: domain, CreativeID: n.CreativeID,
				BrandID: brandID, RawData: entity.JSONMap(n.RawData),
			})
		}

		result, err := o.ads.UpsertBatch(ctx, ads)
		if err != nil {
			return err
		}

		agg.Scraped += result.Total
		agg.New += result.New
		agg.Updated += result.Updated
		return nil
	}

	_, err := scraper.Run(ctx, target, opts, onBatch)
	if o.metrics != nil {
		o.metrics.RecordScrape(string(target.Platform), agg.Scraped, agg.New, agg.Updated, time.Since(start))
	}

	if err != nil {
		return agg, apperrors.NewTargetError(target.Label(), string(target.Platform), err)
	}

	return agg, nil
}

func filterByDomain(targets []service.Target, domain string) []service.Target {
	filtered := make([]service.Target, 0, len(targets))
	for _, t := range targets {
		if t.SourceValue == domain || t.BrandName == domain {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
