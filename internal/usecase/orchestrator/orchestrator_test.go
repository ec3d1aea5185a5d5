package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/service"
	"github.com/brandwatch/collector/internal/sinks"
	"github.com/brandwatch/collector/internal/usecase/resolver"
	"github.com/brandwatch/collector/pkg/logger"
	"github.com/brandwatch/collector/pkg/metrics"
	"github.com/google/uuid"
)

// metrics.Init() registers against the default Prometheus registry; calling
// it more than once per process panics on duplicate collector registration,
// so every test in this file shares one initialization.
var testMetricsOnce sync.Once
var testMetrics *metrics.Metrics

func sharedTestMetrics() *metrics.Metrics {
	testMetricsOnce.Do(func() { testMetrics = metrics.Init() })
	return testMetrics
}

// --- fakes grounded on the narrow repository interfaces the orchestrator depends on ---

type fakeAdRepo struct {
	upserted []entity.Ad
	newCount int
	known    map[string]struct{}
}

func (f *fakeAdRepo) UpsertBatch(ctx context.Context, ads []entity.Ad) (entity.UpsertResult, error) {
	f.upserted = append(f.upserted, ads...)
	f.newCount += len(ads)
	return entity.UpsertResult{New: len(ads), Updated: 0, Total: len(ads)}, nil
}

func (f *fakeAdRepo) ListExistingCreativeIDs(ctx context.Context, platform entity.Platform, domain string) (map[string]struct{}, error) {
	return f.known, nil
}

func (f *fakeAdRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Ad, error) { return nil, nil }
func (f *fakeAdRepo) CountAll(ctx context.Context) (int64, error)                   { return int64(len(f.upserted)), nil }

type fakeBatchRunRepo struct {
	runs []*entity.BatchRun
}

func (f *fakeBatchRunRepo) Create(ctx context.Context, run *entity.BatchRun) error {
	f.runs = append(f.runs, run)
	return nil
}
func (f *fakeBatchRunRepo) Update(ctx context.Context, run *entity.BatchRun) error { return nil }
func (f *fakeBatchRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.BatchRun, error) {
	return nil, nil
}
func (f *fakeBatchRunRepo) ListStaleRunning(ctx context.Context, olderThan time.Duration) ([]entity.BatchRun, error) {
	return nil, nil
}

type fakeActivityLogRepo struct{ appended int }

func (f *fakeActivityLogRepo) Append(ctx context.Context, log *entity.ActivityLog) error {
	f.appended++
	return nil
}

type fakeStatsRepo struct{ calls int }

func (f *fakeStatsRepo) IncrementStats(ctx context.Context, brandID uuid.UUID, statDate time.Time, platform entity.Platform, newCount, updatedCount, totalScraped int) error {
	f.calls++
	return nil
}

type fakeBrandRepo struct{ brands []entity.Brand }

func (f *fakeBrandRepo) Create(ctx context.Context, brand *entity.Brand) error { return nil }
func (f *fakeBrandRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Brand, error) {
	return nil, nil
}
func (f *fakeBrandRepo) GetByName(ctx context.Context, name string) (*entity.Brand, error) {
	return nil, nil
}
func (f *fakeBrandRepo) Update(ctx context.Context, brand *entity.Brand) error { return nil }
func (f *fakeBrandRepo) ListActiveWithSources(ctx context.Context) ([]entity.Brand, error) {
	return f.brands, nil
}

type fakeMonitoredDomainRepo struct{}

func (f *fakeMonitoredDomainRepo) ListActive(ctx context.Context) ([]entity.MonitoredDomain, error) {
	return nil, nil
}

// fakeScraper lets each test control exactly what a target's scrape run
// returns, including a target-fatal error (E5).
type fakeScraper struct {
	platform entity.Platform
	ads      []service.NormalizedAd
	err      error
}

func (f *fakeScraper) Platform() entity.Platform { return f.platform }
func (f *fakeScraper) Run(ctx context.Context, target service.Target, opts service.ScrapeOptions, onBatch service.BatchFunc) (*service.ScrapeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.ads) > 0 {
		if err := onBatch(f.ads); err != nil {
			return nil, err
		}
	}
	return &service.ScrapeResult{Scraped: len(f.ads)}, nil
}

func testLogger() logger.Logger {
	return *logger.Init(logger.Config{Level: "error", Format: "json", Output: "stdout"})
}

func newTestOrchestrator(brands []entity.Brand, scrapers map[entity.Platform]*fakeScraper, adRepo *fakeAdRepo) *Orchestrator {
	res := resolver.NewResolver(&fakeBrandRepo{brands: brands}, &fakeMonitoredDomainRepo{})

	registry := service.NewRegistry()
	for _, s := range scrapers {
		registry.Register(s)
	}

	activitySink := sinks.NewActivitySink(&fakeActivityLogRepo{}, testLogger())
	statsSink := sinks.NewStatsSink(&fakeStatsRepo{}, testLogger())

	return New(res, registry, adRepo, &fakeBatchRunRepo{}, activitySink, statsSink, sharedTestMetrics(), testLogger())
}

func oneBrandTarget(platform entity.Platform, sourceType entity.SourceType, sourceValue string) []entity.Brand {
	return []entity.Brand{
		{
			BaseEntity: entity.BaseEntity{ID: uuid.New()},
			Name:       "Acme Corp",
			IsActive:   true,
			Sources: []entity.BrandSource{
				{Platform: platform, SourceType: sourceType, SourceValue: sourceValue, IsActive: true},
			},
		},
	}
}

func TestRunBatch_UpsertsScrapedAds(t *testing.T) {
	ads := []service.NormalizedAd{
		{SourceID: "abc123", Platform: entity.PlatformGoogle, Format: entity.FormatImage, MediaType: entity.MediaTypeImage},
	}
	scraper := &fakeScraper{platform: entity.PlatformGoogle, ads: ads}
	adRepo := &fakeAdRepo{}

	orch := newTestOrchestrator(oneBrandTarget(entity.PlatformGoogle, entity.SourceTypeDomain, "acme.example"),
		map[entity.Platform]*fakeScraper{entity.PlatformGoogle: scraper}, adRepo)

	run, err := orch.RunBatch(context.Background(), entity.TriggerManual, entity.ModeIncremental, "")
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	if run.Status != entity.BatchRunStatusCompleted {
		t.Errorf("Status = %q, want completed", run.Status)
	}
	if run.TotalAdsScraped != 1 {
		t.Errorf("TotalAdsScraped = %d, want 1", run.TotalAdsScraped)
	}
	if len(adRepo.upserted) != 1 {
		t.Fatalf("upserted %d ads, want 1", len(adRepo.upserted))
	}
}

func TestRunBatch_TargetFatalErrorIsolated(t *testing.T) {
	// A scraper error on one target must not abort the batch (spec.md §8 E5):
	// the run still finalizes as completed, with the failure recorded.
	scraper := &fakeScraper{platform: entity.PlatformGoogle, err: errors.New("navigation timeout")}
	adRepo := &fakeAdRepo{}

	orch := newTestOrchestrator(oneBrandTarget(entity.PlatformGoogle, entity.SourceTypeDomain, "acme.example"),
		map[entity.Platform]*fakeScraper{entity.PlatformGoogle: scraper}, adRepo)

	run, err := orch.RunBatch(context.Background(), entity.TriggerManual, entity.ModeIncremental, "")
	if err != nil {
		t.Fatalf("RunBatch() error = %v, want nil (target errors don't fail the run)", err)
	}
	if run.Status != entity.BatchRunStatusCompleted {
		t.Errorf("Status = %q, want completed even with a target error", run.Status)
	}
	if len(run.Errors) != 1 {
		t.Errorf("Errors has %d entries, want 1", len(run.Errors))
	}
}

func TestPlan_DoesNotTouchTheStore(t *testing.T) {
	scraper := &fakeScraper{platform: entity.PlatformGoogle, ads: []service.NormalizedAd{{SourceID: "x", Platform: entity.PlatformGoogle}}}
	adRepo := &fakeAdRepo{}

	orch := newTestOrchestrator(oneBrandTarget(entity.PlatformGoogle, entity.SourceTypeDomain, "acme.example"),
		map[entity.Platform]*fakeScraper{entity.PlatformGoogle: scraper}, adRepo)

	plan, err := orch.Plan(context.Background(), "")
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(plan.Targets) != 1 {
		t.Fatalf("got %d planned targets, want 1", len(plan.Targets))
	}
	if len(adRepo.upserted) != 0 {
		t.Error("Plan() must not upsert any ads")
	}
}

func TestRunBatch_IncrementalModePassesKnownIdentityKeys(t *testing.T) {
	known := map[string]struct{}{"already-seen": {}}
	var sawKnown bool

	scraper := &fakeScraperFunc{
		platform: entity.PlatformGoogle,
		run: func(ctx context.Context, target service.Target, opts service.ScrapeOptions, onBatch service.BatchFunc) (*service.ScrapeResult, error) {
			_, sawKnown = opts.KnownIdentityKeys["already-seen"]
			return &service.ScrapeResult{}, nil
		},
	}
	adRepo := &fakeAdRepo{known: known}

	res := resolver.NewResolver(&fakeBrandRepo{brands: oneBrandTarget(entity.PlatformGoogle, entity.SourceTypeDomain, "acme.example")}, &fakeMonitoredDomainRepo{})
	registry := service.NewRegistry()
	registry.Register(scraper)
	activitySink := sinks.NewActivitySink(&fakeActivityLogRepo{}, testLogger())
	statsSink := sinks.NewStatsSink(&fakeStatsRepo{}, testLogger())
	orch := New(res, registry, adRepo, &fakeBatchRunRepo{}, activitySink, statsSink, sharedTestMetrics(), testLogger())

	if _, err := orch.RunBatch(context.Background(), entity.TriggerManual, entity.ModeIncremental, ""); err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	if !sawKnown {
		t.Error("incremental run did not pass through the known identity keys")
	}
}

// fakeScraperFunc lets a test inspect the ScrapeOptions the orchestrator built.
type fakeScraperFunc struct {
	platform entity.Platform
	run      func(ctx context.Context, target service.Target, opts service.ScrapeOptions, onBatch service.BatchFunc) (*service.ScrapeResult, error)
}

func (f *fakeScraperFunc) Platform() entity.Platform { return f.platform }
func (f *fakeScraperFunc) Run(ctx context.Context, target service.Target, opts service.ScrapeOptions, onBatch service.BatchFunc) (*service.ScrapeResult, error) {
	return f.run(ctx, target, opts, onBatch)
}
