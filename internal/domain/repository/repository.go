package repository

import (
	"context"
	"time"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/google/uuid"
)

// AdRepository defines the interface for the Ad Store (spec.md §4.1).
type AdRepository interface {
	// UpsertBatch atomically (per-row) inserts each ad; on conflict with
	// (source_id, platform) it updates mutable fields and coalesces
	// creative_id/brand_id without blanking an existing value. Returns the
	// new/updated/total counts; a batch may partially succeed.
	UpsertBatch(ctx context.Context, ads []entity.Ad) (entity.UpsertResult, error)

	// ListExistingCreativeIDs returns every non-null creative_id for ads
	// whose domain matches, or whose landing_page_url substring-contains,
	// the given bare domain (spec.md §4.1, used for incremental skip).
	ListExistingCreativeIDs(ctx context.Context, platform entity.Platform, domain string) (map[string]struct{}, error)

	// GetByID retrieves a single ad by its primary key.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Ad, error)

	// CountAll returns the total number of persisted ads, used by
	// idempotency tests (invariant 1).
	CountAll(ctx context.Context) (int64, error)
}

// BrandRepository defines the interface for brand persistence.
type BrandRepository interface {
	Create(ctx context.Context, brand *entity.Brand) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Brand, error)
	GetByName(ctx context.Context, name string) (*entity.Brand, error)
	Update(ctx context.Context, brand *entity.Brand) error

	// ListActiveWithSources returns every active brand together with its
	// active sources, ordered by (brand_name, platform) for deterministic
	// dry-run target lists (spec.md §4.4).
	ListActiveWithSources(ctx context.Context) ([]entity.Brand, error)
}

// BrandSourceRepository defines the interface for brand source persistence.
type BrandSourceRepository interface {
	Create(ctx context.Context, source *entity.BrandSource) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.BrandSource, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	ListByBrand(ctx context.Context, brandID uuid.UUID) ([]entity.BrandSource, error)
}

// MonitoredDomainRepository defines the interface for the legacy
// domain-only fallback list (spec.md §4.4).
type MonitoredDomainRepository interface {
	ListActive(ctx context.Context) ([]entity.MonitoredDomain, error)
}

// BatchRunRepository defines the interface for the orchestrator's
// accountability record (spec.md §4.5).
type BatchRunRepository interface {
	Create(ctx context.Context, run *entity.BatchRun) error
	Update(ctx context.Context, run *entity.BatchRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.BatchRun, error)

	// ListStaleRunning returns runs still "running" that started before
	// the given cutoff — the janitor spec.md §4.5 documents as manual.
	ListStaleRunning(ctx context.Context, olderThan time.Duration) ([]entity.BatchRun, error)
}

// DailyBrandStatsRepository defines the interface for the daily stats sink
// (spec.md §4.7). IncrementStats is additive, never a replace.
type DailyBrandStatsRepository interface {
	IncrementStats(ctx context.Context, brandID uuid.UUID, statDate time.Time, platform entity.Platform, newCount, updatedCount, totalScraped int) error
}

// ActivityLogRepository defines the interface for the append-only activity
// log sink (spec.md §4.7). Failures writing it are never propagated by the
// caller — only logged locally.
type ActivityLogRepository interface {
	Append(ctx context.Context, log *entity.ActivityLog) error
}
