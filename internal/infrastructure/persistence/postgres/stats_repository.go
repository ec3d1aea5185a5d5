package postgres

import (
	"context"
	"time"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DailyBrandStatsRepository accumulates per-(brand, date, platform) counts,
// additive within the day (spec.md §4.7).
type DailyBrandStatsRepository struct {
	db *gorm.DB
}

// NewDailyBrandStatsRepository creates a stats repository backed by db.
func NewDailyBrandStatsRepository(db *Database) *DailyBrandStatsRepository {
	return &DailyBrandStatsRepository{db: db.DB}
}

var _ repository.DailyBrandStatsRepository = (*DailyBrandStatsRepository)(nil)

const incrementStatsSQL = `
INSERT INTO daily_brand_stats (
	id, brand_id, stat_date, platform, new_count, updated_count, total_scraped, created_at, updated_at
) VALUES (
	?, ?, ?, ?, ?, ?, ?, ?, ?
)
ON CONFLICT (brand_id, stat_date, platform) DO UPDATE SET
	new_count = daily_brand_stats.new_count + EXCLUDED.new_count,
	updated_count = daily_brand_stats.updated_count + EXCLUDED.updated_count,
	total_scraped = daily_brand_stats.total_scraped + EXCLUDED.total_scraped,
	updated_at = EXCLUDED.updated_at
`

// IncrementStats adds to the day's running counts rather than replacing
// them, so repeated incremental runs on the same day accumulate correctly.
func (r *DailyBrandStatsRepository) IncrementStats(ctx context.Context, brandID uuid.UUID, statDate time.Time, platform entity.Platform, newCount, updatedCount, totalScraped int) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Exec(incrementStatsSQL,
		uuid.New(), brandID, statDate.Format("2006-01-02"), platform,
		newCount, updatedCount, totalScraped, now, now,
	).Error
}
