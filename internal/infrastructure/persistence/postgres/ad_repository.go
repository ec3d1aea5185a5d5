package postgres

import (
	"context"
	"time"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdRepository is the Ad Store (spec.md §4.1): every ad lands here through
// an upsert keyed on (source_id, platform); creative_id and brand_id are
// never blanked once a prior write has set them.
type AdRepository struct {
	db *gorm.DB
}

// NewAdRepository creates an Ad Store backed by db.
func NewAdRepository(db *Database) *AdRepository {
	return &AdRepository{db: db.DB}
}

var _ repository.AdRepository = (*AdRepository)(nil)

const upsertAdSQL = `
INSERT INTO ads (
	id, source_id, platform, format, media_type,
	advertiser_name, advertiser_handle, advertiser_avatar,
	thumbnail_url, preview_url, ad_copy, call_to_action,
	impressions_count, engagement_count, start_date, end_date,
	tags, landing_page_url, domain, creative_id, brand_id,
	raw_data, saved_at, created_at, updated_at
) VALUES (
	?, ?, ?, ?, ?,
	?, ?, ?,
	?, ?, ?, ?,
	?, ?, ?, ?,
	?, ?, ?, ?, ?,
	?, ?, ?, ?
)
ON CONFLICT (source_id, platform) DO UPDATE SET
	format = EXCLUDED.format,
	media_type = EXCLUDED.media_type,
	advertiser_name = EXCLUDED.advertiser_name,
	advertiser_handle = EXCLUDED.advertiser_handle,
	advertiser_avatar = EXCLUDED.advertiser_avatar,
	thumbnail_url = EXCLUDED.thumbnail_url,
	preview_url = EXCLUDED.preview_url,
	ad_copy = EXCLUDED.ad_copy,
	call_to_action = EXCLUDED.call_to_action,
	impressions_count = EXCLUDED.impressions_count,
	engagement_count = EXCLUDED.engagement_count,
	start_date = EXCLUDED.start_date,
	end_date = EXCLUDED.end_date,
	tags = EXCLUDED.tags,
	landing_page_url = EXCLUDED.landing_page_url,
	domain = EXCLUDED.domain,
	creative_id = COALESCE(EXCLUDED.creative_id, ads.creative_id),
	brand_id = COALESCE(EXCLUDED.brand_id, ads.brand_id),
	raw_data = EXCLUDED.raw_data,
	saved_at = EXCLUDED.saved_at,
	updated_at = EXCLUDED.updated_at
RETURNING (xmax = 0) AS inserted
`

// UpsertBatch upserts each ad as its own statement: the upsert SQL is
// already atomic per row via ON CONFLICT, so a failing row returns an error
// for that row alone and never rolls back the rest of the batch's progress
// (spec.md §4.1 — per-row atomicity, not batch atomicity). A row that fails
// a precondition (missing source_id, or a missing thumbnail_url on a
// non-text ad) is rejected before it ever reaches the database and is
// counted as neither new nor updated.
func (r *AdRepository) UpsertBatch(ctx context.Context, ads []entity.Ad) (entity.UpsertResult, error) {
	var result entity.UpsertResult
	now := time.Now().UTC()

	for i := range ads {
		ad := &ads[i]
		if !validAdRow(ad) {
			continue
		}
		if ad.ID == uuid.Nil {
			ad.ID = uuid.New()
		}
		ad.SavedAt = now

		var inserted bool
		row := r.db.WithContext(ctx).Raw(upsertAdSQL,
			ad.ID, ad.SourceID, ad.Platform, ad.Format, ad.MediaType,
			ad.AdvertiserName, ad.AdvertiserHandle, ad.AdvertiserAvatar,
			ad.ThumbnailURL, ad.PreviewURL, ad.AdCopy, ad.CallToAction,
			ad.ImpressionsCount, ad.EngagementCount, ad.StartDate, ad.EndDate,
			ad.Tags, ad.LandingPageURL, ad.Domain, nullIfEmpty(ad.CreativeID), ad.BrandID,
			ad.RawData, ad.SavedAt, now, now,
		).Row()

		if err := row.Scan(&inserted); err != nil {
			return result, err
		}

		if inserted {
			result.New++
		} else {
			result.Updated++
		}
		result.Total++
	}

	return result, nil
}

// validAdRow reports whether ad carries the fields the store requires
// before it will accept a row: a source_id is always required, and a
// non-text ad must also carry a thumbnail_url (spec.md §4.1, §7).
func validAdRow(ad *entity.Ad) bool {
	if ad.SourceID == "" {
		return false
	}
	if ad.Format != entity.FormatText && ad.ThumbnailURL == "" {
		return false
	}
	return true
}

// nullIfEmpty turns an empty string into a nil bind parameter so a
// COALESCE(EXCLUDED.col, table.col) upsert clause actually falls through to
// the existing value instead of overwriting it with "".
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// ListExistingCreativeIDs returns every non-empty creative_id already stored
// for the platform, restricted to ads whose domain column matches or whose
// landing_page_url contains the bare domain. Used for the incremental
// early-termination heuristic (spec.md §4.2, §9).
func (r *AdRepository) ListExistingCreativeIDs(ctx context.Context, platform entity.Platform, domain string) (map[string]struct{}, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&entity.Ad{}).
		Where("platform = ?", platform).
		Where("creative_id IS NOT NULL AND creative_id != ''").
		Where("domain = ? OR landing_page_url LIKE ?", domain, "%"+domain+"%").
		Pluck("creative_id", &ids).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// GetByID retrieves a single ad by primary key.
func (r *AdRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Ad, error) {
	var ad entity.Ad
	if err := r.db.WithContext(ctx).First(&ad, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ad, nil
}

// CountAll returns the total number of persisted ads.
func (r *AdRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Ad{}).Count(&count).Error
	return count, err
}
