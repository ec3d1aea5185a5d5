package entity

import (
	"time"

	"github.com/google/uuid"
)

// Ad is a single normalized advertising creative, persisted with strong
// identity via the (source_id, platform) uniqueness invariant (spec.md §3).
type Ad struct {
	BaseEntity
	SourceID    string    `json:"source_id" gorm:"size:64;not null;uniqueIndex:idx_source_platform"`
	Platform    Platform  `json:"platform" gorm:"type:varchar(20);not null;uniqueIndex:idx_source_platform"`
	Format      Format    `json:"format" gorm:"type:varchar(20);not null"`
	MediaType   MediaType `json:"media_type" gorm:"type:varchar(20);not null"`

	AdvertiserName   string `json:"advertiser_name" gorm:"size:500"`
	AdvertiserHandle string `json:"advertiser_handle,omitempty" gorm:"size:255"`
	AdvertiserAvatar string `json:"advertiser_avatar,omitempty" gorm:"type:text"`

	ThumbnailURL string `json:"thumbnail_url" gorm:"type:text"`
	PreviewURL   string `json:"preview_url,omitempty" gorm:"type:text"`

	AdCopy            string `json:"ad_copy,omitempty" gorm:"type:text"`
	CallToAction      string `json:"call_to_action,omitempty" gorm:"size:100"`
	ImpressionsCount  *int64 `json:"impressions_count,omitempty"`
	EngagementCount   *int64 `json:"engagement_count,omitempty"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	Tags StringSlice `json:"tags,omitempty" gorm:"type:jsonb;default:'[]'"`

	LandingPageURL string `json:"landing_page_url,omitempty" gorm:"type:text"`
	Domain         string `json:"domain,omitempty" gorm:"size:255;index"`

	// CreativeID is the platform-native ID when recoverable (for Google:
	// the CR… segment of the detail URL). Never blanked by an upsert once set.
	CreativeID string `json:"creative_id,omitempty" gorm:"size:255;index"`

	// BrandID is an optional binding to a monitored Brand. Never blanked by
	// an upsert once set.
	BrandID *uuid.UUID `json:"brand_id,omitempty" gorm:"type:uuid;index"`

	RawData JSONMap `json:"raw_data,omitempty" gorm:"type:jsonb;default:'{}'"`

	SavedAt time.Time `json:"saved_at"`
}

// TableName overrides GORM's default pluralization to match spec.md §6.
func (Ad) TableName() string { return "ads" }

// UpsertResult is the return value of Ad Store's upsertBatch operation.
type UpsertResult struct {
	New     int
	Updated int
	Total   int
}
