package entity

import (
	"time"

	"github.com/google/uuid"
)

// BatchRun is the accountability record for one orchestration pass
// (spec.md §3, §4.5). It is created on orchestrator entry, updated after
// every target, finalized on exit, and never deleted.
type BatchRun struct {
	BaseEntity
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Status     BatchRunStatus `json:"status" gorm:"type:varchar(20);not null;default:'running'"`

	TotalTargets     int `json:"total_targets"`
	TotalAdsScraped  int `json:"total_ads_scraped"`
	TotalAdsNew      int `json:"total_ads_new"`
	TotalAdsUpdated  int `json:"total_ads_updated"`

	// TargetResults maps a target label to its per-target result
	// (scraped/new/updated/error), persisted after every target so the run
	// is inspectable mid-flight (spec.md §4.5 step 4d).
	TargetResults JSONMap `json:"target_results" gorm:"column:domain_results;type:jsonb;default:'{}'"`

	// Errors maps each failed target's label to its "[label] ErrType: msg"
	// line (spec.md §8 E5).
	Errors JSONMap `json:"errors" gorm:"type:jsonb;default:'{}'"`

	TriggerType TriggerType `json:"trigger_type" gorm:"type:varchar(30);not null"`
}

// TableName overrides GORM's default pluralization to match spec.md §6.
func (BatchRun) TableName() string { return "batch_runs" }

// TargetResult is one entry of BatchRun.TargetResults.
type TargetResult struct {
	Scraped int    `json:"scraped"`
	New     int    `json:"new"`
	Updated int    `json:"updated"`
	Error   string `json:"error,omitempty"`
}

// DailyBrandStats accumulates new/updated/scraped counts per
// (brand, date, platform), incremented (not replaced) within the day.
type DailyBrandStats struct {
	BaseEntity
	BrandID      uuid.UUID  `json:"brand_id" gorm:"type:uuid;not null;uniqueIndex:idx_daily_brand_stats"`
	StatDate     time.Time  `json:"stat_date" gorm:"type:date;not null;uniqueIndex:idx_daily_brand_stats"`
	Platform     Platform   `json:"platform" gorm:"type:varchar(20);not null;uniqueIndex:idx_daily_brand_stats"`
	NewCount     int        `json:"new_count" gorm:"default:0"`
	UpdatedCount int        `json:"updated_count" gorm:"default:0"`
	TotalScraped int        `json:"total_scraped" gorm:"default:0"`
}

// TableName overrides GORM's default pluralization to match spec.md §6.
func (DailyBrandStats) TableName() string { return "daily_brand_stats" }

// ActivityLog is an append-only event record (spec.md §4.7). Failures
// writing it are logged locally but never propagated.
type ActivityLog struct {
	BaseEntity
	EventType    string  `json:"event_type" gorm:"size:100;not null;index"`
	EventSubtype string  `json:"event_subtype,omitempty" gorm:"size:100"`
	Title        string  `json:"title" gorm:"size:500"`
	Message      string  `json:"message,omitempty" gorm:"type:text"`
	Metadata     JSONMap `json:"metadata,omitempty" gorm:"type:jsonb;default:'{}'"`
}

// TableName overrides GORM's default pluralization to match spec.md §6.
func (ActivityLog) TableName() string { return "activity_logs" }
