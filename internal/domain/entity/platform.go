package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Platform represents the advertising platform a brand source targets.
type Platform string

const (
	PlatformMeta      Platform = "meta"
	PlatformGoogle    Platform = "google"
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
)

// String returns the string representation of the platform
func (p Platform) String() string {
	return string(p)
}

// IsValid checks if the platform is valid
func (p Platform) IsValid() bool {
	switch p {
	case PlatformMeta, PlatformGoogle, PlatformTikTok, PlatformInstagram:
		return true
	default:
		return false
	}
}

// SourceType represents what kind of value a BrandSource carries.
type SourceType string

const (
	SourceTypeDomain  SourceType = "domain"
	SourceTypeKeyword SourceType = "keyword"
	SourceTypePageID  SourceType = "page_id"
)

// IsValid checks if the source type is valid
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeDomain, SourceTypeKeyword, SourceTypePageID:
		return true
	default:
		return false
	}
}

// Format represents the rendered shape of an ad creative.
type Format string

const (
	FormatImage    Format = "image"
	FormatVideo    Format = "video"
	FormatCarousel Format = "carousel"
	FormatReels    Format = "reels"
	FormatText     Format = "text"
)

// MediaType represents the broad media kind of a creative.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeText  MediaType = "text"
)

// BatchRunStatus represents the lifecycle state of a BatchRun.
type BatchRunStatus string

const (
	BatchRunStatusRunning   BatchRunStatus = "running"
	BatchRunStatusCompleted BatchRunStatus = "completed"
	BatchRunStatusFailed    BatchRunStatus = "failed"
)

// TriggerType represents what caused a BatchRun to start.
type TriggerType string

const (
	TriggerManual              TriggerType = "manual"
	TriggerScheduledIncremental TriggerType = "scheduled_incremental"
	TriggerScheduledFull       TriggerType = "scheduled_full"
)

// ScrapeMode represents the collection mode of a run or scraper invocation.
type ScrapeMode string

const (
	ModeFull        ScrapeMode = "full"
	ModeIncremental ScrapeMode = "incremental"
	ModeAuto        ScrapeMode = "auto"
)

// DateRange represents a date range for upstream queries (e.g. Meta Ad
// Library's start_date[min]/start_date[max] window).
type DateRange struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// NewDateRange creates a new date range
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{StartDate: start, EndDate: end}
}

// LastNDays returns a date range ending now, spanning n days.
func LastNDays(n int) DateRange {
	now := time.Now()
	return DateRange{StartDate: now.AddDate(0, 0, -n), EndDate: now}
}

// BaseEntity contains common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewBaseEntity creates a new base entity with a generated UUID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// JSONMap is a helper type for JSONB columns (raw_data, metadata, per-target
// result maps, BatchRun.errors). The teacher's entities declare jsonb
// columns with this type but never implement the driver.Valuer/sql.Scanner
// pair needed to actually persist them through GORM's default jsonb
// handling; this module supplies it.
type JSONMap map[string]interface{}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("JSONMap: unsupported Scan type")
	}
	if len(bytes) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// StringSlice is a helper type for JSON-array (jsonb) columns such as Ad.tags.
type StringSlice []string

// Value implements driver.Valuer.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("StringSlice: unsupported Scan type")
	}
	if len(bytes) == 0 {
		*s = StringSlice{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Pagination represents pagination parameters
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// Offset returns the offset for the pagination
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages returns the total number of pages
func (p *Pagination) TotalPages() int {
	if p.Total == 0 {
		return 0
	}
	pages := int(p.Total) / p.PageSize
	if int(p.Total)%p.PageSize > 0 {
		pages++
	}
	return pages
}

// NewPagination creates a new pagination with defaults
func NewPagination(page, pageSize int) *Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return &Pagination{Page: page, PageSize: pageSize}
}
