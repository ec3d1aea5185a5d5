package entity

import (
	"github.com/google/uuid"
)

// Brand is a monitored advertiser. Created by an administrator and
// soft-disabled (never deleted) to pause collection.
type Brand struct {
	BaseEntity
	Name     string `json:"name" gorm:"column:brand_name;size:255;unique;not null"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
	Notes    string `json:"notes,omitempty" gorm:"type:text"`

	Sources []BrandSource `json:"sources,omitempty" gorm:"foreignKey:BrandID"`
}

// TableName overrides GORM's default pluralization to match spec.md §6.
func (Brand) TableName() string { return "brands" }

// BrandSource is one concrete scrape target belonging to a brand.
// Deactivating a source removes it from future runs but preserves past ads.
type BrandSource struct {
	BaseEntity
	BrandID     uuid.UUID  `json:"brand_id" gorm:"type:uuid;not null;uniqueIndex:idx_brand_source"`
	Platform    Platform   `json:"platform" gorm:"type:varchar(20);not null;uniqueIndex:idx_brand_source"`
	SourceType  SourceType `json:"source_type" gorm:"type:varchar(20);not null"`
	SourceValue string     `json:"source_value" gorm:"size:500;not null;uniqueIndex:idx_brand_source"`
	IsActive    bool       `json:"is_active" gorm:"default:true"`

	Brand *Brand `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
}

// TableName overrides GORM's default pluralization to match spec.md §6.
func (BrandSource) TableName() string { return "brand_sources" }

// MonitoredDomain is the legacy fallback list (domain-only, Google-only),
// read only when zero active BrandSource rows exist (spec.md §4.4).
type MonitoredDomain struct {
	BaseEntity
	Domain   string `json:"domain" gorm:"size:500;unique;not null"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}

// TableName overrides GORM's default pluralization to match spec.md §6.
func (MonitoredDomain) TableName() string { return "monitored_domains" }
