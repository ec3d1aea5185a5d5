// Package service holds the contracts shared by every platform scraper and
// by the orchestrator that drives them.
package service

import (
	"context"
	"time"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/google/uuid"
)

// Target is one resolved scrape target: a brand's source, ready to hand to
// the scraper registered for its platform.
type Target struct {
	BrandID     uuid.UUID
	BrandName   string
	Platform    entity.Platform
	SourceType  entity.SourceType
	SourceValue string
}

// Label is the human-readable identifier the orchestrator uses to key
// per-target results and to prefix target-fatal error strings.
func (t Target) Label() string {
	return t.BrandName + "/" + string(t.Platform) + "/" + t.SourceValue
}

// NormalizedAd is the single schema every platform scraper emits into,
// before the Ad Store persists it as an entity.Ad (spec.md §3).
type NormalizedAd struct {
	SourceID         string
	Platform         entity.Platform
	Format           entity.Format
	MediaType        entity.MediaType
	AdvertiserName   string
	AdvertiserHandle string
	AdvertiserAvatar string
	ThumbnailURL     string
	PreviewURL       string
	AdCopy           string
	CallToAction     string
	ImpressionsCount *int64
	EngagementCount  *int64
	StartDate        *time.Time
	EndDate          *time.Time
	Tags             []string
	LandingPageURL   string
	Domain           string
	CreativeID       string
	BrandID          *uuid.UUID
	RawData          map[string]interface{}
}

// ScrapeOptions carries the common options every scraper accepts
// (spec.md §4.2).
type ScrapeOptions struct {
	Headless           bool
	MaxResults         *int // nil == unbounded
	Mode               entity.ScrapeMode
	KnownIdentityKeys   map[string]struct{} // e.g. existing creative IDs, for incremental early-termination
	Region             string
}

// Unbounded reports whether MaxResults is unset.
func (o ScrapeOptions) Unbounded() bool { return o.MaxResults == nil }

// BatchFunc streams a slice of freshly scraped ads to the caller. The
// scraper retains no post-flush state; the store's upsert results are
// authoritative (spec.md §4.3 "Batched streaming").
type BatchFunc func(ads []NormalizedAd) error

// ScrapeResult is returned by Scraper.Run once a target finishes (success
// or per-item-degraded). Target-fatal failures are returned as an error
// instead.
type ScrapeResult struct {
	Scraped int
	Warnings []string
}

// Scraper is the common contract every platform driver implements, whether
// browser-driven (Meta, Google) or API-driven (SerpAPI, TikTok, Meta Graph).
type Scraper interface {
	Platform() entity.Platform
	Run(ctx context.Context, target Target, opts ScrapeOptions, onBatch BatchFunc) (*ScrapeResult, error)
}

// Registry looks up the Scraper registered for a platform, mirroring the
// teacher's ConnectorRegistry pattern (base_connector.go).
type Registry struct {
	scrapers map[entity.Platform]Scraper
}

// NewRegistry creates an empty scraper registry.
func NewRegistry() *Registry {
	return &Registry{scrapers: make(map[entity.Platform]Scraper)}
}

// Register adds a scraper to the registry, keyed by its own Platform().
func (r *Registry) Register(s Scraper) {
	r.scrapers[s.Platform()] = s
}

// Get returns the scraper registered for a platform, if any.
func (r *Registry) Get(p entity.Platform) (Scraper, bool) {
	s, ok := r.scrapers[p]
	return s, ok
}
