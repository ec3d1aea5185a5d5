// Package serpapi implements the SerpAPI-backed Google Ads Transparency
// Center connector: an API-driven alternative to the google package's
// browser connector, fronted by a 5-minute TTL cache.
package serpapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/service"
	"github.com/brandwatch/collector/internal/infrastructure/cache"
	"github.com/brandwatch/collector/internal/infrastructure/platform"
	"github.com/brandwatch/collector/pkg/logger"
)

const baseURL = "https://serpapi.com/search"

// Connector drives the `google_ads_transparency_center` SerpAPI engine
// (spec.md §6). Results are cached for CacheTTL, keyed by the normalized
// query, so repeated incremental runs within the window don't re-bill.
type Connector struct {
	*platform.BaseConnector
	apiKey   string
	cacheTTL time.Duration
	cache    *cache.Cache
	log      logger.Logger
}

// Config configures the SerpAPI connector.
type Config struct {
	APIKey          string
	CacheTTL        time.Duration
	RateLimitCalls  int
	RateLimitWindow time.Duration
}

// NewConnector creates a SerpAPI connector.
func NewConnector(cfg Config, c *cache.Cache, log logger.Logger) *Connector {
	base := platform.NewBaseConnector(entity.PlatformGoogle, &platform.ConnectorConfig{
		BaseURL:         baseURL,
		RateLimitCalls:  cfg.RateLimitCalls,
		RateLimitWindow: cfg.RateLimitWindow,
		Timeout:         30 * time.Second,
		MaxRetries:      1,
	})
	return &Connector{BaseConnector: base, apiKey: cfg.APIKey, cacheTTL: cfg.CacheTTL, cache: c, log: log}
}

// Platform identifies this connector to the scraper registry. SerpAPI is a
// second route to Google data; the registry holds one scraper per
// platform, so when a SerpAPI key is configured the CLI registers this
// connector through service.Registry.Register after the browser
// connector, replacing it as the Google scraper (see cmd/collector).
func (c *Connector) Platform() entity.Platform { return entity.PlatformGoogle }

type serpAPIResponse struct {
	AdsResults []serpAPIAd `json:"ads_results"`
}

type serpAPIAd struct {
	AdvertiserID   string `json:"advertiser_id"`
	AdvertiserName string `json:"advertiser_name"`
	CreativeID     string `json:"creative_id"`
	Format         string `json:"format"`
	ImageURL       string `json:"image_url"`
	VideoURL       string `json:"video_url"`
	LandingPageURL string `json:"landing_page_url"`
	Domain         string `json:"domain"`
	FirstShown     string `json:"first_shown"`
	LastShown      string `json:"last_shown"`
}

// Run queries SerpAPI for one domain target and normalizes each ads_result
// row: source_id is the row's creative_id when present, otherwise the
// first 16 hex chars of sha256("google:" + advertiser + ":" + content_url).
// Responses are cached for cacheTTL to absorb repeated incremental polls.
func (c *Connector) Run(ctx context.Context, target service.Target, opts service.ScrapeOptions, onBatch service.BatchFunc) (*service.ScrapeResult, error) {
	params := map[string]string{
		"engine":     "google_ads_transparency_center",
		"domain":     target.SourceValue,
		"region":     firstNonEmptyStr(opts.Region, "KR"),
		"api_key":    c.apiKey,
	}

	cacheKey := cache.SerpAPICacheKey("google_ads_transparency_center", params)

	var resp serpAPIResponse
	if err := c.cache.Get(ctx, cacheKey, &resp); err == nil {
		return c.normalize(target, resp, onBatch)
	}

	headers := map[string]string{}
	httpResp, err := c.DoGet(ctx, baseURL, headers, params)
	if err != nil {
		return nil, err
	}
	if err := c.ParseJSON(httpResp.Body, &resp); err != nil {
		return nil, err
	}

	_ = c.cache.Set(ctx, cacheKey, resp, c.cacheTTL)

	return c.normalize(target, resp, onBatch)
}

func (c *Connector) normalize(target service.Target, resp serpAPIResponse, onBatch service.BatchFunc) (*service.ScrapeResult, error) {
	result := &service.ScrapeResult{}
	batch := make([]service.NormalizedAd, 0, len(resp.AdsResults))

	for _, ad := range resp.AdsResults {
		contentURL := ad.ImageURL
		mediaType := entity.MediaTypeImage
		format := entity.FormatImage
		if ad.VideoURL != "" {
			contentURL = ad.VideoURL
			mediaType = entity.MediaTypeVideo
			format = entity.FormatVideo
		}

		sourceID := ad.CreativeID
		if sourceID == "" {
			sum := sha256.Sum256([]byte("google:" + ad.AdvertiserName + ":" + contentURL))
			sourceID = hex.EncodeToString(sum[:])[:16]
		}

		batch = append(batch, service.NormalizedAd{
			SourceID:       sourceID,
			Platform:       entity.PlatformGoogle,
			Format:         format,
			MediaType:      mediaType,
			AdvertiserName: ad.AdvertiserName,
			ThumbnailURL:   ad.ImageURL,
			PreviewURL:     firstNonEmptyStr(ad.VideoURL, ad.ImageURL),
			LandingPageURL: ad.LandingPageURL,
			Domain:         firstNonEmptyStr(ad.Domain, target.SourceValue),
			CreativeID:     ad.CreativeID,
			RawData:        map[string]interface{}{"serpapi_advertiser_id": ad.AdvertiserID, "first_shown": ad.FirstShown, "last_shown": ad.LastShown},
		})
	}

	result.Scraped = len(batch)
	if len(batch) > 0 {
		if err := onBatch(batch); err != nil {
			return result, fmt.Errorf("flush serpapi batch: %w", err)
		}
	}
	return result, nil
}

func firstNonEmptyStr(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

