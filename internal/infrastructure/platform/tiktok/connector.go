// Package tiktok implements the TikTok Commercial Content Library
// connector (spec.md §6): a cursor-paginated, bearer-authenticated API.
package tiktok

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/service"
	"github.com/brandwatch/collector/internal/infrastructure/platform"
	"github.com/brandwatch/collector/pkg/logger"
)

const baseURL = "https://open.tiktokapis.com/v2/research/adlib/ad/query/"

// Connector drives TikTok's Commercial Content Library research API.
type Connector struct {
	*platform.BaseConnector
	apiKey string
	log    logger.Logger
}

// Config configures the TikTok connector.
type Config struct {
	APIKey          string
	RateLimitCalls  int
	RateLimitWindow time.Duration
}

// NewConnector creates a TikTok Commercial Content connector.
func NewConnector(cfg Config, log logger.Logger) *Connector {
	base := platform.NewBaseConnector(entity.PlatformTikTok, &platform.ConnectorConfig{
		BaseURL:         baseURL,
		RateLimitCalls:  cfg.RateLimitCalls,
		RateLimitWindow: cfg.RateLimitWindow,
		Timeout:         30 * time.Second,
		MaxRetries:      1,
	})
	return &Connector{BaseConnector: base, apiKey: cfg.APIKey, log: log}
}

// Platform identifies this connector to the scraper registry.
func (c *Connector) Platform() entity.Platform { return entity.PlatformTikTok }

type queryRequest struct {
	SearchTerm string `json:"search_term,omitempty"`
	PageID     string `json:"page_id,omitempty"`
	Cursor     string `json:"cursor,omitempty"`
	MaxCount   int    `json:"max_count"`
}

type queryResponse struct {
	Data struct {
		Ads        []tiktokAd `json:"ads"`
		Cursor     string     `json:"cursor"`
		HasMore    bool       `json:"has_more"`
	} `json:"data"`
}

type tiktokAd struct {
	AdID             string `json:"ad_id"`
	BrandName        string `json:"brand_name"`
	VideoURL         string `json:"video_url"`
	ThumbnailURL     string `json:"thumbnail_url"`
	LandingPageURL   string `json:"landing_page_url"`
	FirstShownDate   string `json:"first_shown_date"`
	LastShownDate    string `json:"last_shown_date"`
	Reach            *int64 `json:"reach"`
}

// Run fetches every page of matching ads for one target (keyword or
// page_id), streaming a batch per page.
func (c *Connector) Run(ctx context.Context, target service.Target, opts service.ScrapeOptions, onBatch service.BatchFunc) (*service.ScrapeResult, error) {
	result := &service.ScrapeResult{}

	headers := c.BuildAuthHeader(c.apiKey)
	headers["Content-Type"] = "application/json"

	fetcher := func(cursor string) ([]service.NormalizedAd, string, error) {
		req := queryRequest{Cursor: cursor, MaxCount: 50}
		switch target.SourceType {
		case entity.SourceTypePageID:
			req.PageID = target.SourceValue
		default:
			req.SearchTerm = target.SourceValue
		}

		resp, err := c.DoPost(ctx, baseURL, headers, req)
		if err != nil {
			return nil, "", err
		}

		var parsed queryResponse
		if err := c.ParseJSON(resp.Body, &parsed); err != nil {
			return nil, "", err
		}

		ads := make([]service.NormalizedAd, 0, len(parsed.Data.Ads))
		for _, ad := range parsed.Data.Ads {
			ads = append(ads, normalizeAd(ad))
		}

		nextCursor := ""
		if parsed.Data.HasMore {
			nextCursor = parsed.Data.Cursor
		}
		return ads, nextCursor, nil
	}

	page := 0
	cursor := ""
	for {
		ads, nextCursor, err := fetcher(cursor)
		if err != nil {
			return result, err
		}

		if len(ads) > 0 {
			result.Scraped += len(ads)
			if err := onBatch(ads); err != nil {
				return result, fmt.Errorf("flush tiktok page %d: %w", page, err)
			}
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
		page++

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}
	}

	return result, nil
}

func normalizeAd(ad tiktokAd) service.NormalizedAd {
	sourceID := ad.AdID
	if sourceID == "" {
		sum := sha256.Sum256([]byte("tiktok:" + ad.BrandName + ":" + ad.VideoURL))
		sourceID = hex.EncodeToString(sum[:])[:16]
	}

	return service.NormalizedAd{
		SourceID:         sourceID,
		Platform:         entity.PlatformTikTok,
		Format:           entity.FormatVideo,
		MediaType:        entity.MediaTypeVideo,
		AdvertiserName:   ad.BrandName,
		ThumbnailURL:     ad.ThumbnailURL,
		PreviewURL:       ad.VideoURL,
		LandingPageURL:   ad.LandingPageURL,
		EngagementCount:  ad.Reach,
		RawData:          map[string]interface{}{"first_shown_date": ad.FirstShownDate, "last_shown_date": ad.LastShownDate},
	}
}

