// Package metagraph implements the Meta Graph API `ads_archive` connector
// (spec.md §6): `graph.facebook.com/v23.0/ads_archive` with cursor paging.
package metagraph

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/service"
	"github.com/brandwatch/collector/internal/infrastructure/platform"
	"github.com/brandwatch/collector/pkg/logger"
)

// Config configures the Meta Graph connector.
type Config struct {
	AccessToken     string
	GraphAPIVersion string
	RateLimitCalls  int
	RateLimitWindow time.Duration
}

// Connector drives the Meta Graph API's ads_archive endpoint.
type Connector struct {
	*platform.BaseConnector
	accessToken string
	apiVersion  string
	log         logger.Logger
}

// NewConnector creates a Meta Graph ads_archive connector.
func NewConnector(cfg Config, log logger.Logger) *Connector {
	base := platform.NewBaseConnector(entity.PlatformMeta, &platform.ConnectorConfig{
		BaseURL:         fmt.Sprintf("https://graph.facebook.com/%s", cfg.GraphAPIVersion),
		APIVersion:      cfg.GraphAPIVersion,
		RateLimitCalls:  cfg.RateLimitCalls,
		RateLimitWindow: cfg.RateLimitWindow,
		Timeout:         30 * time.Second,
		MaxRetries:      1,
	})
	return &Connector{BaseConnector: base, accessToken: cfg.AccessToken, apiVersion: cfg.GraphAPIVersion, log: log}
}

// Platform identifies this connector to the scraper registry.
func (c *Connector) Platform() entity.Platform { return entity.PlatformMeta }

type adsArchiveResponse struct {
	Data   []adsArchiveEntry `json:"data"`
	Paging struct {
		Cursors struct {
			After string `json:"after"`
		} `json:"cursors"`
		Next string `json:"next"`
	} `json:"paging"`
}

type adsArchiveEntry struct {
	ID                   string   `json:"id"`
	AdCreativeBodies     []string `json:"ad_creative_bodies"`
	AdCreativeLinkCaptions []string `json:"ad_creative_link_captions"`
	AdCreativeLinkTitles []string `json:"ad_creative_link_titles"`
	AdSnapshotURL        string   `json:"ad_snapshot_url"`
	PageName             string   `json:"page_name"`
	AdDeliveryStartTime  string   `json:"ad_delivery_start_time"`
	AdDeliveryStopTime   string   `json:"ad_delivery_stop_time"`
}

const fields = "id,ad_creative_bodies,ad_creative_link_captions,ad_creative_link_titles,ad_snapshot_url,page_name,ad_delivery_start_time,ad_delivery_stop_time"

// Run queries ads_archive for one target (a keyword or a page_id), paging
// through every result via FetchAllPages, then flushing the collected ads
// through onBatch in chunks of 50 once all pages are fetched.
func (c *Connector) Run(ctx context.Context, target service.Target, opts service.ScrapeOptions, onBatch service.BatchFunc) (*service.ScrapeResult, error) {
	result := &service.ScrapeResult{}
	requestURL := fmt.Sprintf("https://graph.facebook.com/%s/ads_archive", c.apiVersion)

	items, err := platform.FetchAllPages(ctx, func(cursor string) ([]service.NormalizedAd, string, error) {
		params := map[string]string{
			"ad_reached_countries": "['KR']",
			"ad_active_status":     "ALL",
			"fields":               fields,
			"limit":                "100",
			"access_token":         c.accessToken,
		}
		switch target.SourceType {
		case entity.SourceTypePageID:
			params["search_page_ids"] = fmt.Sprintf("['%s']", target.SourceValue)
		default:
			params["search_terms"] = url.QueryEscape(target.SourceValue)
		}
		if cursor != "" {
			params["after"] = cursor
		}

		resp, err := c.DoGet(ctx, requestURL, nil, params)
		if err != nil {
			return nil, "", err
		}

		var parsed adsArchiveResponse
		if err := c.ParseJSON(resp.Body, &parsed); err != nil {
			return nil, "", err
		}

		ads := make([]service.NormalizedAd, 0, len(parsed.Data))
		for _, entry := range parsed.Data {
			ads = append(ads, normalizeEntry(entry))
		}
		return ads, parsed.Paging.Cursors.After, nil
	})
	if err != nil {
		return result, err
	}

	batchSize := 50
	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]
		result.Scraped += len(chunk)
		if err := onBatch(chunk); err != nil {
			return result, fmt.Errorf("flush meta graph batch: %w", err)
		}
	}

	return result, nil
}

func normalizeEntry(e adsArchiveEntry) service.NormalizedAd {
	adCopy := firstOf(e.AdCreativeBodies)

	var startDate, endDate *time.Time
	if t, err := time.Parse(time.RFC3339, e.AdDeliveryStartTime); err == nil {
		startDate = &t
	}
	if t, err := time.Parse(time.RFC3339, e.AdDeliveryStopTime); err == nil {
		endDate = &t
	}

	return service.NormalizedAd{
		SourceID:       e.ID,
		Platform:       entity.PlatformMeta,
		Format:         entity.FormatImage,
		MediaType:      entity.MediaTypeImage,
		AdvertiserName: e.PageName,
		PreviewURL:     e.AdSnapshotURL,
		AdCopy:         adCopy,
		CallToAction:   firstOf(e.AdCreativeLinkCaptions),
		StartDate:      startDate,
		EndDate:        endDate,
		RawData:        map[string]interface{}{"ad_creative_link_titles": e.AdCreativeLinkTitles},
	}
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

