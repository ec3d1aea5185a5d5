package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/service"
	"github.com/brandwatch/collector/pkg/logger"
	"github.com/chromedp/chromedp"
)

const (
	detailContentWaitSelector = `creative-details img[src*="simgad"], creative-details iframe[src*="youtube"], creative-details iframe[src*="sadbundle"]`
	batchSize                 = 50
	scrollTimeout              = 5 * time.Minute
	userAgent                  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds the Google connector's browser tuning knobs.
type Config struct {
	Headless        bool
	MaxScrollRounds int // not read: the gallery scroll loop always uses 100 rounds when unbounded and 15 otherwise
	NavigateTimeout time.Duration
}

// DefaultConfig returns the connector's default browser configuration.
func DefaultConfig() Config {
	return Config{Headless: true, NavigateTimeout: 60 * time.Second}
}

// Connector drives the Ads Transparency Center in a headless browser via
// chromedp — no API key, no rate limit, just a real page load per creative.
type Connector struct {
	cfg Config
	log logger.Logger
}

// NewConnector creates a Google Ads Transparency connector.
func NewConnector(cfg Config, log logger.Logger) *Connector {
	return &Connector{cfg: cfg, log: log}
}

// Platform identifies this connector to the scraper registry.
func (c *Connector) Platform() entity.Platform { return entity.PlatformGoogle }

// Run scrapes one domain or keyword target by driving the Ads Transparency
// Center detail-page-by-detail-page, streaming results in batches of 50.
func (c *Connector) Run(ctx context.Context, target service.Target, opts service.ScrapeOptions, onBatch service.BatchFunc) (*service.ScrapeResult, error) {
	switch target.SourceType {
	case entity.SourceTypeKeyword:
		return c.runKeyword(ctx, target, opts, onBatch)
	default:
		return c.runDomain(ctx, target, opts, onBatch)
	}
}

func normalizeDomain(raw string) string {
	d := raw
	if strings.Contains(d, "://") {
		if idx := strings.Index(d, "://"); idx >= 0 {
			d = d[idx+3:]
		}
		if slash := strings.Index(d, "/"); slash >= 0 {
			d = d[:slash]
		}
	}
	d = strings.TrimPrefix(d, "www.")
	return strings.TrimSuffix(strings.TrimSpace(d), "/")
}

// runDomain mirrors scrape_google_ads_by_domain: load the domain's ad-gallery
// page, expand and scroll until it stops growing, collect creative detail
// links, then visit each one, extracting every alternative variant and
// emitting a NormalizedAd per distinct content_url.
func (c *Connector) runDomain(ctx context.Context, target service.Target, opts service.ScrapeOptions, onBatch service.BatchFunc) (*service.ScrapeResult, error) {
	domain := normalizeDomain(target.SourceValue)
	baseURL := fmt.Sprintf("https://adstransparency.google.com/?region=KR&domain=%s", domain)

	allocCtx, cancelAlloc := newBrowserContext(ctx, c.cfg)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(baseURL)); err != nil {
		return nil, fmt.Errorf("navigate to domain gallery: %w", err)
	}
	time.Sleep(5 * time.Second)

	clickSeeAllAds(browserCtx)

	adLinks, err := scrollAndCollectLinks(browserCtx, opts)
	if err != nil {
		return nil, err
	}

	if opts.Mode == entity.ModeIncremental && len(opts.KnownIdentityKeys) > 0 {
		adLinks = filterKnownCreatives(adLinks, opts.KnownIdentityKeys)
	}

	if !opts.Unbounded() && len(adLinks) > *opts.MaxResults {
		adLinks = adLinks[:*opts.MaxResults]
	}

	result := &service.ScrapeResult{}
	seenSourceIDs := make(map[string]struct{})
	batch := make([]service.NormalizedAd, 0, batchSize)

	for i, href := range adLinks {
		detailURL := detailURLFromHref(href)

		pageAds, ok, err := c.scrapeDetailPage(browserCtx, detailURL, href, domain)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("detail page %d/%d: %v", i+1, len(adLinks), err))
			continue
		}
		if !ok {
			continue
		}

		for _, ad := range pageAds {
			if _, dup := seenSourceIDs[ad.SourceID]; dup {
				continue
			}
			seenSourceIDs[ad.SourceID] = struct{}{}
			result.Scraped++
			batch = append(batch, ad)

			if len(batch) >= batchSize {
				if err := onBatch(batch); err != nil {
					return result, fmt.Errorf("flush batch: %w", err)
				}
				batch = batch[:0]
			}

			if !opts.Unbounded() && result.Scraped >= *opts.MaxResults {
				if len(batch) > 0 {
					if err := onBatch(batch); err != nil {
						return result, fmt.Errorf("flush final batch: %w", err)
					}
				}
				return result, nil
			}
		}
	}

	if len(batch) > 0 {
		if err := onBatch(batch); err != nil {
			return result, fmt.Errorf("flush final batch: %w", err)
		}
	}

	return result, nil
}

// runKeyword mirrors the teacher's keyword-search path: search the gallery
// by keyword, enumerate matching advertisers, then collect each
// advertiser's creatives the same way runDomain collects a domain's.
func (c *Connector) runKeyword(ctx context.Context, target service.Target, opts service.ScrapeOptions, onBatch service.BatchFunc) (*service.ScrapeResult, error) {
	baseURL := "https://adstransparency.google.com/?region=KR"

	allocCtx, cancelAlloc := newBrowserContext(ctx, c.cfg)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	advertisers, err := searchAndGetAdvertisers(browserCtx, target.SourceValue, baseURL)
	if err != nil {
		return nil, fmt.Errorf("search advertisers: %w", err)
	}

	result := &service.ScrapeResult{}
	seenSourceIDs := make(map[string]struct{})
	batch := make([]service.NormalizedAd, 0, batchSize)

	maxAdvertisers := 3
	for idx, adv := range advertisers {
		if idx >= maxAdvertisers {
			break
		}

		links, name, err := collectAdvertiserCreativeLinks(browserCtx, target.SourceValue, baseURL, adv.Index, adv.Name)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("advertiser %q: %v", adv.Name, err))
			continue
		}

		for _, href := range links {
			detailURL := detailURLFromHref(href)
			ads, ok, err := c.scrapeDetailPage(browserCtx, detailURL, href, name)
			if err != nil || !ok {
				continue
			}
			for _, ad := range ads {
				if _, dup := seenSourceIDs[ad.SourceID]; dup {
					continue
				}
				seenSourceIDs[ad.SourceID] = struct{}{}
				result.Scraped++
				batch = append(batch, ad)
				if len(batch) >= batchSize {
					if err := onBatch(batch); err != nil {
						return result, err
					}
					batch = batch[:0]
				}
			}
		}
	}

	if len(batch) > 0 {
		if err := onBatch(batch); err != nil {
			return result, err
		}
	}

	return result, nil
}

type advertiserHit struct {
	Name  string
	Index int
}

func detailURLFromHref(href string) string {
	detailURL := "https://adstransparency.google.com" + href
	if !strings.Contains(detailURL, "region=KR") {
		sep := "?"
		if strings.Contains(detailURL, "?") {
			sep = "&"
		}
		detailURL += sep + "region=KR"
	}
	return detailURL
}

func filterKnownCreatives(hrefs []string, known map[string]struct{}) []string {
	out := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		cid := extractCreativeIDFromLink(href)
		if cid != "" {
			if _, exists := known[cid]; exists {
				continue
			}
		}
		out = append(out, href)
	}
	return out
}

// scrapeDetailPage visits one creative detail page, extracts every
// alternative variant, resolves each variant's landing URL with the
// sadbundle > anchor > page-common priority, and converts each to a
// NormalizedAd.
func (c *Connector) scrapeDetailPage(ctx context.Context, detailURL, href, fallbackAdvertiserName string) ([]service.NormalizedAd, bool, error) {
	var advertiserName string

	tasks := chromedp.Tasks{
		chromedp.Navigate(detailURL),
		chromedp.Sleep(3 * time.Second),
		chromedp.Text(`div.advertiser-name`, &advertiserName, chromedp.AtLeast(0)),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, false, fmt.Errorf("load detail page: %w", err)
	}

	advertiserName = strings.TrimSpace(advertiserName)
	if advertiserName == "" {
		advertiserName = fallbackAdvertiserName
	}

	if err := chromedp.Run(ctx, chromedp.WaitVisible(`creative-details .ad-container`, chromedp.ByQuery)); err != nil {
		return nil, false, nil
	}

	_ = chromedp.Run(ctx, chromedp.WaitVisible(detailContentWaitSelector, chromedp.ByQuery))
	time.Sleep(1 * time.Second)

	variants, err := extractVariants(ctx)
	if err != nil {
		return nil, false, err
	}
	variants = filterJunkVariants(variants)
	if len(variants) == 0 {
		variants, err = textFallbackVariant(ctx)
		if err != nil {
			return nil, false, err
		}
	}
	if len(variants) == 0 {
		return nil, false, nil
	}

	pageLandingURL, err := extractPageLandingURL(ctx)
	if err == nil && isBlockedURL(pageLandingURL) {
		pageLandingURL = ""
	}

	creativeID := extractCreativeIDFromLink(href)

	ads := make([]service.NormalizedAd, 0, len(variants))
	for _, v := range variants {
		landingURL := c.resolveLandingURL(ctx, v, detailURL, pageLandingURL)

		normalized := variantToNormalizedAd(variantToNormalizedAdInput{
			AdvertiserName: advertiserName,
			Variant:        v,
			LandingURL:     landingURL,
		})

		ads = append(ads, service.NormalizedAd{
			SourceID:       normalized.SourceID,
			Platform:       entity.PlatformGoogle,
			Format:         entity.Format(normalized.Format),
			MediaType:      entity.MediaType(normalized.MediaType),
			AdvertiserName: normalized.AdvertiserName,
			ThumbnailURL:   normalized.ThumbnailURL,
			PreviewURL:     normalized.PreviewURL,
			AdCopy:         normalized.AdCopy,
			LandingPageURL: normalized.LandingPageURL,
			Domain:         normalized.Domain,
			CreativeID:     creativeID,
			RawData:        map[string]interface{}{"advertiser_name": advertiserName, "variant": normalized.RawVariant},
		})
	}

	return ads, true, nil
}

// resolveLandingURL applies the sadbundle > anchor_href > page-common
// priority the teacher's domain-scraper loop applies per variant.
func (c *Connector) resolveLandingURL(ctx context.Context, v creativeVariant, detailURL, pageLandingURL string) string {
	if v.ContentURL != "" && strings.Contains(v.ContentURL, "sadbundle") {
		if landing, err := resolveSadbundleLanding(ctx, v.ContentURL, detailURL); err == nil && landing != "" && !isBlockedURL(landing) {
			return landing
		}
	}
	if v.AnchorHref != "" && !isBlockedURL(v.AnchorHref) {
		return v.AnchorHref
	}
	return pageLandingURL
}
