// Package meta implements the Meta Ad Library browser connector
// (spec.md §6): a chromedp-driven scroll-and-collect scraper over the
// public `facebook.com/ads/library` UI, with path-canonicalized source
// ids (invariant 3) and the newest-first incremental early-termination
// heuristic (spec.md §9).
package meta

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/service"
	"github.com/brandwatch/collector/pkg/logger"
	"github.com/chromedp/chromedp"
)

const (
	userAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	sampleEveryNCards = 10 // newest-first early-termination sampling cadence (spec.md §9)
)

// blockedDomains mirrors the google package's list — a landing URL
// resolving to one of these is never persisted (spec.md invariant 5 / E6).
var blockedDomains = []string{"naver.", "kakao.", "facebook.", "instagram."}

// Config configures the Meta Ad Library browser connector.
type Config struct {
	Headless        bool
	NavigateTimeout time.Duration
	MaxScrollRounds int
}

// DefaultConfig returns the connector's default browser configuration.
func DefaultConfig() Config {
	return Config{Headless: true, NavigateTimeout: 60 * time.Second, MaxScrollRounds: 40}
}

// Connector drives the Meta Ad Library's public search UI in a headless
// browser.
type Connector struct {
	cfg Config
	log logger.Logger
}

// NewConnector creates a Meta Ad Library connector.
func NewConnector(cfg Config, log logger.Logger) *Connector {
	return &Connector{cfg: cfg, log: log}
}

// Platform identifies this connector to the scraper registry.
func (c *Connector) Platform() entity.Platform { return entity.PlatformMeta }

type libraryCard struct {
	LibraryID      string `json:"library_id"`
	PageName       string `json:"page_name"`
	SnapshotURL    string `json:"snapshot_url"`
	ThumbnailURL   string `json:"thumbnail_url"`
	LandingURL     string `json:"landing_url"`
	AdCopy         string `json:"ad_copy"`
}

// Run scrapes one target: a keyword search or a page_id's full listing,
// scrolling until growth stalls, sampling every Nth new card against the
// known-identity set in incremental mode, and stopping early if a sampled
// card is already known.
func (c *Connector) Run(ctx context.Context, target service.Target, opts service.ScrapeOptions, onBatch service.BatchFunc) (*service.ScrapeResult, error) {
	searchURL := buildSearchURL(target)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.cfg.Headless),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(searchURL)); err != nil {
		return nil, fmt.Errorf("navigate to ad library: %w", err)
	}
	time.Sleep(5 * time.Second)

	result := &service.ScrapeResult{}
	batch := make([]service.NormalizedAd, 0, 50)

	prevCount := -1
	noNewRounds := 0
	sampledSinceCheck := 0

	for round := 0; round < c.cfg.MaxScrollRounds; round++ {
		cards, err := readLibraryCards(browserCtx)
		if err != nil {
			return result, fmt.Errorf("read ad library cards: %w", err)
		}

		if opts.Mode == entity.ModeIncremental && len(opts.KnownIdentityKeys) > 0 {
			stop := false
			for i := prevCount + 1; i < len(cards); i++ {
				sampledSinceCheck++
				if sampledSinceCheck%sampleEveryNCards != 0 {
					continue
				}
				sourceID := makeSourceID(cards[i].PageName, canonicalPreviewURL(cards[i].SnapshotURL))
				if _, known := opts.KnownIdentityKeys[sourceID]; known {
					stop = true
					break
				}
			}
			if stop {
				break
			}
		}

		if len(cards) == prevCount {
			noNewRounds++
			if noNewRounds >= 3 {
				break
			}
		} else {
			noNewRounds = 0
		}
		prevCount = len(cards)

		if !opts.Unbounded() && len(cards) >= *opts.MaxResults {
			break
		}

		if err := chromedp.Run(browserCtx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil)); err != nil {
			return result, fmt.Errorf("scroll library: %w", err)
		}
		time.Sleep(2 * time.Second)
	}

	cards, err := readLibraryCards(browserCtx)
	if err != nil {
		return result, fmt.Errorf("final read of ad library cards: %w", err)
	}
	if !opts.Unbounded() && len(cards) > *opts.MaxResults {
		cards = cards[:*opts.MaxResults]
	}

	for _, card := range cards {
		ad := normalizeCard(card)
		result.Scraped++
		batch = append(batch, ad)
		if len(batch) >= 50 {
			if err := onBatch(batch); err != nil {
				return result, fmt.Errorf("flush meta batch: %w", err)
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := onBatch(batch); err != nil {
			return result, fmt.Errorf("flush final meta batch: %w", err)
		}
	}

	return result, nil
}

func buildSearchURL(target service.Target) string {
	if target.SourceType == entity.SourceTypePageID {
		return fmt.Sprintf(
			"https://www.facebook.com/ads/library/?active_status=active&ad_type=all&country=KR&view_all_page_id=%s",
			url.QueryEscape(target.SourceValue))
	}
	return fmt.Sprintf(
		"https://www.facebook.com/ads/library/?active_status=active&ad_type=all&country=KR&q=%s&search_type=keyword_unordered",
		url.QueryEscape(target.SourceValue))
}

func readLibraryCards(ctx context.Context) ([]libraryCard, error) {
	var raw string
	script := `JSON.stringify(Array.from(document.querySelectorAll('[data-testid="ad_library_card"]')).map(card => {
		const snapshot = card.querySelector('a[href*="snapshot"]');
		const img = card.querySelector('img');
		const pageName = card.querySelector('[data-testid="card-page-name"]');
		const copy = card.querySelector('[data-testid="ad-creative-text"]');
		return {
			library_id: card.getAttribute('data-ad-id') || '',
			page_name: pageName ? pageName.innerText.trim() : '',
			snapshot_url: snapshot ? snapshot.href : '',
			thumbnail_url: img ? img.src : '',
			landing_url: '',
			ad_copy: copy ? copy.innerText.trim() : '',
		};
	}))`
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &raw)); err != nil {
		return nil, err
	}

	var cards []libraryCard
	if err := json.Unmarshal([]byte(raw), &cards); err != nil {
		return nil, fmt.Errorf("decode library cards: %w", err)
	}
	return cards, nil
}

// canonicalPreviewURL reduces a snapshot/preview URL to its bare path,
// discarding scheme, host, query string, and fragment, so two URLs
// differing only by tracking params or CDN signing churn canonicalize
// identically (invariant 3).
func canonicalPreviewURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return parsed.Path
}

func makeSourceID(advertiserName, canonicalURL string) string {
	sum := sha256.Sum256([]byte("meta:" + advertiserName + ":" + canonicalURL))
	return hex.EncodeToString(sum[:])[:16]
}

// isBlockedHost reports whether a URL contains, anywhere in it and ignoring
// case, one of the blockedDomains markers that Meta ad landing URLs must
// never resolve to once decoded from an `l.facebook.com/l.php?u=` redirect
// (spec.md invariant 5 / E6).
func isBlockedHost(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, d := range blockedDomains {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// decodeRedirect unwraps an `l.facebook.com/l.php?u=` tracking redirect to
// the real destination URL, if present.
func decodeRedirect(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if !strings.Contains(parsed.Host, "facebook.com") || parsed.Path != "/l.php" {
		return rawURL
	}
	target := parsed.Query().Get("u")
	if target == "" {
		return rawURL
	}
	decoded, err := url.QueryUnescape(target)
	if err != nil {
		return target
	}
	return decoded
}

func normalizeCard(card libraryCard) service.NormalizedAd {
	canonical := canonicalPreviewURL(card.SnapshotURL)
	sourceID := card.LibraryID
	if sourceID == "" {
		sourceID = makeSourceID(card.PageName, canonical)
	}

	landingURL := decodeRedirect(card.LandingURL)
	domain := ""
	if landingURL != "" && isBlockedHost(landingURL) {
		landingURL = ""
	} else if landingURL != "" {
		domain = domainFromURL(landingURL)
	}

	mediaType := entity.MediaTypeImage
	format := entity.FormatImage
	if card.AdCopy != "" && card.ThumbnailURL == "" {
		mediaType = entity.MediaTypeText
		format = entity.FormatText
	}

	return service.NormalizedAd{
		SourceID:       sourceID,
		Platform:       entity.PlatformMeta,
		Format:         format,
		MediaType:      mediaType,
		AdvertiserName: card.PageName,
		ThumbnailURL:   card.ThumbnailURL,
		PreviewURL:     card.SnapshotURL,
		AdCopy:         card.AdCopy,
		LandingPageURL: landingURL,
		Domain:         domain,
		RawData:        map[string]interface{}{"library_id": card.LibraryID},
	}
}

func domainFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
}
