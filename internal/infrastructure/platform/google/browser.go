package google

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/brandwatch/collector/internal/domain/service"
	"github.com/chromedp/chromedp"
)

// newBrowserContext builds a headless Chrome allocator context with the
// viewport/locale/user-agent the teacher's Playwright context used.
func newBrowserContext(ctx context.Context, cfg Config) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
		chromedp.Flag("lang", "ko-KR"),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)

	return allocCtx, func() { allocCancel() }
}

// clickSeeAllAds expands the gallery's "see all ads" grid if the button is
// present; its absence just means every ad is already shown.
func clickSeeAllAds(ctx context.Context) {
	var exists bool
	_ = chromedp.Run(ctx, chromedp.Evaluate(
		`document.querySelector('material-button.grid-expansion-button') !== null`, &exists))
	if !exists {
		return
	}
	_ = chromedp.Run(ctx, chromedp.Click(`material-button.grid-expansion-button`, chromedp.ByQuery))
	time.Sleep(3 * time.Second)
}

// scrollAndCollectLinks scrolls the gallery page until the creative count
// stops growing for three consecutive rounds (or a round cap / safety
// timeout is hit), then returns every distinct creative detail href found.
func scrollAndCollectLinks(ctx context.Context, opts service.ScrapeOptions) ([]string, error) {
	maxRounds := 15
	if opts.Unbounded() {
		maxRounds = 100
	}

	prevCount := -1
	noNewCount := 0
	deadline := time.Now().Add(scrollTimeout)

	for round := 0; round < maxRounds; round++ {
		if time.Now().After(deadline) {
			break
		}

		var count int
		if err := chromedp.Run(ctx, chromedp.Evaluate(
			`document.querySelectorAll('creative-preview a[href*="/creative/"]').length`, &count)); err != nil {
			return nil, fmt.Errorf("count creative cards: %w", err)
		}

		if !opts.Unbounded() && count >= *opts.MaxResults {
			break
		}

		if count == prevCount {
			noNewCount++
			if noNewCount >= 3 {
				break
			}
		} else {
			noNewCount = 0
		}
		prevCount = count

		if err := chromedp.Run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil)); err != nil {
			return nil, fmt.Errorf("scroll gallery: %w", err)
		}
		time.Sleep(2 * time.Second)
	}

	var raw string
	if err := chromedp.Run(ctx, chromedp.Evaluate(
		`JSON.stringify(Array.from(document.querySelectorAll('creative-preview a')).map(a => a.getAttribute('href')).filter(h => h && h.includes('/creative/')))`,
		&raw)); err != nil {
		return nil, fmt.Errorf("collect creative links: %w", err)
	}

	var links []string
	if err := json.Unmarshal([]byte(raw), &links); err != nil {
		return nil, fmt.Errorf("decode creative links: %w", err)
	}
	return links, nil
}

// extractVariants runs the same-origin DOM walk, falling back to the
// Playwright-style frame API approximation if the primary walk finds
// nothing inside the detail page's cross-origin iframes.
func extractVariants(ctx context.Context) ([]creativeVariant, error) {
	var raw string
	if err := chromedp.Run(ctx, chromedp.Evaluate(`JSON.stringify((`+collectAllVariantsJS+`)())`, &raw)); err != nil {
		return nil, fmt.Errorf("extract variants: %w", err)
	}

	var variants []creativeVariant
	if err := json.Unmarshal([]byte(raw), &variants); err != nil {
		return nil, fmt.Errorf("decode variants: %w", err)
	}

	if len(variants) > 0 {
		return variants, nil
	}

	return collectVariantsFromFrames(ctx)
}

// collectVariantsFromFrames is the iframe fallback: chromedp has no direct
// per-frame DOM query API the way Playwright's page.frames does, so this
// runs one script in the top document that visits every <iframe> element
// and reads its contentDocument. A frame whose document cannot be read
// (cross-origin) is skipped rather than failing the whole extraction, so
// only same-origin frames contribute variants.
func collectVariantsFromFrames(ctx context.Context) ([]creativeVariant, error) {
	var raw string
	err := chromedp.Run(ctx, chromedp.Evaluate(`JSON.stringify((() => {
		const results = [];
		const seen = new Set();
		const frames = Array.from(document.querySelectorAll('iframe'));
		for (const frame of frames) {
			let doc;
			try { doc = frame.contentDocument; } catch (e) { continue; }
			if (!doc) continue;

			let content_url = null;
			const simgad = doc.querySelector('img[src*="simgad"]');
			if (simgad && simgad.src) content_url = simgad.src;
			if (!content_url) {
				const inner = doc.querySelectorAll('iframe[src]');
				for (const f of inner) {
					if (f.src && (f.src.includes('simgad') || f.src.includes('youtube'))) { content_url = f.src; break; }
				}
			}
			if (!content_url) {
				const imgs = doc.querySelectorAll('img[src]');
				for (const img of imgs) {
					if (img.src && img.src.startsWith('http') && !img.src.includes('googlesyndication')) { content_url = img.src; break; }
				}
			}
			if (content_url && !seen.has(content_url)) {
				seen.add(content_url);
				results.push({content_url: content_url, anchor_href: null, is_video: false, is_text: false,
					ad_copy_text: null, video_url: null, thumbnail_url: null, youtube_video_id: null});
			}
		}
		return results;
	})())`, &raw))
	if err != nil {
		return nil, fmt.Errorf("extract variants from frames: %w", err)
	}

	var variants []creativeVariant
	if err := json.Unmarshal([]byte(raw), &variants); err != nil {
		return nil, fmt.Errorf("decode frame variants: %w", err)
	}

	out := make([]creativeVariant, 0, len(variants))
	for _, v := range variants {
		if !isJunkURL(v.ContentURL) {
			out = append(out, v)
		}
	}
	return out, nil
}

// textFallbackVariant builds a single synthetic text variant when neither
// extraction pass found an image/video variant but the detail page's own
// format label reads "Text".
func textFallbackVariant(ctx context.Context) ([]creativeVariant, error) {
	var isText bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(isTextFormatJS, &isText)); err != nil {
		return nil, fmt.Errorf("detect text format: %w", err)
	}
	if !isText {
		return nil, nil
	}

	var text string
	if err := chromedp.Run(ctx, chromedp.Evaluate(adContainerTextJS, &text)); err != nil {
		return nil, fmt.Errorf("read ad container text: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	return []creativeVariant{{
		ContentURL: "text_ad:" + makeTextSourceID("", text),
		IsText:     true,
		AdCopyText: text,
	}}, nil
}

// extractPageLandingURL resolves the detail page's common landing URL
// candidate, used whenever a variant carries neither a sadbundle URL nor an
// anchor href of its own.
func extractPageLandingURL(ctx context.Context) (string, error) {
	var url string
	if err := chromedp.Run(ctx, chromedp.Evaluate(extractLandingURLJS, &url)); err != nil {
		return "", fmt.Errorf("extract landing url: %w", err)
	}
	return url, nil
}

// resolveSadbundleLanding visits a sadbundle iframe URL directly, scrapes
// its adurl= redirect parameter, then navigates back to the detail page so
// subsequent variants on the same page can still be processed.
func resolveSadbundleLanding(ctx context.Context, sadbundleURL, detailURL string) (string, error) {
	var html string
	if err := chromedp.Run(ctx,
		chromedp.Navigate(sadbundleURL),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("load sadbundle: %w", err)
	}

	landing := extractAdURLParam(html)

	if err := chromedp.Run(ctx, chromedp.Navigate(detailURL), chromedp.Sleep(2*time.Second)); err != nil {
		return landing, fmt.Errorf("return to detail page: %w", err)
	}

	return landing, nil
}

// searchAndGetAdvertisers types a keyword into the gallery search box and
// returns the advertiser names the resulting dropdown lists, in order.
func searchAndGetAdvertisers(ctx context.Context, keyword, baseURL string) ([]advertiserHit, error) {
	if err := chromedp.Run(ctx,
		chromedp.Navigate(baseURL),
		chromedp.Sleep(5*time.Second),
		chromedp.WaitVisible(`input[type="text"]`, chromedp.ByQuery),
		chromedp.Click(`input[type="text"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[type="text"]`, keyword, chromedp.ByQuery),
		chromedp.Sleep(1*time.Second),
		chromedp.WaitVisible(`material-select-item`, chromedp.ByQuery),
		chromedp.Sleep(1*time.Second),
	); err != nil {
		return nil, fmt.Errorf("search keyword %q: %w", keyword, err)
	}

	var raw string
	if err := chromedp.Run(ctx, chromedp.Evaluate(
		`JSON.stringify(Array.from(document.querySelectorAll('material-select-item')).map((el, idx) => {
			const nameEl = el.querySelector('div.name');
			return nameEl ? nameEl.innerText.trim() : ('Unknown_' + idx);
		}))`, &raw)); err != nil {
		return nil, fmt.Errorf("read advertiser dropdown: %w", err)
	}

	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("decode advertiser names: %w", err)
	}

	hits := make([]advertiserHit, len(names))
	for i, name := range names {
		hits[i] = advertiserHit{Name: name, Index: i}
	}
	return hits, nil
}

// collectAdvertiserCreativeLinks re-runs the keyword search, clicks the
// advertiser at advertiserIndex, and returns that advertiser's creative
// detail hrefs.
func collectAdvertiserCreativeLinks(ctx context.Context, keyword, baseURL string, advertiserIndex int, advertiserName string) ([]string, string, error) {
	if err := chromedp.Run(ctx,
		chromedp.Navigate(baseURL),
		chromedp.Sleep(5*time.Second),
		chromedp.WaitVisible(`input[type="text"]`, chromedp.ByQuery),
		chromedp.Click(`input[type="text"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[type="text"]`, keyword, chromedp.ByQuery),
		chromedp.Sleep(1*time.Second),
		chromedp.WaitVisible(`material-select-item`, chromedp.ByQuery),
		chromedp.Sleep(1*time.Second),
	); err != nil {
		return nil, advertiserName, fmt.Errorf("re-search keyword %q: %w", keyword, err)
	}

	clickSelector := fmt.Sprintf(`material-select-item:nth-of-type(%d)`, advertiserIndex+1)
	if err := chromedp.Run(ctx,
		chromedp.Click(clickSelector, chromedp.ByQuery),
		chromedp.WaitVisible(`creative-preview`, chromedp.ByQuery),
		chromedp.Sleep(3*time.Second),
	); err != nil {
		return nil, advertiserName, fmt.Errorf("select advertiser %q: %w", advertiserName, err)
	}

	var raw string
	if err := chromedp.Run(ctx, chromedp.Evaluate(
		`JSON.stringify(Array.from(document.querySelectorAll('creative-preview a[href]')).map(a => a.getAttribute('href')))`,
		&raw)); err != nil {
		return nil, advertiserName, fmt.Errorf("collect advertiser creative links: %w", err)
	}

	var links []string
	if err := json.Unmarshal([]byte(raw), &links); err != nil {
		return nil, advertiserName, fmt.Errorf("decode advertiser creative links: %w", err)
	}
	return links, advertiserName, nil
}
