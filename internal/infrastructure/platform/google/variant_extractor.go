// Package google implements the Google Ads Transparency Center scraper: a
// chromedp-driven browser connector plus the variant extractor that turns
// each alternative-format variant on a detail page into its own ad.
package google

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
)

// blockedDomains are domain markers (Korean portals and social networks) a
// resolved landing_page_url must not carry; a landing URL containing one is
// dropped.
var blockedDomains = []string{"naver.", "kakao.", "facebook.", "instagram."}

// skipDomains are hosts an anchor/landing candidate must never resolve to —
// Ads Transparency Center's own surfaces, not a landing page.
var skipDomains = []string{
	"adstransparency.google.com", "support.google.com", "policies.google.com",
	"safety.google", "about.google", "blog.google", "googlesyndication.com",
	"google.com/ads",
}

var creativeIDPattern = regexp.MustCompile(`/creative/(CR\w+)`)

var youtubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`ytimg\.com/vi/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/watch\?v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`[?&]video_id=([a-zA-Z0-9_-]{11})`),
}

// isBlockedURL reports whether a URL contains, anywhere in it and ignoring
// case, one of the blockedDomains markers.
func isBlockedURL(url string) bool {
	lower := strings.ToLower(url)
	for _, d := range blockedDomains {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// isJunkURL filters out safeframe/adframe/about: URLs that never carry real
// creative content — the detail page's own chrome, not the ad.
func isJunkURL(url string) bool {
	if url == "" {
		return true
	}
	lower := strings.ToLower(url)
	if strings.Contains(lower, "safeframe") {
		return true
	}
	if strings.HasSuffix(lower, "adframe") {
		return true
	}
	if strings.HasPrefix(lower, "about:") {
		return true
	}
	return false
}

// makeSourceID fingerprints an (advertiser, content_url) pair deterministically
// so the same creative re-scraped on a later run upserts instead of
// duplicating.
func makeSourceID(advertiserName, contentURL string) string {
	sum := sha256.Sum256([]byte("google:" + advertiserName + ":" + contentURL))
	return hex.EncodeToString(sum[:])[:16]
}

// makeTextSourceID fingerprints a synthetic text-ad variant that never had a
// real content_url to hash.
func makeTextSourceID(advertiserName, adCopyText string) string {
	key := adCopyText
	if len(key) > 100 {
		key = key[:100]
	}
	sum := sha256.Sum256([]byte("google:text:" + advertiserName + ":" + key))
	return hex.EncodeToString(sum[:])[:16]
}

// extractCreativeIDFromLink pulls the CRxxxx creative id out of an Ads
// Transparency Center detail link, e.g. ".../creative/CR123abc?...".
func extractCreativeIDFromLink(href string) string {
	m := creativeIDPattern.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}

// extractYouTubeVideoID tries every known YouTube URL shape in priority
// order and returns the first 11-character video id it finds.
func extractYouTubeVideoID(src string) string {
	if src == "" {
		return ""
	}
	for _, re := range youtubeIDPatterns {
		if m := re.FindStringSubmatch(src); m != nil {
			return m[1]
		}
	}
	return ""
}

var landingURLPattern = regexp.MustCompile(`https?://(?:www\.)?([^/]+)`)

// domainFromLandingURL extracts and normalizes (lowercases, strips www.) the
// host from a landing page URL.
func domainFromLandingURL(landingURL string) string {
	if landingURL == "" {
		return ""
	}
	m := landingURLPattern.FindStringSubmatch(strings.ToLower(landingURL))
	if m == nil {
		return ""
	}
	return m[1]
}

// creativeVariant is one alternative creative rendering found on a detail
// page — one DOM sub-container, or one accessible iframe document when the
// sub-container walk turns up nothing.
type creativeVariant struct {
	ContentURL      string `json:"content_url"`
	AnchorHref      string `json:"anchor_href"`
	IsVideo         bool   `json:"is_video"`
	IsText          bool   `json:"is_text"`
	AdCopyText      string `json:"ad_copy_text"`
	VideoURL        string `json:"video_url"`
	ThumbnailURL    string `json:"thumbnail_url"`
	YouTubeVideoID  string `json:"youtube_video_id"`
}

// filterJunkVariants drops variants whose content_url is chrome rather than
// creative — synthetic text variants are exempt, they never had a real URL.
func filterJunkVariants(variants []creativeVariant) []creativeVariant {
	out := make([]creativeVariant, 0, len(variants))
	for _, v := range variants {
		if v.IsText || !isJunkURL(v.ContentURL) {
			out = append(out, v)
		}
	}
	return out
}

// variantToNormalizedAdInput is what variantToNormalizedAd needs beyond the
// variant itself to build a NormalizedAd.
type variantToNormalizedAdInput struct {
	AdvertiserName string
	Variant        creativeVariant
	LandingURL     string
}

// normalizedGoogleAd is the intermediate shape variantToNormalizedAd builds;
// the caller (the connector) folds it into service.NormalizedAd, which lives
// in a different package and shouldn't be imported here for a one-way
// translation.
type normalizedGoogleAd struct {
	SourceID       string
	Format         string
	MediaType      string
	AdvertiserName string
	ThumbnailURL   string
	PreviewURL     string
	AdCopy         string
	LandingPageURL string
	Domain         string
	RawVariant     creativeVariant
}

// variantToNormalizedAd turns one extracted creative variant into a
// normalized ad row, resolving thumbnail/preview URLs and media type the
// same way for a text, video, or image variant.
func variantToNormalizedAd(in variantToNormalizedAdInput) normalizedGoogleAd {
	v := in.Variant
	domain := domainFromLandingURL(in.LandingURL)

	if v.IsText {
		var sourceID string
		if v.ContentURL != "" && !strings.HasPrefix(v.ContentURL, "text_ad:") {
			sourceID = makeSourceID(in.AdvertiserName, v.ContentURL)
		} else {
			sourceID = makeTextSourceID(in.AdvertiserName, v.AdCopyText)
		}

		thumb := ""
		if v.ContentURL != "" && !strings.HasPrefix(v.ContentURL, "text_ad:") {
			thumb = v.ContentURL
		}

		return normalizedGoogleAd{
			SourceID:       sourceID,
			Format:         "text",
			MediaType:      "text",
			AdvertiserName: in.AdvertiserName,
			ThumbnailURL:   thumb,
			AdCopy:         v.AdCopyText,
			LandingPageURL: in.LandingURL,
			Domain:         domain,
			RawVariant:     v,
		}
	}

	lower := strings.ToLower(v.ContentURL)
	isVideo := v.IsVideo
	if !isVideo {
		for _, kw := range []string{"youtube.com", "youtu.be", "ytimg.com", "youtube_vertical_player", "youtube_player", "video_player"} {
			if strings.Contains(lower, kw) {
				isVideo = true
				break
			}
		}
	}
	mediaType := "image"
	if isVideo {
		mediaType = "video"
	}

	videoID := v.YouTubeVideoID
	if videoID == "" {
		for _, candidate := range []string{v.ContentURL, v.ThumbnailURL, v.VideoURL} {
			if id := extractYouTubeVideoID(candidate); id != "" {
				videoID = id
				break
			}
		}
	}

	var thumbnailURL, previewURL string
	switch {
	case isVideo && videoID != "":
		thumbnailURL = "https://i.ytimg.com/vi/" + videoID + "/maxresdefault.jpg"
		previewURL = "https://www.youtube.com/watch?v=" + videoID
	case isVideo:
		thumbnailURL = firstNonEmpty(v.ThumbnailURL, v.ContentURL)
		previewURL = firstNonEmpty(v.VideoURL, v.ContentURL)
	default:
		thumbnailURL = v.ContentURL
		previewURL = v.ContentURL
	}

	return normalizedGoogleAd{
		SourceID:       makeSourceID(in.AdvertiserName, v.ContentURL),
		Format:         mediaType,
		MediaType:      mediaType,
		AdvertiserName: in.AdvertiserName,
		ThumbnailURL:   thumbnailURL,
		PreviewURL:     previewURL,
		LandingPageURL: in.LandingURL,
		Domain:         domain,
		RawVariant:     v,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var adURLParamPattern = regexp.MustCompile(`adurl=(https?[^"&<>\s\\]+)`)

// extractAdURLParam pulls the adurl= redirect target out of a sadbundle
// page's raw HTML, matching the teacher's get_landing_from_sadbundle.
func extractAdURLParam(html string) string {
	m := adURLParamPattern.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	decoded, err := url.QueryUnescape(m[1])
	if err != nil {
		return m[1]
	}
	return decoded
}

func isSkipDomain(url string) bool {
	lower := strings.ToLower(url)
	for _, d := range skipDomains {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}
