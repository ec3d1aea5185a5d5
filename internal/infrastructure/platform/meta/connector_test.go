package meta

import (
	"testing"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/service"
)

func TestCanonicalPreviewURL_ReducesToBarePath(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://www.facebook.com/ads/library/?id=123&ref=tracking", "/ads/library/"},
		{"https://www.facebook.com/ads/library/?id=123#section", "/ads/library/"},
		{"https://www.facebook.com/ads/library/", "/ads/library/"},
		{"https://scontent-cdn.example.com/v/t45.1600-4/abc.png?_nc_cat=1&oh=sig1", "/v/t45.1600-4/abc.png"},
	}
	for _, tt := range tests {
		if got := canonicalPreviewURL(tt.raw); got != tt.want {
			t.Errorf("canonicalPreviewURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestMakeSourceID_IgnoresQueryDifferences(t *testing.T) {
	// Two snapshot URLs differing only by a tracking param must canonicalize
	// to the same source id (invariant 3).
	canonicalA := canonicalPreviewURL("https://www.facebook.com/ads/library/?id=123&ref=a")
	canonicalB := canonicalPreviewURL("https://www.facebook.com/ads/library/?id=123&ref=b")

	a := makeSourceID("Acme Corp", canonicalA)
	b := makeSourceID("Acme Corp", canonicalB)
	if a != b {
		t.Fatalf("source ids differ across tracking-param-only variation: %q != %q", a, b)
	}
}

func TestIsBlockedHost(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.naver.com/x", true},
		{"https://www.instagram.com/p/abc", true},
		{"https://shop.example.com/sale", false},
	}
	for _, tt := range tests {
		if got := isBlockedHost(tt.url); got != tt.want {
			t.Errorf("isBlockedHost(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestDecodeRedirect(t *testing.T) {
	redirect := "https://l.facebook.com/l.php?u=https%3A%2F%2Fshop.example.com%2Fsale%3Fref%3Dfb&h=abc123"
	got := decodeRedirect(redirect)
	want := "https://shop.example.com/sale?ref=fb"
	if got != want {
		t.Errorf("decodeRedirect = %q, want %q", got, want)
	}
}

func TestDecodeRedirect_NonRedirectPassesThrough(t *testing.T) {
	direct := "https://shop.example.com/sale"
	if got := decodeRedirect(direct); got != direct {
		t.Errorf("decodeRedirect modified a non-redirect URL: %q", got)
	}
}

func TestNormalizeCard_BlockedLandingNulled(t *testing.T) {
	card := libraryCard{
		LibraryID:   "123456",
		PageName:    "Acme Corp",
		SnapshotURL: "https://www.facebook.com/ads/library/?id=123",
		LandingURL:  "https://l.facebook.com/l.php?u=https%3A%2F%2Fwww.naver.com%2F",
	}
	got := normalizeCard(card)
	if got.LandingPageURL != "" {
		t.Errorf("LandingPageURL = %q, want empty for a blocked destination", got.LandingPageURL)
	}
	if got.Domain != "" {
		t.Errorf("Domain = %q, want empty for a blocked destination", got.Domain)
	}
}

func TestNormalizeCard_PreservesCreativeLibraryID(t *testing.T) {
	card := libraryCard{LibraryID: "987654321", PageName: "Acme Corp"}
	got := normalizeCard(card)
	if got.SourceID != "987654321" {
		t.Errorf("SourceID = %q, want the card's own library id", got.SourceID)
	}
}

func TestBuildSearchURL_PageID(t *testing.T) {
	target := service.Target{SourceType: entity.SourceTypePageID, SourceValue: "12345"}
	got := buildSearchURL(target)
	if want := "view_all_page_id=12345"; !contains(got, want) {
		t.Errorf("buildSearchURL(page_id) = %q, missing %q", got, want)
	}
}

func TestBuildSearchURL_Keyword(t *testing.T) {
	target := service.Target{SourceType: entity.SourceTypeKeyword, SourceValue: "running shoes"}
	got := buildSearchURL(target)
	if want := "search_type=keyword_unordered"; !contains(got, want) {
		t.Errorf("buildSearchURL(keyword) = %q, missing %q", got, want)
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
