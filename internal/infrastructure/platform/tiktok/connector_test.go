package tiktok

import (
	"testing"

	"github.com/brandwatch/collector/internal/domain/entity"
)

func TestNormalizeAd_UsesProvidedAdID(t *testing.T) {
	ad := tiktokAd{AdID: "tt-123", BrandName: "Acme Corp", VideoURL: "https://v.example/1.mp4"}
	got := normalizeAd(ad)
	if got.SourceID != "tt-123" {
		t.Errorf("SourceID = %q, want %q", got.SourceID, "tt-123")
	}
	if got.Platform != entity.PlatformTikTok {
		t.Errorf("Platform = %q, want tiktok", got.Platform)
	}
	if got.Format != entity.FormatVideo || got.MediaType != entity.MediaTypeVideo {
		t.Errorf("Format/MediaType = %q/%q, want video/video", got.Format, got.MediaType)
	}
}

func TestNormalizeAd_FallsBackToSyntheticSourceID(t *testing.T) {
	ad := tiktokAd{BrandName: "Acme Corp", VideoURL: "https://v.example/1.mp4"}
	got := normalizeAd(ad)
	if got.SourceID == "" {
		t.Error("expected a synthetic source id when the API omits ad_id")
	}
	if len(got.SourceID) != 16 {
		t.Errorf("synthetic source id length = %d, want 16", len(got.SourceID))
	}
}

func TestNormalizeAd_SourceIDStableForSameInputs(t *testing.T) {
	ad := tiktokAd{BrandName: "Acme Corp", VideoURL: "https://v.example/1.mp4"}
	a := normalizeAd(ad)
	b := normalizeAd(ad)
	if a.SourceID != b.SourceID {
		t.Errorf("synthetic source id not stable: %q != %q", a.SourceID, b.SourceID)
	}
}

func TestNormalizeAd_PropagatesReachAsEngagementCount(t *testing.T) {
	reach := int64(4200)
	ad := tiktokAd{AdID: "tt-1", Reach: &reach}
	got := normalizeAd(ad)
	if got.EngagementCount == nil || *got.EngagementCount != reach {
		t.Errorf("EngagementCount = %v, want %d", got.EngagementCount, reach)
	}
}
