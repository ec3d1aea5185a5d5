package metagraph

import (
	"testing"
	"time"

	"github.com/brandwatch/collector/internal/domain/entity"
)

func TestNormalizeEntry_ParsesDeliveryDates(t *testing.T) {
	entry := adsArchiveEntry{
		ID:                  "123456",
		PageName:            "Acme Corp",
		AdSnapshotURL:       "https://www.facebook.com/ads/archive/render_ad/?id=123456",
		AdDeliveryStartTime: "2026-01-15T00:00:00-08:00",
		AdDeliveryStopTime:  "2026-02-01T00:00:00-08:00",
	}
	got := normalizeEntry(entry)

	if got.StartDate == nil || !got.StartDate.Equal(mustParseRFC3339(t, "2026-01-15T00:00:00-08:00")) {
		t.Errorf("StartDate = %v, want parsed 2026-01-15", got.StartDate)
	}
	if got.EndDate == nil || !got.EndDate.Equal(mustParseRFC3339(t, "2026-02-01T00:00:00-08:00")) {
		t.Errorf("EndDate = %v, want parsed 2026-02-01", got.EndDate)
	}
}

func TestNormalizeEntry_MissingDatesLeftNil(t *testing.T) {
	entry := adsArchiveEntry{ID: "123456", PageName: "Acme Corp"}
	got := normalizeEntry(entry)
	if got.StartDate != nil || got.EndDate != nil {
		t.Error("expected nil start/end dates when the API omits them")
	}
}

func TestNormalizeEntry_UsesFirstCreativeBodyAndCaption(t *testing.T) {
	entry := adsArchiveEntry{
		ID:                     "123456",
		PageName:               "Acme Corp",
		AdCreativeBodies:       []string{"50% off everything", "second variant"},
		AdCreativeLinkCaptions: []string{"Shop Now", "second caption"},
	}
	got := normalizeEntry(entry)
	if got.AdCopy != "50% off everything" {
		t.Errorf("AdCopy = %q, want the first creative body", got.AdCopy)
	}
	if got.CallToAction != "Shop Now" {
		t.Errorf("CallToAction = %q, want the first link caption", got.CallToAction)
	}
}

func TestNormalizeEntry_DefaultsToImageFormat(t *testing.T) {
	got := normalizeEntry(adsArchiveEntry{ID: "123456"})
	if got.Format != entity.FormatImage || got.MediaType != entity.MediaTypeImage {
		t.Errorf("Format/MediaType = %q/%q, want image/image (ads_archive exposes no media type)", got.Format, got.MediaType)
	}
}

func TestFirstOf(t *testing.T) {
	if got := firstOf(nil); got != "" {
		t.Errorf("firstOf(nil) = %q, want empty", got)
	}
	if got := firstOf([]string{"a", "b"}); got != "a" {
		t.Errorf("firstOf = %q, want %q", got, "a")
	}
}

func mustParseRFC3339(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tm
}
