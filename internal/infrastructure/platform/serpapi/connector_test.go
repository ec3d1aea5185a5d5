package serpapi

import (
	"testing"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/service"
)

func TestNormalize_PrefersVideoOverImage(t *testing.T) {
	c := &Connector{}
	resp := serpAPIResponse{
		AdsResults: []serpAPIAd{
			{CreativeID: "cr1", AdvertiserName: "Acme Corp", ImageURL: "https://img.example/1.png", VideoURL: "https://vid.example/1.mp4"},
		},
	}

	var got []service.NormalizedAd
	_, err := c.normalize(service.Target{SourceValue: "acme.example"}, resp, func(batch []service.NormalizedAd) error {
		got = append(got, batch...)
		return nil
	})
	if err != nil {
		t.Fatalf("normalize() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d ads, want 1", len(got))
	}
	if got[0].MediaType != entity.MediaTypeVideo || got[0].Format != entity.FormatVideo {
		t.Errorf("MediaType/Format = %q/%q, want video/video", got[0].MediaType, got[0].Format)
	}
	if got[0].PreviewURL != "https://vid.example/1.mp4" {
		t.Errorf("PreviewURL = %q, want the video URL", got[0].PreviewURL)
	}
}

func TestNormalize_FallsBackToSyntheticSourceID(t *testing.T) {
	c := &Connector{}
	resp := serpAPIResponse{
		AdsResults: []serpAPIAd{
			{AdvertiserName: "Acme Corp", ImageURL: "https://img.example/1.png"},
		},
	}

	var got []service.NormalizedAd
	_, err := c.normalize(service.Target{SourceValue: "acme.example"}, resp, func(batch []service.NormalizedAd) error {
		got = append(got, batch...)
		return nil
	})
	if err != nil {
		t.Fatalf("normalize() error = %v", err)
	}
	if got[0].SourceID == "" {
		t.Error("expected a synthetic source id when the API omits creative_id")
	}
	if len(got[0].SourceID) != 16 {
		t.Errorf("synthetic source id length = %d, want 16", len(got[0].SourceID))
	}
}

func TestNormalize_DomainFallsBackToTarget(t *testing.T) {
	c := &Connector{}
	resp := serpAPIResponse{
		AdsResults: []serpAPIAd{
			{CreativeID: "cr1", AdvertiserName: "Acme Corp", ImageURL: "https://img.example/1.png"},
		},
	}

	var got []service.NormalizedAd
	_, err := c.normalize(service.Target{SourceValue: "acme.example"}, resp, func(batch []service.NormalizedAd) error {
		got = append(got, batch...)
		return nil
	})
	if err != nil {
		t.Fatalf("normalize() error = %v", err)
	}
	if got[0].Domain != "acme.example" {
		t.Errorf("Domain = %q, want the target domain when the API omits one", got[0].Domain)
	}
}

func TestNormalize_EmptyResultsYieldsNoOnBatchCall(t *testing.T) {
	c := &Connector{}
	called := false

	result, err := c.normalize(service.Target{SourceValue: "acme.example"}, serpAPIResponse{}, func(batch []service.NormalizedAd) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("normalize() error = %v", err)
	}
	if called {
		t.Error("onBatch must not be called for an empty result set")
	}
	if result.Scraped != 0 {
		t.Errorf("Scraped = %d, want 0", result.Scraped)
	}
}

func TestFirstNonEmptyStr(t *testing.T) {
	if got := firstNonEmptyStr("", "", "b"); got != "b" {
		t.Errorf("firstNonEmptyStr = %q, want %q", got, "b")
	}
	if got := firstNonEmptyStr("a", "b"); got != "a" {
		t.Errorf("firstNonEmptyStr = %q, want %q", got, "a")
	}
	if got := firstNonEmptyStr(); got != "" {
		t.Errorf("firstNonEmptyStr() = %q, want empty", got)
	}
}
