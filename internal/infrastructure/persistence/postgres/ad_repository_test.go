package postgres

import (
	"testing"

	"github.com/brandwatch/collector/internal/domain/entity"
)

func TestValidAdRow_RejectsMissingSourceID(t *testing.T) {
	ad := &entity.Ad{ThumbnailURL: "https://img.example/1.png", Format: entity.FormatImage}
	if validAdRow(ad) {
		t.Error("expected a missing source_id to be rejected")
	}
}

func TestValidAdRow_RejectsMissingThumbnailOnNonTextAd(t *testing.T) {
	ad := &entity.Ad{SourceID: "abc123", Format: entity.FormatImage}
	if validAdRow(ad) {
		t.Error("expected a non-text ad with no thumbnail_url to be rejected")
	}
}

func TestValidAdRow_AllowsTextAdWithoutThumbnail(t *testing.T) {
	ad := &entity.Ad{SourceID: "abc123", Format: entity.FormatText}
	if !validAdRow(ad) {
		t.Error("a text ad must not require a thumbnail_url")
	}
}

func TestValidAdRow_AcceptsCompleteRow(t *testing.T) {
	ad := &entity.Ad{SourceID: "abc123", ThumbnailURL: "https://img.example/1.png", Format: entity.FormatImage}
	if !validAdRow(ad) {
		t.Error("expected a complete row to be accepted")
	}
}
