// Package sinks implements the two side-effect writers the Collection
// Orchestrator calls after a target finishes (spec.md §4.7). Both are
// best-effort: failures are logged locally and never propagated to the
// orchestrator's own control flow.
package sinks

import (
	"context"
	"time"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/repository"
	"github.com/brandwatch/collector/pkg/logger"
	"github.com/google/uuid"
)

// ActivitySink appends to the activity log, swallowing write failures.
type ActivitySink struct {
	repo repository.ActivityLogRepository
	log  logger.Logger
}

// NewActivitySink creates an activity log sink.
func NewActivitySink(repo repository.ActivityLogRepository, log logger.Logger) *ActivitySink {
	return &ActivitySink{repo: repo, log: log}
}

// Emit appends one event. A write failure is logged and swallowed — the
// activity log is an observability aid, not a transactional record.
func (s *ActivitySink) Emit(ctx context.Context, eventType, eventSubtype, title, message string, metadata entity.JSONMap) {
	entry := &entity.ActivityLog{
		BaseEntity:   entity.BaseEntity{ID: uuid.New()},
		EventType:    eventType,
		EventSubtype: eventSubtype,
		Title:        title,
		Message:      message,
		Metadata:     metadata,
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("event_type", eventType).Msg("failed to append activity log entry")
	}
}

// StatsSink accumulates daily per-brand, per-platform counters.
type StatsSink struct {
	repo repository.DailyBrandStatsRepository
	log  logger.Logger
}

// NewStatsSink creates a daily brand stats sink.
func NewStatsSink(repo repository.DailyBrandStatsRepository, log logger.Logger) *StatsSink {
	return &StatsSink{repo: repo, log: log}
}

// Record adds to today's (brand, platform) counters. Additive, never a
// replace, so repeated incremental runs within the day accumulate.
func (s *StatsSink) Record(ctx context.Context, brandID uuid.UUID, platform entity.Platform, newCount, updatedCount, totalScraped int) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if err := s.repo.IncrementStats(ctx, brandID, today, platform, newCount, updatedCount, totalScraped); err != nil {
		s.log.Error().Err(err).Str("brand_id", brandID.String()).Str("platform", string(platform)).Msg("failed to increment daily brand stats")
	}
}
