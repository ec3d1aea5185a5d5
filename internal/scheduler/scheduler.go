// Package scheduler runs the Collection Orchestrator on a cron schedule:
// a frequent incremental pass and a weekly full pass (spec.md §4.6).
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Orchestrator is the subset of the Collection Orchestrator the scheduler
// drives. Defined locally so this package doesn't import usecase/orchestrator.
type Orchestrator interface {
	RunBatch(ctx context.Context, triggerType entity.TriggerType, mode entity.ScrapeMode, domainFilter string) (*entity.BatchRun, error)
}

// Scheduler fires the orchestrator's two standing jobs and skips a firing
// if the same job is still in flight (spec.md §5 overlap-skip policy).
type Scheduler struct {
	cron         *cron.Cron
	orchestrator Orchestrator
	logger       zerolog.Logger

	mu      sync.Mutex
	running bool
	jobs    map[string]cron.EntryID

	incrementalInFlight bool
	fullInFlight        bool
}

// Config holds the scheduler's two cron expressions.
type Config struct {
	Enabled              bool
	IncrementalCronSpec  string // e.g. "0 */4 * * *" — every 4 hours
	FullCronSpec         string // e.g. "0 3 * * 0" — Sunday at 03:00
}

// BuildConfig turns the collector's typed scheduler settings into the cron
// expressions Start expects.
func BuildConfig(enabled bool, incrementalInterval time.Duration, fullDay time.Weekday, fullHour int) *Config {
	hours := int(incrementalInterval.Hours())
	if hours <= 0 {
		hours = 1
	}
	return &Config{
		Enabled:             enabled,
		IncrementalCronSpec: cronEveryNHours(hours),
		FullCronSpec:        cronWeeklyAt(fullDay, fullHour),
	}
}

func cronEveryNHours(n int) string {
	return "0 */" + itoa(n) + " * * *"
}

func cronWeeklyAt(day time.Weekday, hour int) string {
	return "0 " + itoa(hour) + " * * " + itoa(int(day))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// NewScheduler creates a scheduler driving orchestrator.
func NewScheduler(orchestrator Orchestrator, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		orchestrator: orchestrator,
		logger:       logger.With().Str("component", "scheduler").Logger(),
		jobs:         make(map[string]cron.EntryID),
	}
}

// Start registers both jobs and starts the cron runner.
func (s *Scheduler) Start(config *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if !config.Enabled {
		s.logger.Info().Msg("scheduler disabled")
		return nil
	}

	if config.IncrementalCronSpec != "" {
		id, err := s.cron.AddFunc(config.IncrementalCronSpec, s.runIncremental)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to schedule incremental batch")
			return err
		}
		s.jobs["incremental"] = id
		s.logger.Info().Str("schedule", config.IncrementalCronSpec).Msg("scheduled incremental batch")
	}

	if config.FullCronSpec != "" {
		id, err := s.cron.AddFunc(config.FullCronSpec, s.runFull)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to schedule full batch")
			return err
		}
		s.jobs["full"] = id
		s.logger.Info().Str("schedule", config.FullCronSpec).Msg("scheduled full batch")
	}

	s.cron.Start()
	s.running = true
	s.logger.Info().Msg("scheduler started")

	return nil
}

// Stop drains in-flight cron invocations and stops the runner.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	ctx := s.cron.Stop()
	s.mu.Unlock()

	// Wait without holding s.mu: a finishing job takes s.mu to clear its
	// in-flight flag.
	<-ctx.Done()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.logger.Info().Msg("scheduler stopped")
}

// IsRunning reports whether the scheduler's cron runner is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// GetNextRun returns the next scheduled run time for a job name.
func (s *Scheduler) GetNextRun(jobName string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.jobs[jobName]; ok {
		entry := s.cron.Entry(id)
		return entry.Next, true
	}
	return time.Time{}, false
}

func (s *Scheduler) runIncremental() {
	s.mu.Lock()
	if s.incrementalInFlight {
		s.mu.Unlock()
		s.logger.Warn().Msg("incremental batch still running, skipping this firing")
		return
	}
	s.incrementalInFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.incrementalInFlight = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	s.logger.Info().Msg("starting scheduled incremental batch")
	start := time.Now()

	run, err := s.orchestrator.RunBatch(ctx, entity.TriggerScheduledIncremental, entity.ModeIncremental, "")
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled incremental batch failed")
		return
	}

	s.logger.Info().
		Str("status", string(run.Status)).
		Int("total_ads_new", run.TotalAdsNew).
		Int("total_ads_updated", run.TotalAdsUpdated).
		Dur("duration", time.Since(start)).
		Msg("scheduled incremental batch completed")
}

func (s *Scheduler) runFull() {
	s.mu.Lock()
	if s.fullInFlight {
		s.mu.Unlock()
		s.logger.Warn().Msg("full batch still running, skipping this firing")
		return
	}
	s.fullInFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.fullInFlight = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Hour)
	defer cancel()

	s.logger.Info().Msg("starting scheduled full batch")
	start := time.Now()

	run, err := s.orchestrator.RunBatch(ctx, entity.TriggerScheduledFull, entity.ModeFull, "")
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled full batch failed")
		return
	}

	s.logger.Info().
		Str("status", string(run.Status)).
		Int("total_ads_new", run.TotalAdsNew).
		Int("total_ads_updated", run.TotalAdsUpdated).
		Dur("duration", time.Since(start)).
		Msg("scheduled full batch completed")
}

// RunNow manually triggers a job by name, bypassing the cron schedule.
func (s *Scheduler) RunNow(jobName string) error {
	switch jobName {
	case "incremental":
		go s.runIncremental()
	case "full":
		go s.runFull()
	default:
		return ErrUnknownJob
	}
	return nil
}

// ErrUnknownJob is returned by RunNow for an unrecognized job name.
var ErrUnknownJob = &SchedulerError{Message: "unknown job name"}

// SchedulerError represents a scheduler error.
type SchedulerError struct {
	Message string
}

func (e *SchedulerError) Error() string {
	return e.Message
}
