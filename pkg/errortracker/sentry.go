package errortracker

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config holds Sentry configuration
type Config struct {
	DSN              string
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
	ServerName       string
}

// ErrorTracker wraps Sentry functionality
type ErrorTracker struct {
	config Config
}

var defaultTracker *ErrorTracker

// Init initializes Sentry
func Init(cfg Config) (*ErrorTracker, error) {
	if cfg.DSN == "" {
		// Sentry is optional, return nil tracker if DSN not set
		return nil, nil
	}

	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	if cfg.TracesSampleRate == 0 {
		cfg.TracesSampleRate = 0.1
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       cfg.SampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		ServerName:       cfg.ServerName,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Sentry: %w", err)
	}

	defaultTracker = &ErrorTracker{config: cfg}
	return defaultTracker, nil
}

// Default returns the default error tracker
func Default() *ErrorTracker {
	return defaultTracker
}

// Close flushes pending events before shutdown
func Close() {
	sentry.Flush(2 * time.Second)
}

// CaptureError sends an error to Sentry
func CaptureError(ctx context.Context, err error) {
	if defaultTracker == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.CaptureException(err)
}

// CaptureMessage sends a message to Sentry
func CaptureMessage(ctx context.Context, message string) {
	if defaultTracker == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.CaptureMessage(message)
}

// CaptureErrorWithContext sends an error with additional context — used by
// the Collection Orchestrator to report a failure to finalize a run record
// alongside the run ID (spec.md §7 "Run-fatal").
func CaptureErrorWithContext(ctx context.Context, err error, extra map[string]interface{}) {
	if defaultTracker == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		for key, value := range extra {
			scope.SetExtra(key, value)
		}
		hub.CaptureException(err)
	})
}

// SetTag sets a tag for the current scope
func SetTag(ctx context.Context, key, value string) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.Scope().SetTag(key, value)
}
