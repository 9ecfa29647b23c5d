// Package logger provides structured logging helpers for sync operations.
package logger

import (
	"log/slog"
	"time"
)

// SyncLogger provides typed methods for logging sync lifecycle events so the
// engine, propagator, and scheduler emit uniform fields.
type SyncLogger struct {
	logger *slog.Logger
}

// NewSyncLogger creates a SyncLogger over the given base logger
func NewSyncLogger(logger *slog.Logger) *SyncLogger {
	return &SyncLogger{logger: logger}
}

// RunStarted logs the start of a sync run.
func (s *SyncLogger) RunStarted(owner, mode string) {
	s.logger.Info("sync_run_started",
		slog.String("event_type", "sync_started"),
		slog.String("owner", owner),
		slog.String("mode", mode),
	)
}

// RunCompleted logs a successful sync run with its counters.
func (s *SyncLogger) RunCompleted(owner, mode string, folders, messages, contacts, errored int, duration time.Duration) {
	s.logger.Info("sync_run_completed",
		slog.String("event_type", "sync_completed"),
		slog.String("owner", owner),
		slog.String("mode", mode),
		slog.Int("folders", folders),
		slog.Int("messages", messages),
		slog.Int("contacts", contacts),
		slog.Int("errors", errored),
		slog.Duration("duration", duration),
	)
}

// RunFailed logs a failed sync run.
func (s *SyncLogger) RunFailed(owner, mode string, err error, duration time.Duration) {
	s.logger.Error("sync_run_failed",
		slog.String("event_type", "sync_failed"),
		slog.String("owner", owner),
		slog.String("mode", mode),
		slog.Any("error", err),
		slog.Duration("duration", duration),
	)
}

// RunSkipped logs a sync request damped by the minimum inter-sync interval.
func (s *SyncLogger) RunSkipped(owner, reason string) {
	s.logger.Debug("sync_run_skipped",
		slog.String("event_type", "sync_skipped"),
		slog.String("owner", owner),
		slog.String("reason", reason),
	)
}

// SourceFailed logs an isolated per-source fetch failure inside a run.
func (s *SyncLogger) SourceFailed(owner, source string, err error) {
	s.logger.Warn("sync_source_failed",
		slog.String("event_type", "source_failed"),
		slog.String("owner", owner),
		slog.String("source", source),
		slog.Any("error", err),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// RateLimitHit logs a provider rate-limit response.
func (s *SyncLogger) RateLimitHit(owner, resource string, retryAfter time.Duration) {
	s.logger.Warn("provider_rate_limited",
		slog.String("event_type", "rate_limited"),
		slog.String("owner", owner),
		slog.String("resource", resource),
		slog.Duration("retry_after", retryAfter),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// DegradedWrite logs a write dropped by the store in degraded mode.
func (s *SyncLogger) DegradedWrite(table string, records int) {
	s.logger.Warn("degraded_store_write_dropped",
		slog.String("event_type", "degraded_write"),
		slog.String("table", table),
		slog.Int("records", records),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// PropagationAborted logs a contact propagation run cut short after
// exhausting retries.
func (s *SyncLogger) PropagationAborted(owner string, created, existing, failed int, err error) {
	s.logger.Warn("contact_propagation_aborted",
		slog.String("event_type", "propagation_aborted"),
		slog.String("owner", owner),
		slog.Int("created", created),
		slog.Int("existing", existing),
		slog.Int("failed", failed),
		slog.Any("error", err),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// Info logs an informational message.
func (s *SyncLogger) Info(msg string, args ...any) {
	s.logger.Info(msg, args...)
}

// Error logs an error message.
func (s *SyncLogger) Error(msg string, args ...any) {
	s.logger.Error(msg, args...)
}

// GetLogger returns the underlying slog.Logger.
func (s *SyncLogger) GetLogger() *slog.Logger {
	return s.logger
}
