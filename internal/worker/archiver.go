package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/real-or-render/daily-leaderboard/internal/config"
	"github.com/real-or-render/daily-leaderboard/internal/domain"
	"github.com/real-or-render/daily-leaderboard/internal/postgres"
	"github.com/real-or-render/daily-leaderboard/internal/redis"
)

// Archiver periodically mirrors recent days' player records from Redis into
// PostgreSQL, and rebuilds Redis state from the archive after a restart. It
// is also the reconciliation sweep for the (log-only) failure modes of the
// request path: the player-record hash is the source of truth.
type Archiver struct {
	redis    *redis.Store
	postgres *postgres.Repository
	config   *config.ArchiveConfig
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewArchiver creates a new archiver
func NewArchiver(
	redis *redis.Store,
	postgres *postgres.Repository,
	cfg *config.ArchiveConfig,
	logger *slog.Logger,
) *Archiver {
	return &Archiver{
		redis:    redis,
		postgres: postgres,
		config:   cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background archival process
func (w *Archiver) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("archiver started", "interval", w.config.Interval, "days", w.config.Days)

	go w.run(ctx)
	return nil
}

// Stop stops the background archival process
func (w *Archiver) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("archiver stopped")
	return nil
}

// run is the main worker loop
func (w *Archiver) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.archiveRecent(ctx)
		}
	}
}

// recentDays returns the day keys the archiver covers, today first.
func (w *Archiver) recentDays() []domain.Day {
	now := time.Now()
	days := make([]domain.Day, w.config.Days)
	for i := range days {
		days[i] = domain.DayOf(now.AddDate(0, 0, -i))
	}
	return days
}

// archiveRecent mirrors recent days from Redis to PostgreSQL
func (w *Archiver) archiveRecent(ctx context.Context) {
	w.logger.Info("starting archive cycle")
	startTime := time.Now()

	archived := 0
	errorCount := 0

	for _, day := range w.recentDays() {
		count, err := w.ArchiveDay(ctx, day)
		if err != nil {
			w.logger.Error("failed to archive day", "date", day, "error", err)
			errorCount++
			continue
		}
		archived += count
	}

	w.logger.Info("archive cycle completed",
		"duration", time.Since(startTime),
		"records", archived,
		"errors", errorCount,
	)
}

// ArchiveDay mirrors one day's player records into PostgreSQL. Records are
// read back from the player hashes, not the sorted set scores, so a
// leaderboard entry that somehow lost its record is skipped and reported.
func (w *Archiver) ArchiveDay(ctx context.Context, day domain.Day) (int, error) {
	entries, err := w.redis.AllEntries(ctx, day)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	records := make([]domain.PlayerRecord, 0, len(entries))
	for _, entry := range entries {
		record, err := w.redis.GetRecord(ctx, entry.PlayerID, day)
		if err != nil {
			w.logger.Warn("leaderboard entry without player record",
				"player_id", entry.PlayerID,
				"date", day,
				"error", err,
			)
			continue
		}
		records = append(records, *record)
	}

	if err := w.postgres.ArchiveRecords(ctx, day, records); err != nil {
		return 0, err
	}

	w.logger.Debug("archived day", "date", day, "records", len(records))
	return len(records), nil
}

// RestoreRecent rebuilds Redis state for recent days from the PostgreSQL
// archive. Existing records are never overwritten, so this is safe to run on
// every startup.
func (w *Archiver) RestoreRecent(ctx context.Context) error {
	w.logger.Info("restoring recent days from archive")

	for _, day := range w.recentDays() {
		records, err := w.postgres.RecordsForDay(ctx, day)
		if err != nil {
			w.logger.Error("failed to read archive for day", "date", day, "error", err)
			continue
		}

		restored := 0
		for _, record := range records {
			saved, err := w.redis.SaveFirstPlay(ctx, record.PlayerID, day, record.Correct, record.ElapsedMs, record.Score())
			if err != nil {
				w.logger.Error("failed to restore record",
					"player_id", record.PlayerID,
					"date", day,
					"error", err,
				)
				continue
			}
			if saved {
				restored++
			}
		}

		if restored > 0 {
			w.logger.Info("restored day from archive", "date", day, "records", restored)
		}
	}

	return nil
}

// IsRunning returns whether the worker is currently running
func (w *Archiver) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single archive cycle (useful for manual triggers)
func (w *Archiver) RunOnce(ctx context.Context) {
	w.archiveRecent(ctx)
}
