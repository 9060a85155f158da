package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/real-or-render/daily-leaderboard/internal/config"
	"github.com/real-or-render/daily-leaderboard/internal/domain"
)

// Repository provides the durable archive behind the Redis stores: player
// records are mirrored here by the archiver, and every submission leaves an
// audit row. Request paths never read from it.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS player_records (
			id BIGSERIAL PRIMARY KEY,
			day VARCHAR(10) NOT NULL,
			player_id VARCHAR(64) NOT NULL,
			correct INT NOT NULL,
			elapsed_ms BIGINT NOT NULL,
			score BIGINT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(day, player_id)
		)`,
		`CREATE TABLE IF NOT EXISTS submission_events (
			id BIGSERIAL PRIMARY KEY,
			day VARCHAR(10) NOT NULL,
			player_id VARCHAR(64) NOT NULL,
			score BIGINT NOT NULL,
			saved BOOLEAN NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_player_records_day ON player_records(day, score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_submission_events_player ON submission_events(player_id, created_at DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// ArchiveRecords upserts a batch of player records for a day. Records are
// immutable, so conflicts are left untouched.
func (r *Repository) ArchiveRecords(ctx context.Context, day domain.Day, records []domain.PlayerRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO player_records (day, player_id, correct, elapsed_ms, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (day, player_id) DO NOTHING
	`
	now := time.Now()

	for _, record := range records {
		batch.Queue(query, string(day), record.PlayerID, record.Correct, record.ElapsedMs, record.Score(), now)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("archiving records: %w", err)
		}
	}
	return nil
}

// RecordSubmission appends an audit row for a submission attempt.
func (r *Repository) RecordSubmission(ctx context.Context, day domain.Day, playerID string, score int64, saved bool) error {
	query := `
		INSERT INTO submission_events (day, player_id, score, saved, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, string(day), playerID, score, saved, time.Now())
	if err != nil {
		return fmt.Errorf("recording submission: %w", err)
	}
	return nil
}

// RecordsForDay retrieves all archived player records for a day, used to
// rebuild Redis state after a restart.
func (r *Repository) RecordsForDay(ctx context.Context, day domain.Day) ([]domain.PlayerRecord, error) {
	query := `
		SELECT player_id, correct, elapsed_ms
		FROM player_records
		WHERE day = $1
		ORDER BY score DESC
	`
	rows, err := r.pool.Query(ctx, query, string(day))
	if err != nil {
		return nil, fmt.Errorf("getting records for day: %w", err)
	}
	defer rows.Close()

	var records []domain.PlayerRecord
	for rows.Next() {
		record := domain.PlayerRecord{Day: day}
		if err := rows.Scan(&record.PlayerID, &record.Correct, &record.ElapsedMs); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// CountForDay returns the number of archived records for a day.
func (r *Repository) CountForDay(ctx context.Context, day domain.Day) (int64, error) {
	query := `SELECT COUNT(*) FROM player_records WHERE day = $1`
	var count int64
	err := r.pool.QueryRow(ctx, query, string(day)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting records for day: %w", err)
	}
	return count, nil
}
