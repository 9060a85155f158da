package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/real-or-render/daily-leaderboard/internal/config"
	"github.com/real-or-render/daily-leaderboard/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Store provides Redis-based access to daily player records and leaderboards.
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

// saveFirstPlayScript creates the player record and inserts the leaderboard
// entry as one atomic unit. Returns 0 when a record already exists, in which
// case nothing is written. This is what makes "first play wins" hold under
// concurrent submissions and keeps record and entry from diverging.
var saveFirstPlayScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], "correct", ARGV[1], "time", ARGV[2])
redis.call("ZADD", KEYS[2], ARGV[3], ARGV[4])
return 1
`)

// NewStore creates a new Redis store.
func NewStore(cfg *config.RedisConfig, logger *slog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Store{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// playerKey returns the Redis key for a player's record hash for a day
func (s *Store) playerKey(playerID string, day domain.Day) string {
	return fmt.Sprintf("player:%s:%s", playerID, day)
}

// leaderboardKey returns the Redis key for a day's leaderboard sorted set
func (s *Store) leaderboardKey(day domain.Day) string {
	return fmt.Sprintf("leaderboard:daily:%s", day)
}

// identityKey returns the Redis key for a player's cached identity
func (s *Store) identityKey(playerID string) string {
	return fmt.Sprintf("player:%s:info", playerID)
}

// SaveFirstPlay records a first play: the player record hash and the
// leaderboard entry are written together, atomically. It reports false when a
// record already exists for (playerID, day); the existing record is left
// untouched.
func (s *Store) SaveFirstPlay(ctx context.Context, playerID string, day domain.Day, correct int, elapsedMs, score int64) (bool, error) {
	keys := []string{s.playerKey(playerID, day), s.leaderboardKey(day)}
	saved, err := saveFirstPlayScript.Run(ctx, s.client, keys,
		correct, elapsedMs, score, playerID,
	).Int()
	if err != nil {
		return false, fmt.Errorf("saving first play: %w", err)
	}
	return saved == 1, nil
}

// HasPlayed checks whether a player record exists for the day.
func (s *Store) HasPlayed(ctx context.Context, playerID string, day domain.Day) (bool, error) {
	exists, err := s.client.Exists(ctx, s.playerKey(playerID, day)).Result()
	if err != nil {
		return false, fmt.Errorf("checking player record: %w", err)
	}
	return exists > 0, nil
}

// GetRecord retrieves the stored player record for a day.
func (s *Store) GetRecord(ctx context.Context, playerID string, day domain.Day) (*domain.PlayerRecord, error) {
	result, err := s.client.HGetAll(ctx, s.playerKey(playerID, day)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting player record: %w", err)
	}
	if len(result) == 0 {
		return nil, domain.ErrRecordNotFound
	}

	correct, _ := strconv.Atoi(result["correct"])
	elapsedMs, _ := strconv.ParseInt(result["time"], 10, 64)

	return &domain.PlayerRecord{
		PlayerID:  playerID,
		Day:       day,
		Correct:   correct,
		ElapsedMs: elapsedMs,
	}, nil
}

// Rank returns a player's 1-based rank for the day, rank 1 being the highest
// score. The sorted set ranks ascending, so the ascending index is inverted:
// rank = cardinality - ascending index.
func (s *Store) Rank(ctx context.Context, playerID string, day domain.Day) (int64, error) {
	key := s.leaderboardKey(day)

	pipe := s.client.Pipeline()
	cardCmd := pipe.ZCard(ctx, key)
	rankCmd := pipe.ZRank(ctx, key, playerID)
	_, err := pipe.Exec(ctx)
	if err != nil {
		if err == redis.Nil {
			return 0, domain.ErrPlayerNotFound
		}
		return 0, fmt.Errorf("getting player rank: %w", err)
	}

	idx, err := rankCmd.Result()
	if err != nil {
		if err == redis.Nil {
			return 0, domain.ErrPlayerNotFound
		}
		return 0, fmt.Errorf("getting rank result: %w", err)
	}

	return cardCmd.Val() - idx, nil
}

// Score returns a player's stored score for the day.
func (s *Store) Score(ctx context.Context, playerID string, day domain.Day) (int64, error) {
	score, err := s.client.ZScore(ctx, s.leaderboardKey(day), playerID).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, domain.ErrPlayerNotFound
		}
		return 0, fmt.Errorf("getting player score: %w", err)
	}
	return int64(score), nil
}

// TopN returns the top N entries for the day, best score first.
func (s *Store) TopN(ctx context.Context, day domain.Day, n int) ([]domain.Entry, error) {
	results, err := s.client.ZRevRangeWithScores(ctx, s.leaderboardKey(day), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting top n: %w", err)
	}

	entries := make([]domain.Entry, len(results))
	for i, result := range results {
		entries[i] = domain.Entry{
			Rank:     int64(i + 1),
			PlayerID: result.Member.(string),
			Score:    int64(result.Score),
		}
	}
	return entries, nil
}

// Cardinality returns the number of players on the day's leaderboard.
func (s *Store) Cardinality(ctx context.Context, day domain.Day) (int64, error) {
	count, err := s.client.ZCard(ctx, s.leaderboardKey(day)).Result()
	if err != nil {
		return 0, fmt.Errorf("getting cardinality: %w", err)
	}
	return count, nil
}

// AllEntries returns every entry for the day, best score first. Used by the
// archiver; request paths go through TopN.
func (s *Store) AllEntries(ctx context.Context, day domain.Day) ([]domain.Entry, error) {
	results, err := s.client.ZRevRangeWithScores(ctx, s.leaderboardKey(day), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("getting all entries: %w", err)
	}

	entries := make([]domain.Entry, len(results))
	for i, result := range results {
		entries[i] = domain.Entry{
			Rank:     int64(i + 1),
			PlayerID: result.Member.(string),
			Score:    int64(result.Score),
		}
	}
	return entries, nil
}

// SetIdentity caches a player's resolved display identity.
func (s *Store) SetIdentity(ctx context.Context, playerID string, identity domain.Identity) error {
	err := s.client.HSet(ctx, s.identityKey(playerID),
		"username", identity.Username,
		"snoovatar", identity.SnoovatarURL,
	).Err()
	if err != nil {
		return fmt.Errorf("caching identity: %w", err)
	}
	return nil
}

// GetIdentity retrieves a cached player identity.
func (s *Store) GetIdentity(ctx context.Context, playerID string) (*domain.Identity, error) {
	result, err := s.client.HGetAll(ctx, s.identityKey(playerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting cached identity: %w", err)
	}
	if len(result) == 0 {
		return nil, domain.ErrPlayerNotFound
	}
	return &domain.Identity{
		Username:     result["username"],
		SnoovatarURL: result["snoovatar"],
	}, nil
}
