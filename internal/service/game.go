package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/real-or-render/daily-leaderboard/internal/config"
	"github.com/real-or-render/daily-leaderboard/internal/domain"
	"github.com/real-or-render/daily-leaderboard/internal/websocket"
)

// Store is the per-day player-record and leaderboard storage. SaveFirstPlay
// must be atomic: under concurrent calls for the same (player, day) exactly
// one reports true and the stored record is the winner's.
type Store interface {
	SaveFirstPlay(ctx context.Context, playerID string, day domain.Day, correct int, elapsedMs, score int64) (bool, error)
	HasPlayed(ctx context.Context, playerID string, day domain.Day) (bool, error)
	GetRecord(ctx context.Context, playerID string, day domain.Day) (*domain.PlayerRecord, error)
	Rank(ctx context.Context, playerID string, day domain.Day) (int64, error)
	Score(ctx context.Context, playerID string, day domain.Day) (int64, error)
	TopN(ctx context.Context, day domain.Day, n int) ([]domain.Entry, error)
	Cardinality(ctx context.Context, day domain.Day) (int64, error)
	GetIdentity(ctx context.Context, playerID string) (*domain.Identity, error)
	SetIdentity(ctx context.Context, playerID string, identity domain.Identity) error
}

// Resolver resolves display identities from the host platform and posts score
// comments. All calls are best-effort from the service's point of view.
type Resolver interface {
	Resolve(ctx context.Context, playerID string) (*domain.Identity, error)
	SubmitComment(ctx context.Context, postID, text string) (string, error)
}

// Auditor durably records submission attempts. Failures never surface to the
// player.
type Auditor interface {
	RecordSubmission(ctx context.Context, day domain.Day, playerID string, score int64, saved bool) error
}

// GameService provides the business logic for daily score submission and
// leaderboard queries.
type GameService struct {
	store    Store
	resolver Resolver
	audit    Auditor
	hub      *websocket.Hub
	config   *config.GameConfig
	logger   *slog.Logger
}

// NewGameService creates a new game service
func NewGameService(
	store Store,
	resolver Resolver,
	audit Auditor,
	cfg *config.GameConfig,
	logger *slog.Logger,
) *GameService {
	return &GameService{
		store:    store,
		resolver: resolver,
		audit:    audit,
		config:   cfg,
		logger:   logger,
	}
}

// SetHub attaches a WebSocket hub for live leaderboard broadcasts.
func (s *GameService) SetHub(hub *websocket.Hub) {
	s.hub = hub
}

// SubmitScore validates a submission and records it if it is the player's
// first play of the day. A replay, or a submission that loses the first-play
// race, is answered with the stored record and saved=false.
func (s *GameService) SubmitScore(ctx context.Context, req domain.SaveScoreRequest) (*domain.SaveScoreResponse, error) {
	if err := domain.ValidateSubmission(req); err != nil {
		return nil, err
	}
	day, err := domain.ParseDay(req.Date)
	if err != nil {
		return nil, err
	}

	played, err := s.store.HasPlayed(ctx, req.UserID, day)
	if err != nil {
		return nil, fmt.Errorf("checking play status: %w", err)
	}
	if played {
		return s.replayResponse(ctx, req.UserID, day)
	}

	score := domain.ComputeScore(req.CorrectGuesses, req.TimeMs)
	saved, err := s.store.SaveFirstPlay(ctx, req.UserID, day, req.CorrectGuesses, req.TimeMs, score)
	if err != nil {
		return nil, fmt.Errorf("saving first play: %w", err)
	}
	if !saved {
		// Lost the first-play race to a concurrent submission. Not an error:
		// answer from the winner's record.
		return s.replayResponse(ctx, req.UserID, day)
	}

	s.recordAudit(ctx, day, req.UserID, score, true)
	s.broadcastUpdate(ctx, day)

	rank, total := s.standing(ctx, req.UserID, day)

	return &domain.SaveScoreResponse{
		Success:      true,
		Saved:        true,
		Rank:         rank,
		TotalPlayers: total,
		Message:      "Score saved successfully!",
	}, nil
}

// replayResponse answers a replay from the stored first-play record. Display
// data always comes from the record, never from the replay's payload.
func (s *GameService) replayResponse(ctx context.Context, playerID string, day domain.Day) (*domain.SaveScoreResponse, error) {
	record, err := s.store.GetRecord(ctx, playerID, day)
	if err != nil {
		return nil, fmt.Errorf("reading stored record: %w", err)
	}

	s.recordAudit(ctx, day, playerID, record.Score(), false)

	rank, total := s.standing(ctx, playerID, day)

	return &domain.SaveScoreResponse{
		Success:      true,
		Saved:        false,
		Rank:         rank,
		TotalPlayers: total,
		OriginalScore: &domain.OriginalScore{
			Correct: record.Correct,
			TimeMs:  record.ElapsedMs,
		},
		Message: "Score not saved. Only first daily play counts toward leaderboard.",
	}, nil
}

// standing fetches a player's rank and the day's player count. A missing rank
// degrades to zero rather than failing the response.
func (s *GameService) standing(ctx context.Context, playerID string, day domain.Day) (rank, total int64) {
	total, err := s.store.Cardinality(ctx, day)
	if err != nil {
		s.logger.Warn("failed to get player count", "date", day, "error", err)
		return 0, 0
	}
	rank, err = s.store.Rank(ctx, playerID, day)
	if err != nil {
		if err != domain.ErrPlayerNotFound {
			s.logger.Warn("failed to get rank", "player_id", playerID, "date", day, "error", err)
		}
		return 0, total
	}
	return rank, total
}

// GetLeaderboard returns the day's player count, the annotated top players,
// and, when requestingPlayerID is set, that player's own rank and score.
func (s *GameService) GetLeaderboard(ctx context.Context, day domain.Day, requestingPlayerID string) (*domain.LeaderboardResponse, error) {
	total, err := s.store.Cardinality(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("getting player count: %w", err)
	}

	entries, err := s.store.TopN(ctx, day, s.config.TopPlayers)
	if err != nil {
		return nil, fmt.Errorf("getting top players: %w", err)
	}

	topPlayers := s.annotateEntries(ctx, day, entries)

	resp := &domain.LeaderboardResponse{
		Date:         day.String(),
		TotalPlayers: total,
		TopPlayers:   topPlayers,
	}

	if requestingPlayerID != "" {
		if rank, err := s.store.Rank(ctx, requestingPlayerID, day); err == nil {
			resp.UserRank = rank
		} else if err != domain.ErrPlayerNotFound {
			s.logger.Warn("failed to get user rank", "player_id", requestingPlayerID, "error", err)
		}
		if score, err := s.store.Score(ctx, requestingPlayerID, day); err == nil {
			resp.UserScore = score
		} else if err != domain.ErrPlayerNotFound {
			s.logger.Warn("failed to get user score", "player_id", requestingPlayerID, "error", err)
		}
	}

	return resp, nil
}

// annotateEntries resolves record data and display identity for each entry
// concurrently. A failed lookup degrades that entry to the raw player id; it
// never fails the batch.
func (s *GameService) annotateEntries(ctx context.Context, day domain.Day, entries []domain.Entry) []domain.TopPlayer {
	topPlayers := make([]domain.TopPlayer, len(entries))

	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry domain.Entry) {
			defer wg.Done()

			player := domain.TopPlayer{
				Rank:     entry.Rank,
				Username: entry.PlayerID,
				Score:    entry.Score,
			}

			if record, err := s.store.GetRecord(ctx, entry.PlayerID, day); err == nil {
				player.Correct = record.Correct
				player.TimeMs = record.ElapsedMs
			} else {
				s.logger.Warn("failed to read record for entry", "player_id", entry.PlayerID, "error", err)
			}

			if identity := s.resolveIdentity(ctx, entry.PlayerID); identity != nil {
				player.Username = identity.Username
				player.Snoovatar = identity.SnoovatarURL
			}

			topPlayers[i] = player
		}(i, entry)
	}
	wg.Wait()

	return topPlayers
}

// resolveIdentity returns a player's display identity, consulting the cache
// before the platform. Returns nil when the identity cannot be resolved.
func (s *GameService) resolveIdentity(ctx context.Context, playerID string) *domain.Identity {
	if identity, err := s.store.GetIdentity(ctx, playerID); err == nil {
		return identity
	}

	identity, err := s.resolver.Resolve(ctx, playerID)
	if err != nil {
		s.logger.Warn("failed to resolve identity", "player_id", playerID, "error", err)
		return nil
	}

	if err := s.store.SetIdentity(ctx, playerID, *identity); err != nil {
		s.logger.Warn("failed to cache identity", "player_id", playerID, "error", err)
	}
	return identity
}

// CheckPlayedToday reports whether the player already has a record for the
// day, and if so echoes the stored play with its current rank.
func (s *GameService) CheckPlayedToday(ctx context.Context, playerID string, day domain.Day) (*domain.CheckPlayedResponse, error) {
	played, err := s.store.HasPlayed(ctx, playerID, day)
	if err != nil {
		return nil, fmt.Errorf("checking play status: %w", err)
	}

	total, err := s.store.Cardinality(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("getting player count: %w", err)
	}

	if !played {
		return &domain.CheckPlayedResponse{
			Played:            false,
			TotalPlayersToday: total,
		}, nil
	}

	record, err := s.store.GetRecord(ctx, playerID, day)
	if err != nil {
		return nil, fmt.Errorf("reading stored record: %w", err)
	}

	rank, err := s.store.Rank(ctx, playerID, day)
	if err != nil {
		if err != domain.ErrPlayerNotFound {
			s.logger.Warn("failed to get rank", "player_id", playerID, "error", err)
		}
		rank = 0
	}

	return &domain.CheckPlayedResponse{
		Played:            true,
		TotalPlayersToday: total,
		Score: &domain.PlayedScore{
			Correct:   record.Correct,
			Incorrect: domain.Rounds - record.Correct,
			TimeMs:    record.ElapsedMs,
			Rank:      rank,
		},
	}, nil
}

// ShareScore posts a formatted score comment on the game post.
func (s *GameService) ShareScore(ctx context.Context, req domain.PostCommentRequest) (*domain.PostCommentResponse, error) {
	if req.PostID == "" {
		return nil, domain.NewValidationError("postId is required")
	}

	text := fmt.Sprintf("🎮 **Real or Render Score**\n\nScore: **%d/%d**\nTime: **%s**\n",
		req.Score, domain.Rounds, req.Time)
	if comment := strings.TrimSpace(req.Comment); comment != "" {
		text += "\n---\n\n" + comment
	}

	commentID, err := s.resolver.SubmitComment(ctx, req.PostID, text)
	if err != nil {
		return nil, fmt.Errorf("posting comment: %w", err)
	}

	return &domain.PostCommentResponse{
		Success:   true,
		CommentID: commentID,
		Message:   "Comment posted successfully!",
	}, nil
}

// recordAudit writes a best-effort audit row for a submission attempt.
func (s *GameService) recordAudit(ctx context.Context, day domain.Day, playerID string, score int64, saved bool) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordSubmission(ctx, day, playerID, score, saved); err != nil {
		s.logger.Warn("failed to record submission audit", "player_id", playerID, "date", day, "error", err)
	}
}

// broadcastUpdate pushes the day's refreshed standings to hub subscribers.
func (s *GameService) broadcastUpdate(ctx context.Context, day domain.Day) {
	if s.hub == nil {
		return
	}

	entries, err := s.store.TopN(ctx, day, s.config.TopPlayers)
	if err != nil {
		s.logger.Warn("failed to read standings for broadcast", "date", day, "error", err)
		return
	}
	total, err := s.store.Cardinality(ctx, day)
	if err != nil {
		s.logger.Warn("failed to read player count for broadcast", "date", day, "error", err)
		return
	}

	s.hub.BroadcastLeaderboardUpdate(day, entries, total)
}
