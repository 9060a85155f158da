package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/real-or-render/daily-leaderboard/internal/config"
	"github.com/real-or-render/daily-leaderboard/internal/domain"
	"github.com/real-or-render/daily-leaderboard/internal/service"
)

// memStore is a minimal in-memory service.Store for exercising the HTTP
// surface end to end.
type memStore struct {
	mu         sync.Mutex
	records    map[string]domain.PlayerRecord
	identities map[string]domain.Identity
}

func newMemStore() *memStore {
	return &memStore{
		records:    make(map[string]domain.PlayerRecord),
		identities: make(map[string]domain.Identity),
	}
}

func (s *memStore) key(playerID string, day domain.Day) string {
	return playerID + "|" + day.String()
}

func (s *memStore) SaveFirstPlay(_ context.Context, playerID string, day domain.Day, correct int, elapsedMs, _ int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(playerID, day)
	if _, ok := s.records[k]; ok {
		return false, nil
	}
	s.records[k] = domain.PlayerRecord{PlayerID: playerID, Day: day, Correct: correct, ElapsedMs: elapsedMs}
	return true, nil
}

func (s *memStore) HasPlayed(_ context.Context, playerID string, day domain.Day) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[s.key(playerID, day)]
	return ok, nil
}

func (s *memStore) GetRecord(_ context.Context, playerID string, day domain.Day) (*domain.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[s.key(playerID, day)]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &record, nil
}

func (s *memStore) ascending(day domain.Day) []domain.Entry {
	var entries []domain.Entry
	for _, r := range s.records {
		if r.Day == day {
			entries = append(entries, domain.Entry{PlayerID: r.PlayerID, Score: r.Score()})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score < entries[j].Score
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	return entries
}

func (s *memStore) Rank(_ context.Context, playerID string, day domain.Day) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.ascending(day)
	for i, entry := range entries {
		if entry.PlayerID == playerID {
			return int64(len(entries) - i), nil
		}
	}
	return 0, domain.ErrPlayerNotFound
}

func (s *memStore) Score(_ context.Context, playerID string, day domain.Day) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[s.key(playerID, day)]
	if !ok {
		return 0, domain.ErrPlayerNotFound
	}
	return record.Score(), nil
}

func (s *memStore) TopN(_ context.Context, day domain.Day, n int) ([]domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ascending := s.ascending(day)
	entries := make([]domain.Entry, 0, n)
	for i := len(ascending) - 1; i >= 0 && len(entries) < n; i-- {
		entry := ascending[i]
		entry.Rank = int64(len(entries) + 1)
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *memStore) Cardinality(_ context.Context, day domain.Day) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.ascending(day))), nil
}

func (s *memStore) GetIdentity(_ context.Context, playerID string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[playerID]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	return &identity, nil
}

func (s *memStore) SetIdentity(_ context.Context, playerID string, identity domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[playerID] = identity
	return nil
}

type memResolver struct{}

func (memResolver) Resolve(_ context.Context, _ string) (*domain.Identity, error) {
	return nil, domain.ErrPlayerNotFound
}

func (memResolver) SubmitComment(_ context.Context, _, _ string) (string, error) {
	return "t1_abc", nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewGameService(newMemStore(), memResolver{}, nil, &config.GameConfig{TopPlayers: 5}, logger)
	h := NewHandler(svc, nil, logger)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func saveBody(playerID string, correct int, timeMs int64) domain.SaveScoreRequest {
	return domain.SaveScoreRequest{
		UserID:         playerID,
		Date:           "2025-01-05",
		CorrectGuesses: correct,
		TimeMs:         timeMs,
		Score:          domain.ComputeScore(correct, timeMs),
	}
}

func TestSaveScoreEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/save-score", saveBody("t2_a", 8, 61_000))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var saved domain.SaveScoreResponse
	decode(t, resp, &saved)
	if !saved.Success || !saved.Saved {
		t.Errorf("response = %+v, want success and saved", saved)
	}
	if saved.Rank != 1 || saved.TotalPlayers != 1 {
		t.Errorf("rank/total = %d/%d, want 1/1", saved.Rank, saved.TotalPlayers)
	}

	// Replay comes back 200 with saved=false and the original play.
	resp = postJSON(t, srv.URL+"/api/save-score", saveBody("t2_a", 10, 5000))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("replay status = %d, want 200", resp.StatusCode)
	}
	var replay domain.SaveScoreResponse
	decode(t, resp, &replay)
	if replay.Saved {
		t.Error("replay reported saved=true")
	}
	if replay.OriginalScore == nil || replay.OriginalScore.Correct != 8 {
		t.Errorf("replay original score = %+v, want the first play", replay.OriginalScore)
	}
}

func TestSaveScoreEndpointRejections(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name        string
		body        any
		rawBody     string
		wantMessage string
	}{
		{
			name:        "malformed json",
			rawBody:     "{not json",
			wantMessage: "Invalid request data. Required: userId, score, date, correctGuesses, timeMs",
		},
		{
			name:        "missing user id",
			body:        domain.SaveScoreRequest{Date: "2025-01-05", CorrectGuesses: 5, TimeMs: 30_000, Score: domain.ComputeScore(5, 30_000)},
			wantMessage: "Invalid request data. Required: userId, score, date, correctGuesses, timeMs",
		},
		{
			name:        "below minimum time",
			body:        saveBody("t2_a", 10, 4999),
			wantMessage: "Invalid completion time",
		},
		{
			name: "tampered score",
			body: domain.SaveScoreRequest{
				UserID: "t2_a", Date: "2025-01-05", CorrectGuesses: 5, TimeMs: 30_000,
				Score: domain.ComputeScore(10, 30_000),
			},
			wantMessage: "Invalid score calculation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *http.Response
			if tt.rawBody != "" {
				var err error
				resp, err = http.Post(srv.URL+"/api/save-score", "application/json", strings.NewReader(tt.rawBody))
				if err != nil {
					t.Fatalf("POST: %v", err)
				}
			} else {
				resp = postJSON(t, srv.URL+"/api/save-score", tt.body)
			}
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			var body domain.SaveScoreResponse
			decode(t, resp, &body)
			if body.Success || body.Saved {
				t.Errorf("rejection body = %+v, want success=false saved=false", body)
			}
			if body.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMessage)
			}
		})
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/leaderboard?date=2025-01-05")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	// Decode into a raw map to pin down the empty-day wire shape.
	var raw map[string]json.RawMessage
	decode(t, resp, &raw)
	if string(raw["totalPlayers"]) != "0" {
		t.Errorf("totalPlayers = %s, want 0", raw["totalPlayers"])
	}
	if string(raw["topPlayers"]) != "[]" {
		t.Errorf("topPlayers = %s, want [] (never null)", raw["topPlayers"])
	}

	for i := 1; i <= 3; i++ {
		player := fmt.Sprintf("t2_p%d", i)
		postJSON(t, srv.URL+"/api/save-score", saveBody(player, 11-i, 10_000)).Body.Close()
	}

	resp, err = http.Get(srv.URL + "/api/leaderboard?date=2025-01-05&userId=t2_p3")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var board domain.LeaderboardResponse
	decode(t, resp, &board)
	if board.TotalPlayers != 3 || len(board.TopPlayers) != 3 {
		t.Fatalf("board = %+v, want 3 players", board)
	}
	if board.TopPlayers[0].Username != "t2_p1" || board.TopPlayers[0].Rank != 1 {
		t.Errorf("top entry = %+v, want t2_p1 at rank 1", board.TopPlayers[0])
	}
	if board.UserRank != 3 {
		t.Errorf("user rank = %d, want 3", board.UserRank)
	}
}

func TestLeaderboardEndpointBadDate(t *testing.T) {
	srv := newTestServer(t)

	for _, date := range []string{"2025-1-5", "20250105", "not-a-date"} {
		resp, err := http.Get(srv.URL + "/api/leaderboard?date=" + date)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("date %q: status = %d, want 400", date, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestCheckPlayedTodayEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/check-played-today?date=2025-01-05")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing userId: status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/check-played-today?userId=t2_a&date=2025-01-05")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var unplayed domain.CheckPlayedResponse
	decode(t, resp, &unplayed)
	if unplayed.Played || unplayed.Score != nil {
		t.Errorf("unplayed response = %+v", unplayed)
	}

	postJSON(t, srv.URL+"/api/save-score", saveBody("t2_a", 6, 50_000)).Body.Close()

	resp, err = http.Get(srv.URL + "/api/check-played-today?userId=t2_a&date=2025-01-05")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var played domain.CheckPlayedResponse
	decode(t, resp, &played)
	if !played.Played || played.Score == nil {
		t.Fatalf("played response = %+v", played)
	}
	if played.Score.Correct != 6 || played.Score.Incorrect != 4 || played.Score.Rank != 1 {
		t.Errorf("played score = %+v", played.Score)
	}
}

func TestPostCommentEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/post-comment", domain.PostCommentRequest{
		PostID: "t3_post", Score: 9, Time: "1:32",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var posted domain.PostCommentResponse
	decode(t, resp, &posted)
	if !posted.Success || posted.CommentID != "t1_abc" {
		t.Errorf("response = %+v", posted)
	}

	resp = postJSON(t, srv.URL+"/api/post-comment", domain.PostCommentRequest{Score: 9})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing postId: status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}
