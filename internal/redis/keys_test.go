package redis

import (
	"testing"

	"github.com/real-or-render/daily-leaderboard/internal/domain"
)

func TestKeyFormats(t *testing.T) {
	s := &Store{}
	day := domain.Day("2025-01-05")

	if got, want := s.playerKey("t2_abc", day), "player:t2_abc:2025-01-05"; got != want {
		t.Errorf("playerKey = %q, want %q", got, want)
	}
	if got, want := s.leaderboardKey(day), "leaderboard:daily:2025-01-05"; got != want {
		t.Errorf("leaderboardKey = %q, want %q", got, want)
	}
	if got, want := s.identityKey("t2_abc"), "player:t2_abc:info"; got != want {
		t.Errorf("identityKey = %q, want %q", got, want)
	}
}
