package domain

// PlayerRecord is one player's completed play for one day. At most one record
// exists per (player, day); once written it never changes. Replays are
// answered from it, never from the replay's own payload.
type PlayerRecord struct {
	PlayerID  string `json:"player_id"`
	Day       Day    `json:"day"`
	Correct   int    `json:"correct"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// Score derives the leaderboard score for the record.
func (r PlayerRecord) Score() int64 {
	return ComputeScore(r.Correct, r.ElapsedMs)
}

// Identity is display data for a player, resolved read-only from the host
// platform.
type Identity struct {
	Username     string `json:"username"`
	SnoovatarURL string `json:"snoovatar_url,omitempty"`
}
