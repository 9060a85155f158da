package domain

// Entry is a player's position within one day's leaderboard. Entries are
// ordered by score descending; equal scores order lexicographically by player
// id, which is the stable tie-break of the underlying sorted set.
type Entry struct {
	Rank     int64  `json:"rank"`
	PlayerID string `json:"player_id"`
	Score    int64  `json:"score"`
}

// SaveScoreRequest is the body of POST /api/save-score.
type SaveScoreRequest struct {
	UserID         string `json:"userId"`
	Score          int64  `json:"score"`
	Date           string `json:"date"`
	CorrectGuesses int    `json:"correctGuesses"`
	TimeMs         int64  `json:"timeMs"`
}

// OriginalScore echoes the stored first play back on a replay.
type OriginalScore struct {
	Correct int   `json:"correct"`
	TimeMs  int64 `json:"timeMs"`
}

// SaveScoreResponse is the result of a score submission. Saved distinguishes
// a recorded first play from a replay.
type SaveScoreResponse struct {
	Success       bool           `json:"success"`
	Saved         bool           `json:"saved"`
	Rank          int64          `json:"rank,omitempty"`
	TotalPlayers  int64          `json:"totalPlayers,omitempty"`
	OriginalScore *OriginalScore `json:"originalScore,omitempty"`
	Message       string         `json:"message"`
}

// TopPlayer is one annotated row of the leaderboard response.
type TopPlayer struct {
	Rank      int64  `json:"rank"`
	Username  string `json:"username"`
	Score     int64  `json:"score"`
	Correct   int    `json:"correct"`
	TimeMs    int64  `json:"timeMs"`
	Snoovatar string `json:"snoovatar"`
}

// LeaderboardResponse is the result of GET /api/leaderboard.
type LeaderboardResponse struct {
	Date         string      `json:"date"`
	TotalPlayers int64       `json:"totalPlayers"`
	UserRank     int64       `json:"userRank,omitempty"`
	UserScore    int64       `json:"userScore,omitempty"`
	TopPlayers   []TopPlayer `json:"topPlayers"`
}

// PlayedScore carries the stored play back from check-played-today.
type PlayedScore struct {
	Correct   int   `json:"correct"`
	Incorrect int   `json:"incorrect"`
	TimeMs    int64 `json:"timeMs"`
	Rank      int64 `json:"rank"`
}

// CheckPlayedResponse is the result of GET /api/check-played-today.
type CheckPlayedResponse struct {
	Played            bool         `json:"played"`
	TotalPlayersToday int64        `json:"totalPlayersToday"`
	Score             *PlayedScore `json:"score,omitempty"`
}

// PostCommentRequest is the body of POST /api/post-comment.
type PostCommentRequest struct {
	PostID  string `json:"postId"`
	Comment string `json:"comment"`
	Score   int    `json:"score"`
	Time    string `json:"time"`
}

// PostCommentResponse is the result of posting a score comment.
type PostCommentResponse struct {
	Success   bool   `json:"success"`
	CommentID string `json:"commentId,omitempty"`
	Message   string `json:"message"`
}

// ErrorResponse is the generic failure body for read endpoints.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
