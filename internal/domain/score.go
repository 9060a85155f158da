package domain

// scorePerCorrect separates correctness bands in the combined score. The
// client paces rounds so a full game stays well below 1,000,000 ms; the
// formula does not clamp elapsed time beyond that assumption.
const scorePerCorrect = 1_000_000

const (
	// Rounds is the number of image pairs in one daily game.
	Rounds = 10

	// MinElapsedMs is the plausibility floor for completing all rounds.
	MinElapsedMs = 5000
)

// ComputeScore maps a completed run to its leaderboard score.
// Formula: correct * 1,000,000 + elapsedMs. Correctness dominates: one extra
// correct answer outweighs any plausible time difference.
func ComputeScore(correct int, elapsedMs int64) int64 {
	return int64(correct)*scorePerCorrect + elapsedMs
}

// ValidateSubmission applies the sanity bounds of the save-score contract.
// A claimed score that does not match the formula is treated as a tampered
// client and rejected.
func ValidateSubmission(req SaveScoreRequest) error {
	if req.UserID == "" || req.Date == "" {
		return NewValidationError("Invalid request data. Required: userId, score, date, correctGuesses, timeMs")
	}
	if req.Score != ComputeScore(req.CorrectGuesses, req.TimeMs) {
		return NewValidationError("Invalid score calculation")
	}
	if req.TimeMs < MinElapsedMs {
		return NewValidationError("Invalid completion time")
	}
	if req.CorrectGuesses < 0 || req.CorrectGuesses > Rounds {
		return NewValidationError("Invalid correct guesses count")
	}
	return nil
}
