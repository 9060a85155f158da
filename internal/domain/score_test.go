package domain

import "testing"

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name      string
		correct   int
		elapsedMs int64
		want      int64
	}{
		{name: "zero correct", correct: 0, elapsedMs: 5000, want: 5000},
		{name: "perfect game at the floor", correct: 10, elapsedMs: 5000, want: 10_000_005_000},
		{name: "mid game", correct: 7, elapsedMs: 42_500, want: 7_042_500},
		{name: "time is additive", correct: 3, elapsedMs: 999_999, want: 3_999_999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeScore(tt.correct, tt.elapsedMs); got != tt.want {
				t.Errorf("ComputeScore(%d, %d) = %d, want %d", tt.correct, tt.elapsedMs, got, tt.want)
			}
		})
	}
}

func TestComputeScoreCorrectnessDominates(t *testing.T) {
	// With elapsed time below the correctness band width, one extra correct
	// answer always outranks any time difference.
	for correct := 0; correct < Rounds; correct++ {
		slow := ComputeScore(correct, 999_999)
		fast := ComputeScore(correct+1, MinElapsedMs)
		if slow >= fast {
			t.Errorf("score with %d correct at max time (%d) >= score with %d correct at min time (%d)",
				correct, slow, correct+1, fast)
		}
	}
}

func TestValidateSubmission(t *testing.T) {
	valid := SaveScoreRequest{
		UserID:         "t2_abc",
		Date:           "2025-01-05",
		CorrectGuesses: 8,
		TimeMs:         61_000,
		Score:          ComputeScore(8, 61_000),
	}

	tests := []struct {
		name    string
		mutate  func(r *SaveScoreRequest)
		wantMsg string
	}{
		{
			name:   "valid submission",
			mutate: func(r *SaveScoreRequest) {},
		},
		{
			name:    "missing user id",
			mutate:  func(r *SaveScoreRequest) { r.UserID = "" },
			wantMsg: "Invalid request data. Required: userId, score, date, correctGuesses, timeMs",
		},
		{
			name:    "missing date",
			mutate:  func(r *SaveScoreRequest) { r.Date = "" },
			wantMsg: "Invalid request data. Required: userId, score, date, correctGuesses, timeMs",
		},
		{
			name:    "tampered score",
			mutate:  func(r *SaveScoreRequest) { r.Score++ },
			wantMsg: "Invalid score calculation",
		},
		{
			name: "time below plausibility floor",
			mutate: func(r *SaveScoreRequest) {
				r.TimeMs = 4999
				r.Score = ComputeScore(r.CorrectGuesses, 4999)
			},
			wantMsg: "Invalid completion time",
		},
		{
			name: "time below floor with perfect game",
			mutate: func(r *SaveScoreRequest) {
				r.CorrectGuesses = 10
				r.TimeMs = 4999
				r.Score = ComputeScore(10, 4999)
			},
			wantMsg: "Invalid completion time",
		},
		{
			name: "time at the floor is accepted",
			mutate: func(r *SaveScoreRequest) {
				r.TimeMs = MinElapsedMs
				r.Score = ComputeScore(r.CorrectGuesses, MinElapsedMs)
			},
		},
		{
			name: "correct above range",
			mutate: func(r *SaveScoreRequest) {
				r.CorrectGuesses = 11
				r.Score = ComputeScore(11, r.TimeMs)
			},
			wantMsg: "Invalid correct guesses count",
		},
		{
			name: "correct below range",
			mutate: func(r *SaveScoreRequest) {
				r.CorrectGuesses = -1
				r.Score = ComputeScore(-1, r.TimeMs)
			},
			wantMsg: "Invalid correct guesses count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := ValidateSubmission(req)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("ValidateSubmission() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateSubmission() = nil, want error")
			}
			if !IsValidationError(err) {
				t.Errorf("IsValidationError() = false for %v", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}
