// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty selects which sample text corpus the backend serves.
type Difficulty string

// Supported difficulties, in cycling order.
const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Difficulties lists every difficulty in cycling order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty accepts any casing of a known difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.TrimSpace(s)
	for _, d := range Difficulties {
		if strings.EqualFold(s, string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q (use easy, medium or hard)", s)
}

// Query returns the form used in the typing-text query string.
func (d Difficulty) Query() string {
	return strings.ToLower(string(d))
}

// Next returns the following difficulty, wrapping around.
func (d Difficulty) Next() Difficulty {
	for i, candidate := range Difficulties {
		if candidate == d {
			return Difficulties[(i+1)%len(Difficulties)]
		}
	}
	return DifficultyEasy
}

// Config holds resolved client settings.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	RateLimit    float64
	Difficulty   Difficulty
	PollInterval time.Duration
	AlertDelay   time.Duration
}

// Session is the authenticated identity held between runs.
type Session struct {
	Username string
	Token    string
}

// Active reports whether a user is logged in.
func (s Session) Active() bool {
	return strings.TrimSpace(s.Username) != ""
}

// TypingResult is one stored test result as returned by the backend.
type TypingResult struct {
	WPM        int        `json:"wpm"`
	Accuracy   int        `json:"accuracy"`
	Duration   int        `json:"duration"`
	Difficulty Difficulty `json:"difficulty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ResultSubmission is the body posted when a test ends.
type ResultSubmission struct {
	Username   string     `json:"username"`
	WPM        int        `json:"wpm"`
	Accuracy   int        `json:"accuracy"`
	Duration   int        `json:"duration"`
	Difficulty Difficulty `json:"difficulty"`
}

// Profile is the editable part of a user profile.
type Profile struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	AvatarRef string `json:"profile_image"`
}

// ProfileStats combines the profile with best scores.
type ProfileStats struct {
	Profile
	BestWPM             int    `json:"best_wpm"`
	BestAccuracy        int    `json:"best_accuracy"`
	PreferredDifficulty string `json:"preferred_difficulty"`
}

// ProfileUpdate describes a multipart profile edit. An empty ImagePath keeps the avatar.
type ProfileUpdate struct {
	Bio       string
	ImagePath string
}

// Summary is derived from the full result list of a user.
type Summary struct {
	AverageWPM           int
	AverageAccuracy      int
	TestsTaken           int
	MostPlayedDifficulty string
}

// NoDifficulty is shown when no tests were taken.
const NoDifficulty = "N/A"

// EmptySummary returns the aggregates of an empty result set.
func EmptySummary() Summary {
	return Summary{MostPlayedDifficulty: NoDifficulty}
}
