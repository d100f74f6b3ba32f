package models

// LeaderboardEntry is one ranked row of a leaderboard.
type LeaderboardEntry struct {
	UserID int64   `json:"user_id"`
	Points float64 `json:"points"`
}
