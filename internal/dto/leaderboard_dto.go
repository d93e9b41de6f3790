package dto

// LeaderboardEntry is a derived ranking row. Entries are recomputed on
// every query from the submission snapshot and never cached.
type LeaderboardEntry struct {
	Rank           int      `json:"rank"`
	Username       string   `json:"username"`
	FullName       string   `json:"full_name"`
	AvatarURL      string   `json:"avatar_url,omitempty"`
	TotalXP        int      `json:"total_xp"`
	AverageScore   int      `json:"average_score"`
	CompletedTasks int      `json:"completed_tasks"`
	Streak         bool     `json:"streak"`
	Badges         []string `json:"badges"`
}

// LeaderboardResponse wraps the ranking and the caller's own position.
type LeaderboardResponse struct {
	Entries  []LeaderboardEntry `json:"entries"`
	YourRank *int               `json:"your_rank,omitempty"`
}
