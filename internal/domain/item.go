package domain

// ScoreboardItem is a single scored entry on a scoreboard. The username is
// a denormalized snapshot taken at submission time and is never re-synced
// from the user record. Items are created and soft-deleted, never updated
// in place, and their ScoreboardID never changes.
type ScoreboardItem struct {
	Syncable
	ScoreboardID string `json:"scoreboardId"`
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	Score        int32  `json:"score"`
}
