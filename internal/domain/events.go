package domain

import "time"

// Event types broadcast to live scoreboard subscribers.
const (
	EventScoreboardUpdated = "scoreboard.updated"
	EventScoreboardDeleted = "scoreboard.deleted"
	EventItemCreated       = "item.created"
	EventItemDeleted       = "item.deleted"
)

// Event is a realtime notification about a change to a scoreboard or one of
// its items. Payloads are intentionally thin: subscribers re-fetch through
// the API rather than trusting a pushed copy.
type Event struct {
	Type         string    `json:"type"`
	ScoreboardID string    `json:"scoreboardId"`
	ItemID       string    `json:"itemId,omitempty"`
	Name         string    `json:"name,omitempty"`
	At           time.Time `json:"at"`
}
