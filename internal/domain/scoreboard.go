package domain

// Scoreboard is a named, ranked collection of scored items owned by exactly
// one author. Scoreboards are only ever renamed after creation; deletion is
// a soft delete that leaves the id valid for audit.
type Scoreboard struct {
	Syncable
	Name     string `json:"name"`
	Slug     string `json:"slug,omitempty"`
	AuthorID string `json:"authorId"`
}
