// Package search provides full-text scoreboard search using Bleve.
// Only identity and searchable text are indexed; hits are hydrated from
// the store, which is also where tombstone filtering happens.
package search

import (
	"github.com/scoredeck/scoredeck-server/internal/domain"
)

// Document is the indexed projection of a scoreboard.
type Document struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	CreatedAt int64  `json:"created_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *Document) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"id":         d.ID,
		"name":       d.Name,
		"slug":       d.Slug,
		"created_at": d.CreatedAt,
	}
}

// ScoreboardToDocument converts a domain Scoreboard to a Document.
func ScoreboardToDocument(sb *domain.Scoreboard) *Document {
	return &Document{
		ID:        sb.ID,
		Name:      sb.Name,
		Slug:      sb.Slug,
		CreatedAt: sb.CreatedAt.UnixMilli(),
	}
}
