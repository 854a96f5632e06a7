package domain

import "time"

// Syncable provides the common identity and timestamp fields for stored
// records. Deletion is a tombstone: DeletedAt is set once and never cleared,
// so a record's history stays queryable after it disappears from listings.
type Syncable struct {
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	ID        string     `json:"id"`
}

// Touch updates the UpdatedAt timestamp to the current time.
// Call this whenever the underlying record changes.
func (s *Syncable) Touch() {
	s.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new record.
func (s *Syncable) InitTimestamps() {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
}

// IsDeleted returns true if this record has been soft-deleted.
func (s *Syncable) IsDeleted() bool {
	return s.DeletedAt != nil
}

// MarkDeleted tombstones the record by setting DeletedAt to now. It also
// bumps UpdatedAt so the deletion is visible to delta queries. DeletedAt is
// monotonic: marking an already-deleted record again changes nothing.
func (s *Syncable) MarkDeleted() {
	if s.DeletedAt != nil {
		return
	}
	now := time.Now()
	s.DeletedAt = &now
	s.UpdatedAt = now
}
