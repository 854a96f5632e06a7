package domain

import "time"

// User is an authenticated account. Scoreboards reference their author by
// user id; item submissions carry a user id plus a username snapshot.
type User struct {
	Syncable
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"passwordHash,omitempty"` // Stored hashed, filter from API responses
	LastLoginAt  time.Time `json:"lastLoginAt"`
}
