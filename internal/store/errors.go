package store

import "errors"

// Sentinel errors returned by store operations. The service layer maps
// these onto the API error taxonomy.
var (
	// ErrScoreboardNotFound is returned when a scoreboard id is absent or purged.
	ErrScoreboardNotFound = errors.New("scoreboard not found")
	// ErrScoreboardExists is returned when creating a scoreboard with an existing ID.
	ErrScoreboardExists = errors.New("scoreboard already exists")
	// ErrItemNotFound is returned when an item id is absent or purged.
	ErrItemNotFound = errors.New("scoreboard item not found")
	// ErrItemExists is returned when creating an item with an existing ID.
	ErrItemExists = errors.New("scoreboard item already exists")
	// ErrUserNotFound is returned when a user cannot be found by ID or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when attempting to create a user with an existing ID.
	ErrUserExists = errors.New("user already exists")
	// ErrEmailExists is returned when attempting to create a user with an email that's already in use.
	ErrEmailExists = errors.New("email already in use")
	// ErrSessionNotFound is returned when a session cannot be found by ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when attempting to use an expired session.
	ErrSessionExpired = errors.New("session expired")
)
