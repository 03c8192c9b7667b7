package store

import "errors"

var (
	// ErrDuplicateID means a fruit was added under an id that is already live.
	// Ids come from NewID, so this is always a programming error.
	ErrDuplicateID = errors.New("duplicate fruit id")

	// ErrNotFound is returned when updating a fruit that no longer exists,
	// which is expected when a merge consumed it earlier in the same tick.
	ErrNotFound = errors.New("fruit not found")

	// ErrGameOver rejects spawns after the game has ended.
	ErrGameOver = errors.New("game is over")

	// ErrInvalidID rejects the zero id, which is reserved for unlabeled bodies.
	ErrInvalidID = errors.New("invalid fruit id")
)
