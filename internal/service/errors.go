package service

import "errors"

// Typed failure conditions of the attendance engine. Handlers
// translate these into stable HTTP status codes with errors.Is; any
// error not in this list is a storage failure and maps to 500.
var (
	// ErrGameNotFound is returned when the referenced game does not exist.
	ErrGameNotFound = errors.New("game not found")
	// ErrAttendeeNotFound is returned when the referenced attendee does
	// not exist or belongs to a different game.
	ErrAttendeeNotFound = errors.New("attendee not found")
	// ErrNotHost is returned when a caller attempts a host-only action
	// on a game they do not host.
	ErrNotHost = errors.New("only the host can perform this action")
	// ErrAlreadyJoined is returned when the caller already has an
	// attendee row for the game.
	ErrAlreadyJoined = errors.New("already signed up for this game")
	// ErrNotJoined is returned when the caller tries to leave a game
	// they never joined (or already left).
	ErrNotJoined = errors.New("not signed up for this game")
	// ErrJoinWindowClosed is returned for joins at or after five
	// minutes before game time, regardless of capacity.
	ErrJoinWindowClosed = errors.New("join window closed")
	// ErrConflict is returned when a transaction could not be
	// serialized after bounded retries.
	ErrConflict = errors.New("conflicting concurrent update, try again")
	// ErrCapacityBelowConfirmed is returned when a host tries to lower
	// max players below the current confirmed-attendee count.
	ErrCapacityBelowConfirmed = errors.New("max players cannot drop below confirmed attendees")
)
