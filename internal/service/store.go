// Package service contains the attendance lifecycle engine and the
// view projection for games. It holds no state between calls: every
// operation is a short-lived unit of work against the Store, and many
// service instances may run concurrently against the same database.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/pickupgames/backend/internal/model"
)

// ErrSerialization is returned by Store implementations when a
// transaction could not be serialized against concurrent transactions
// on the same game (e.g. a database deadlock). The service retries
// these a bounded number of times before surfacing ErrConflict.
var ErrSerialization = errors.New("transaction serialization failure")

// Tx exposes the storage primitives available inside a single
// per-game transaction. Lookup methods return (nil, nil) when the row
// does not exist so callers can turn absence into their own typed
// errors.
type Tx interface {
	// GameForUpdate loads the game while taking the lock that
	// serializes all attendance mutations on it.
	GameForUpdate(ctx context.Context, gameID uint64) (*model.Game, error)
	// CountConfirmed counts the game's confirmed attendees.
	CountConfirmed(ctx context.Context, gameID uint64) (int, error)
	// AttendeeByUser finds the attendee row for a (game, user) pair.
	AttendeeByUser(ctx context.Context, gameID, userID uint64) (*model.Attendee, error)
	// AttendeeByID finds an attendee row by its id.
	AttendeeByID(ctx context.Context, attendeeID uint64) (*model.Attendee, error)
	// InsertAttendee inserts a new row and sets its generated ID.
	InsertAttendee(ctx context.Context, a *model.Attendee) error
	// DeleteAttendee removes a row.
	DeleteAttendee(ctx context.Context, attendeeID uint64) error
	// EarliestWaitlisted returns the promotion candidate: the
	// waitlisted attendee with the earliest signup time, ties broken
	// by lowest id.
	EarliestWaitlisted(ctx context.Context, gameID uint64) (*model.Attendee, error)
	// MarkConfirmed flips an attendee from waitlisted to confirmed.
	MarkConfirmed(ctx context.Context, attendeeID uint64) error
	// UpdateGame rewrites the host-editable fields of a game.
	UpdateGame(ctx context.Context, g *model.Game) error
}

// Store is the session store the service transacts against. WithGameTx
// runs fn inside one atomic transaction scoped to a single game; two
// transactions on the same game serialize, transactions on different
// games never block each other. When fn returns an error the
// transaction rolls back and no partial state is observable.
type Store interface {
	WithGameTx(ctx context.Context, gameID uint64, fn func(tx Tx) error) error
	// CreateGame inserts a new game and sets its generated ID.
	CreateGame(ctx context.Context, g *model.Game) error
	// GameDetail returns a game with host name and attendee rows, or
	// (nil, nil) when the game does not exist.
	GameDetail(ctx context.Context, gameID uint64) (*model.GameDetail, error)
	// ListGames returns upcoming games (or past games when past is
	// true) with host names and attendee rows.
	ListGames(ctx context.Context, past bool, now time.Time) ([]model.GameDetail, error)
}

// Clock supplies the authoritative current time for the join-window
// check. Client-supplied timestamps are never trusted; production
// wiring passes time.Now and tests pass a fixed clock.
type Clock func() time.Time
