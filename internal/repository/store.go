package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pickupgames/backend/internal/model"
	"github.com/pickupgames/backend/internal/service"
)

// Store implements service.Store on top of MySQL. Per-game atomicity
// comes from a row lock on the game: every WithGameTx callback is
// expected to read the game with GameForUpdate first, which makes
// concurrent transactions on the same game serialize while leaving
// other games untouched.
type Store struct {
	db        *sql.DB
	games     *GameRepo
	attendees *AttendeeRepo
}

// NewStore bundles the repositories into a service.Store.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:        db,
		games:     NewGameRepo(db),
		attendees: NewAttendeeRepo(db),
	}
}

// WithGameTx runs fn inside a database transaction and commits it
// when fn succeeds. Deadlocks and lock wait timeouts are reported as
// service.ErrSerialization so the service retry loop can take over.
func (s *Store) WithGameTx(ctx context.Context, gameID uint64, fn func(tx service.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&storeTx{tx: tx, games: s.games, attendees: s.attendees}); err != nil {
		if isSerialization(err) {
			return fmt.Errorf("%w: %v", service.ErrSerialization, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		if isSerialization(err) {
			return fmt.Errorf("%w: %v", service.ErrSerialization, err)
		}
		return err
	}
	committed = true
	return nil
}

// CreateGame inserts a new game row.
func (s *Store) CreateGame(ctx context.Context, g *model.Game) error {
	return s.games.Create(ctx, g)
}

// GameDetail returns a game with host name and attendee rows.
func (s *Store) GameDetail(ctx context.Context, gameID uint64) (*model.GameDetail, error) {
	return s.games.Detail(ctx, gameID)
}

// ListGames returns upcoming or past games with attendee rows.
func (s *Store) ListGames(ctx context.Context, past bool, now time.Time) ([]model.GameDetail, error) {
	return s.games.ListDetails(ctx, past, now)
}

// storeTx adapts the transaction-scoped repository methods to the
// service.Tx contract.
type storeTx struct {
	tx        *sql.Tx
	games     *GameRepo
	attendees *AttendeeRepo
}

func (t *storeTx) GameForUpdate(ctx context.Context, gameID uint64) (*model.Game, error) {
	return t.games.GetForUpdateTx(ctx, t.tx, gameID)
}

func (t *storeTx) CountConfirmed(ctx context.Context, gameID uint64) (int, error) {
	return t.attendees.CountConfirmedTx(ctx, t.tx, gameID)
}

func (t *storeTx) AttendeeByUser(ctx context.Context, gameID, userID uint64) (*model.Attendee, error) {
	return t.attendees.ByUserTx(ctx, t.tx, gameID, userID)
}

func (t *storeTx) AttendeeByID(ctx context.Context, attendeeID uint64) (*model.Attendee, error) {
	return t.attendees.ByIDTx(ctx, t.tx, attendeeID)
}

func (t *storeTx) InsertAttendee(ctx context.Context, a *model.Attendee) error {
	return t.attendees.InsertTx(ctx, t.tx, a)
}

func (t *storeTx) DeleteAttendee(ctx context.Context, attendeeID uint64) error {
	return t.attendees.DeleteTx(ctx, t.tx, attendeeID)
}

func (t *storeTx) EarliestWaitlisted(ctx context.Context, gameID uint64) (*model.Attendee, error) {
	return t.attendees.EarliestWaitlistedTx(ctx, t.tx, gameID)
}

func (t *storeTx) MarkConfirmed(ctx context.Context, attendeeID uint64) error {
	return t.attendees.MarkConfirmedTx(ctx, t.tx, attendeeID)
}

func (t *storeTx) UpdateGame(ctx context.Context, g *model.Game) error {
	return t.games.UpdateTx(ctx, t.tx, g)
}
