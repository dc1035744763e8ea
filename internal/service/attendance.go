package service

import (
	"context"
	"errors"
	"time"

	"github.com/pickupgames/backend/internal/model"
)

// JoinCutoff is how long before game time signups close. Joins at or
// after dateTime-JoinCutoff fail with ErrJoinWindowClosed.
const JoinCutoff = 5 * time.Minute

const (
	// txAttempts bounds how often a serialization failure is retried
	// before ErrConflict is surfaced.
	txAttempts   = 3
	retryBackoff = 25 * time.Millisecond
)

// Attendance implements the attendance lifecycle of a game: joining,
// leaving, host-initiated removal and the eager waitlist promotion
// that keeps the confirmed roster consistent with capacity. Each
// operation runs as one per-game transaction, so the capacity bound
// and FIFO promotion order hold after every completed call even under
// concurrent mutation.
type Attendance struct {
	store Store
	now   Clock
}

// NewAttendance constructs the service. Both dependencies must be
// non-nil; now is the authoritative clock for the join-window check.
func NewAttendance(store Store, now Clock) *Attendance {
	if store == nil || now == nil {
		panic("nil dependency passed to NewAttendance")
	}
	return &Attendance{store: store, now: now}
}

// JoinResult reports the outcome of a Join: the created attendee row,
// whether it landed on the waitlist, and the game it belongs to.
type JoinResult struct {
	Attendee   model.Attendee
	OnWaitlist bool
	Game       model.Game
}

// Join signs the caller up for a game. While the game still has an
// open confirmed spot the signup is confirmed, otherwise it is
// waitlisted. The count check and the insert run under the game lock,
// so two callers racing for the last open spot can never both end up
// confirmed.
func (s *Attendance) Join(ctx context.Context, gameID, callerID uint64) (JoinResult, error) {
	var res JoinResult
	err := s.withRetry(ctx, gameID, func(tx Tx) error {
		res = JoinResult{} // a retried attempt starts clean
		g, err := tx.GameForUpdate(ctx, gameID)
		if err != nil {
			return err
		}
		if g == nil {
			return ErrGameNotFound
		}
		// The boundary instant itself is closed: joining is permitted
		// only while now < dateTime - JoinCutoff.
		if !s.now().Before(g.DateTime.Add(-JoinCutoff)) {
			return ErrJoinWindowClosed
		}
		existing, err := tx.AttendeeByUser(ctx, gameID, callerID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyJoined
		}
		confirmed, err := tx.CountConfirmed(ctx, gameID)
		if err != nil {
			return err
		}
		a := &model.Attendee{
			GameID:     gameID,
			UserID:     callerID,
			Waitlist:   confirmed >= g.MaxPlayers,
			SignedUpAt: s.now().UTC(),
		}
		if err := tx.InsertAttendee(ctx, a); err != nil {
			return err
		}
		res = JoinResult{Attendee: *a, OnWaitlist: a.Waitlist, Game: *g}
		return nil
	})
	if err != nil {
		return JoinResult{}, err
	}
	return res, nil
}

// RemovalResult reports a completed leave or removal: the deleted row
// and, when the deletion freed a confirmed spot, the attendee promoted
// into it. Both are applied in the same transaction, so a vacancy is
// never observable without its promotion.
type RemovalResult struct {
	Removed  model.Attendee
	Promoted *model.Attendee
	Game     model.Game
}

// Leave removes the caller's own signup from a game. If the caller
// held a confirmed spot, the earliest-signed-up waitlisted attendee is
// promoted into it.
func (s *Attendance) Leave(ctx context.Context, gameID, callerID uint64) (RemovalResult, error) {
	var res RemovalResult
	err := s.withRetry(ctx, gameID, func(tx Tx) error {
		res = RemovalResult{} // a retried attempt starts clean
		g, err := tx.GameForUpdate(ctx, gameID)
		if err != nil {
			return err
		}
		if g == nil {
			return ErrGameNotFound
		}
		a, err := tx.AttendeeByUser(ctx, gameID, callerID)
		if err != nil {
			return err
		}
		if a == nil {
			return ErrNotJoined
		}
		res.Game = *g
		return s.deleteAndPromote(ctx, tx, a, &res)
	})
	if err != nil {
		return RemovalResult{}, err
	}
	return res, nil
}

// RemoveAttendee removes any attendee from a game on behalf of its
// host, with the same delete-plus-promotion unit as Leave. Only the
// host may do this; the target does not have to be the caller.
func (s *Attendance) RemoveAttendee(ctx context.Context, gameID, callerID, attendeeID uint64) (RemovalResult, error) {
	var res RemovalResult
	err := s.withRetry(ctx, gameID, func(tx Tx) error {
		res = RemovalResult{} // a retried attempt starts clean
		g, err := tx.GameForUpdate(ctx, gameID)
		if err != nil {
			return err
		}
		if g == nil {
			return ErrGameNotFound
		}
		if g.HostID != callerID {
			return ErrNotHost
		}
		a, err := tx.AttendeeByID(ctx, attendeeID)
		if err != nil {
			return err
		}
		if a == nil || a.GameID != gameID {
			return ErrAttendeeNotFound
		}
		res.Game = *g
		return s.deleteAndPromote(ctx, tx, a, &res)
	})
	if err != nil {
		return RemovalResult{}, err
	}
	return res, nil
}

// deleteAndPromote deletes an attendee row and, when the row occupied
// a confirmed spot, promotes the game's earliest waitlisted attendee.
// A waitlisted deletion never triggers promotion.
func (s *Attendance) deleteAndPromote(ctx context.Context, tx Tx, a *model.Attendee, res *RemovalResult) error {
	if err := tx.DeleteAttendee(ctx, a.ID); err != nil {
		return err
	}
	res.Removed = *a
	if a.Waitlist {
		return nil
	}
	next, err := tx.EarliestWaitlisted(ctx, a.GameID)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	if err := tx.MarkConfirmed(ctx, next.ID); err != nil {
		return err
	}
	next.Waitlist = false
	res.Promoted = next
	return nil
}

// GameView returns the viewer-relative projection of a game.
// viewerID zero means an unauthenticated viewer.
func (s *Attendance) GameView(ctx context.Context, gameID, viewerID uint64) (GameView, error) {
	det, err := s.store.GameDetail(ctx, gameID)
	if err != nil {
		return GameView{}, err
	}
	if det == nil {
		return GameView{}, ErrGameNotFound
	}
	return BuildGameView(det, viewerID), nil
}

// ListGameViews returns projections of all upcoming games (or past
// games when past is true), relative to the viewer.
func (s *Attendance) ListGameViews(ctx context.Context, past bool, viewerID uint64) ([]GameView, error) {
	details, err := s.store.ListGames(ctx, past, s.now().UTC())
	if err != nil {
		return nil, err
	}
	views := make([]GameView, 0, len(details))
	for i := range details {
		views = append(views, BuildGameView(&details[i], viewerID))
	}
	return views, nil
}

// withRetry runs fn in a per-game transaction, retrying serialization
// failures with a short backoff until the attempt budget is spent.
// All other errors are returned immediately.
func (s *Attendance) withRetry(ctx context.Context, gameID uint64, fn func(tx Tx) error) error {
	var err error
	for attempt := 0; attempt < txAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
		err = s.store.WithGameTx(ctx, gameID, fn)
		if err == nil || !errors.Is(err, ErrSerialization) {
			return err
		}
	}
	return ErrConflict
}
