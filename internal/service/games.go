package service

import (
	"context"
	"time"

	"github.com/pickupgames/backend/internal/model"
)

// GameInput carries the validated host-editable fields of a game.
// Field constraints are enforced by the transport layer before any
// store access; the service re-checks only the bounds that guard
// attendance invariants.
type GameInput struct {
	DateTime   time.Time
	MaxPlayers int
	Address    string
	City       string
	State      string
	ZipCode    string
}

// CreateGame creates a new game hosted by the caller and returns it.
func (s *Attendance) CreateGame(ctx context.Context, hostID uint64, in GameInput) (model.Game, error) {
	g := model.Game{
		HostID:     hostID,
		DateTime:   in.DateTime.UTC(),
		MaxPlayers: in.MaxPlayers,
		Address:    in.Address,
		City:       in.City,
		State:      in.State,
		ZipCode:    in.ZipCode,
	}
	if err := s.store.CreateGame(ctx, &g); err != nil {
		return model.Game{}, err
	}
	return g, nil
}

// GameUpdateResult reports a completed host edit: the rewritten game
// and any attendees promoted into spots a capacity raise opened.
type GameUpdateResult struct {
	Game     model.Game
	Promoted []model.Attendee
}

// UpdateGame rewrites a game's own fields on behalf of its host.
// Capacity may be lowered but never below the current confirmed
// count, so the update runs under the same game lock as attendance
// mutations. Raising capacity promotes waitlisted attendees in FIFO
// order into every new spot within the same transaction: a vacancy is
// never observable while the waitlist is non-empty.
func (s *Attendance) UpdateGame(ctx context.Context, gameID, callerID uint64, in GameInput) (GameUpdateResult, error) {
	var res GameUpdateResult
	err := s.withRetry(ctx, gameID, func(tx Tx) error {
		res = GameUpdateResult{} // a retried attempt starts clean
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
		confirmed, err := tx.CountConfirmed(ctx, gameID)
		if err != nil {
			return err
		}
		if in.MaxPlayers < confirmed {
			return ErrCapacityBelowConfirmed
		}
		g.DateTime = in.DateTime.UTC()
		g.MaxPlayers = in.MaxPlayers
		g.Address = in.Address
		g.City = in.City
		g.State = in.State
		g.ZipCode = in.ZipCode
		if err := tx.UpdateGame(ctx, g); err != nil {
			return err
		}
		for confirmed < g.MaxPlayers {
			next, err := tx.EarliestWaitlisted(ctx, gameID)
			if err != nil {
				return err
			}
			if next == nil {
				break
			}
			if err := tx.MarkConfirmed(ctx, next.ID); err != nil {
				return err
			}
			next.Waitlist = false
			res.Promoted = append(res.Promoted, *next)
			confirmed++
		}
		res.Game = *g
		return nil
	})
	if err != nil {
		return GameUpdateResult{}, err
	}
	return res, nil
}
