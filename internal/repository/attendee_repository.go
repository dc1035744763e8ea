package repository

import (
	"context"
	"database/sql"

	"github.com/pickupgames/backend/internal/model"
)

// AttendeeRepo provides access to the attendees table. All mutating
// methods are transaction-scoped: the attendance rules (capacity
// check before insert, promotion after delete) only hold when the
// surrounding transaction owns the game row lock, so the caller must
// begin the transaction and lock the game first.
type AttendeeRepo struct {
	db *sql.DB
}

// NewAttendeeRepo returns a new AttendeeRepo bound to the given database.
func NewAttendeeRepo(db *sql.DB) *AttendeeRepo { return &AttendeeRepo{db: db} }

// CountConfirmedTx counts the confirmed (non-waitlisted) attendees of
// a game within a transaction.
func (r *AttendeeRepo) CountConfirmedTx(ctx context.Context, tx *sql.Tx, gameID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM attendees WHERE game_id = ? AND waitlist = 0`
	var n int
	err := tx.QueryRowContext(ctx, q, gameID).Scan(&n)
	return n, err
}

// ByUserTx returns the attendee row for a (game, user) pair within a
// transaction, or (nil, nil) when the user has not signed up.
func (r *AttendeeRepo) ByUserTx(ctx context.Context, tx *sql.Tx, gameID, userID uint64) (*model.Attendee, error) {
	const q = `SELECT id, game_id, user_id, waitlist, signed_up_at FROM attendees WHERE game_id = ? AND user_id = ? LIMIT 1`
	return scanAttendee(tx.QueryRowContext(ctx, q, gameID, userID))
}

// ByIDTx returns the attendee row with the given id within a
// transaction, or (nil, nil) when it does not exist.
func (r *AttendeeRepo) ByIDTx(ctx context.Context, tx *sql.Tx, attendeeID uint64) (*model.Attendee, error) {
	const q = `SELECT id, game_id, user_id, waitlist, signed_up_at FROM attendees WHERE id = ? LIMIT 1`
	return scanAttendee(tx.QueryRowContext(ctx, q, attendeeID))
}

// InsertTx inserts a new attendee row within a transaction and
// populates the generated ID on the record. The (game_id, user_id)
// uniqueness constraint backstops the duplicate-join check performed
// by the service under the game lock.
func (r *AttendeeRepo) InsertTx(ctx context.Context, tx *sql.Tx, a *model.Attendee) error {
	const q = `INSERT INTO attendees (game_id, user_id, waitlist, signed_up_at) VALUES (?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, a.GameID, a.UserID, a.Waitlist, a.SignedUpAt.UTC())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// DeleteTx removes an attendee row within a transaction.
func (r *AttendeeRepo) DeleteTx(ctx context.Context, tx *sql.Tx, attendeeID uint64) error {
	const q = `DELETE FROM attendees WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, attendeeID)
	return err
}

// EarliestWaitlistedTx returns the promotion candidate of a game: the
// waitlisted attendee with the earliest signup time, ties broken by
// lowest id. It returns (nil, nil) when the waitlist is empty. The
// (game_id, waitlist, signed_up_at) index keeps this lookup cheap.
func (r *AttendeeRepo) EarliestWaitlistedTx(ctx context.Context, tx *sql.Tx, gameID uint64) (*model.Attendee, error) {
	const q = `SELECT id, game_id, user_id, waitlist, signed_up_at
	           FROM attendees
	           WHERE game_id = ? AND waitlist = 1
	           ORDER BY signed_up_at ASC, id ASC
	           LIMIT 1`
	return scanAttendee(tx.QueryRowContext(ctx, q, gameID))
}

// MarkConfirmedTx flips an attendee's waitlist flag to confirmed
// within a transaction. This is the only mutation ever applied to an
// existing attendee row.
func (r *AttendeeRepo) MarkConfirmedTx(ctx context.Context, tx *sql.Tx, attendeeID uint64) error {
	const q = `UPDATE attendees SET waitlist = 0 WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, attendeeID)
	return err
}

func scanAttendee(row *sql.Row) (*model.Attendee, error) {
	var a model.Attendee
	err := row.Scan(&a.ID, &a.GameID, &a.UserID, &a.Waitlist, &a.SignedUpAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
