package repository

import (
	"context"
	"database/sql"
	"strings"

	"time"

	"github.com/pickupgames/backend/internal/model"
)

// GameRepo provides CRUD operations for games and the joined detail
// reads the view projector consumes. All timestamp fields are assumed
// to be stored in UTC.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo returns a new GameRepo bound to the given database.
func NewGameRepo(db *sql.DB) *GameRepo { return &GameRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning several repositories.
func (r *GameRepo) DB() *sql.DB { return r.db }

// Create inserts a new game and populates the generated ID and
// timestamps on the provided record.
func (r *GameRepo) Create(ctx context.Context, g *model.Game) error {
	const q = `INSERT INTO games (host_id, date_time, max_players, address, city, state, zip_code) VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, g.HostID, g.DateTime.UTC(), g.MaxPlayers, g.Address, g.City, g.State, g.ZipCode)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	const sel = `SELECT id, host_id, date_time, max_players, address, city, state, zip_code, created_at, updated_at FROM games WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, g.ID).Scan(
		&g.ID, &g.HostID, &g.DateTime, &g.MaxPlayers,
		&g.Address, &g.City, &g.State, &g.ZipCode,
		&g.CreatedAt, &g.UpdatedAt,
	)
}

// GetForUpdateTx loads a game within a transaction while taking a row
// lock on it. Every attendance mutation on a game starts with this
// lock, which serializes concurrent joins, leaves and removals per
// game without blocking transactions on other games. It returns
// (nil, nil) when the game does not exist.
func (r *GameRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, gameID uint64) (*model.Game, error) {
	const q = `SELECT id, host_id, date_time, max_players, address, city, state, zip_code, created_at, updated_at
	           FROM games WHERE id = ? FOR UPDATE`
	var g model.Game
	err := tx.QueryRowContext(ctx, q, gameID).Scan(
		&g.ID, &g.HostID, &g.DateTime, &g.MaxPlayers,
		&g.Address, &g.City, &g.State, &g.ZipCode,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// UpdateTx rewrites the host-editable fields of a game within a
// transaction. The caller is responsible for having locked the row
// and validated the capacity rule beforehand.
func (r *GameRepo) UpdateTx(ctx context.Context, tx *sql.Tx, g *model.Game) error {
	const q = `UPDATE games SET date_time = ?, max_players = ?, address = ?, city = ?, state = ?, zip_code = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, g.DateTime.UTC(), g.MaxPlayers, g.Address, g.City, g.State, g.ZipCode, g.ID)
	return err
}

// Detail returns a game together with its host's display name and all
// attendee rows joined with user names. Attendees are ordered by
// signup time then id so the waitlist portion already carries
// promotion order. It returns (nil, nil) when the game does not exist.
func (r *GameRepo) Detail(ctx context.Context, gameID uint64) (*model.GameDetail, error) {
	const q = `SELECT g.id, g.host_id, g.date_time, g.max_players, g.address, g.city, g.state, g.zip_code,
	                  g.created_at, g.updated_at, u.first_name, u.last_name
	           FROM games g
	           JOIN users u ON u.id = g.host_id
	           WHERE g.id = ?`
	var det model.GameDetail
	err := r.db.QueryRowContext(ctx, q, gameID).Scan(
		&det.Game.ID, &det.Game.HostID, &det.Game.DateTime, &det.Game.MaxPlayers,
		&det.Game.Address, &det.Game.City, &det.Game.State, &det.Game.ZipCode,
		&det.Game.CreatedAt, &det.Game.UpdatedAt, &det.HostFirst, &det.HostLast,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	det.Attendees, err = r.attendeesFor(ctx, []uint64{gameID})
	if err != nil {
		return nil, err
	}
	return &det, nil
}

// ListDetails returns all upcoming games (or past games when past is
// true) with host names and attendee rows. Upcoming games are ordered
// soonest first, past games newest first, matching what the games
// pages display.
func (r *GameRepo) ListDetails(ctx context.Context, past bool, now time.Time) ([]model.GameDetail, error) {
	q := `SELECT g.id, g.host_id, g.date_time, g.max_players, g.address, g.city, g.state, g.zip_code,
	             g.created_at, g.updated_at, u.first_name, u.last_name
	      FROM games g
	      JOIN users u ON u.id = g.host_id
	      WHERE g.date_time >= ?
	      ORDER BY g.date_time ASC`
	if past {
		q = strings.Replace(q, ">=", "<", 1)
		q = strings.Replace(q, "ASC", "DESC", 1)
	}
	rows, err := r.db.QueryContext(ctx, q, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]model.GameDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d model.GameDetail
		if err := rows.Scan(
			&d.Game.ID, &d.Game.HostID, &d.Game.DateTime, &d.Game.MaxPlayers,
			&d.Game.Address, &d.Game.City, &d.Game.State, &d.Game.ZipCode,
			&d.Game.CreatedAt, &d.Game.UpdatedAt, &d.HostFirst, &d.HostLast,
		); err != nil {
			return nil, err
		}
		d.Attendees = []model.AttendeeInfo{}
		index[d.Game.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	// Populate attendees for all games in a single query
	ids := make([]uint64, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.Game.ID)
	}
	infos, err := r.attendeesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		idx, ok := index[info.GameID]
		if !ok {
			continue
		}
		details[idx].Attendees = append(details[idx].Attendees, info)
	}
	return details, nil
}

// attendeesFor loads attendee rows joined with user names for the
// given game IDs, ordered by game, signup time, then id.
func (r *GameRepo) attendeesFor(ctx context.Context, gameIDs []uint64) ([]model.AttendeeInfo, error) {
	if len(gameIDs) == 0 {
		return []model.AttendeeInfo{}, nil
	}
	args := make([]interface{}, 0, len(gameIDs))
	placeholders := make([]string, 0, len(gameIDs))
	for _, id := range gameIDs {
		args = append(args, id)
		placeholders = append(placeholders, "?")
	}
	q := `SELECT a.id, a.game_id, a.user_id, a.waitlist, a.signed_up_at, u.first_name, u.last_name
	      FROM attendees a
	      JOIN users u ON u.id = a.user_id
	      WHERE a.game_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY a.game_id, a.signed_up_at, a.id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	infos := make([]model.AttendeeInfo, 0)
	for rows.Next() {
		var info model.AttendeeInfo
		if err := rows.Scan(&info.ID, &info.GameID, &info.UserID, &info.Waitlist, &info.SignedUpAt, &info.FirstName, &info.LastName); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return infos, nil
}
