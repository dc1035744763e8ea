package model

import "time"

// Game represents a scheduled pickup game session as stored in the
// `games` table. The host owns the game: only the host may edit its
// fields or remove attendees. Location fields are opaque strings and
// are not validated beyond basic shape checks at the transport layer.
//
// Fields:
//  ID         – primary key identifier.
//  HostID     – user who created the game; immutable after creation.
//  DateTime   – when the game starts (UTC).
//  MaxPlayers – confirmed-attendee capacity (2..12).
//  Address    – street address of the venue.
//  City       – city of the venue.
//  State      – state of the venue.
//  ZipCode    – postal code of the venue.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Game struct {
	ID         uint64    // games.id
	HostID     uint64    // games.host_id
	DateTime   time.Time // games.date_time
	MaxPlayers int       // games.max_players
	Address    string    // games.address
	City       string    // games.city
	State      string    // games.state
	ZipCode    string    // games.zip_code
	CreatedAt  time.Time // games.created_at
	UpdatedAt  time.Time // games.updated_at
}

// Attendee links a user to a game they signed up for. A user has at
// most one attendee row per game. Waitlist is the only mutable field
// and only ever flips waitlisted -> confirmed (promotion); SignedUpAt
// is assigned once at creation and drives FIFO promotion order.
//
// Fields:
//  ID         – primary key identifier.
//  GameID     – game the signup belongs to.
//  UserID     – user who signed up.
//  Waitlist   – true while the signup is waitlisted, false once confirmed.
//  SignedUpAt – when the signup was created (UTC); never changes.
type Attendee struct {
	ID         uint64    // attendees.id
	GameID     uint64    // attendees.game_id
	UserID     uint64    // attendees.user_id
	Waitlist   bool      // attendees.waitlist
	SignedUpAt time.Time // attendees.signed_up_at
}

// AttendeeInfo is an attendee row joined with the minimal display
// fields of its user. Only names are exposed; credentials never leave
// the users table.
type AttendeeInfo struct {
	Attendee
	FirstName string // users.first_name
	LastName  string // users.last_name
}

// GameDetail bundles a game with its host's display name and the full
// set of attendee rows. It is the raw input of the view projector.
type GameDetail struct {
	Game      Game
	HostFirst string
	HostLast  string
	Attendees []AttendeeInfo
}
