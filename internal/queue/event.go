// Package queue defines message payloads exchanged over the message
// broker and the publisher/consumer endpoints for them.
package queue

// Event kinds published to the attendance.events queue.
const (
	KindJoined   = "joined"
	KindLeft     = "left"
	KindRemoved  = "removed"
	KindPromoted = "promoted"
)

// AttendanceEvent is published whenever a game's roster changes. It
// contains enough information for downstream consumers to log, notify
// or trigger analytics without querying the primary database.
// Promotion events are the ones notification consumers care about
// most: they tell a waitlisted user they are now confirmed.
type AttendanceEvent struct {
	Kind       string `json:"kind"`
	GameID     uint64 `json:"game_id"`
	AttendeeID uint64 `json:"attendee_id"`
	UserID     uint64 `json:"user_id"`
	OnWaitlist bool   `json:"on_waitlist"`
	GameTime   string `json:"game_time"`
	OccurredAt string `json:"occurred_at"`
}
