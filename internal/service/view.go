package service

import (
	"sort"
	"time"

	"github.com/pickupgames/backend/internal/model"
)

// PersonView is the minimal user representation exposed on game
// views: display name only, never credentials.
type PersonView struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AttendeeView is one entry of a game's attendee or waitlist list.
type AttendeeView struct {
	ID        uint64 `json:"id"`
	UserID    uint64 `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// GameView is the caller-relative projection of a game. The three
// viewer flags are false for unauthenticated viewers. The waitlist is
// ordered by signup time (ties by id), which is exactly the promotion
// order, so consumers can show who is next without surprises.
type GameView struct {
	ID             uint64         `json:"id"`
	HostID         uint64         `json:"host_id"`
	Host           PersonView     `json:"host"`
	DateTime       time.Time      `json:"date_time"`
	MaxPlayers     int            `json:"max_players"`
	Address        string         `json:"address"`
	City           string         `json:"city"`
	State          string         `json:"state"`
	ZipCode        string         `json:"zip_code"`
	AttendeesCount int            `json:"attendees_count"`
	OpenSpots      int            `json:"open_spots"`
	WaitlistCount  int            `json:"waitlist_count"`
	IsAttending    bool           `json:"is_attending"`
	IsOnWaitlist   bool           `json:"is_on_waitlist"`
	IsHost         bool           `json:"is_host"`
	Attendees      []AttendeeView `json:"attendees"`
	Waitlist       []AttendeeView `json:"waitlist"`
}

// BuildGameView derives the view of a game from its raw rows. It has
// no failure modes: malformed input is impossible while the store
// invariants hold. viewerID zero means no viewer.
func BuildGameView(det *model.GameDetail, viewerID uint64) GameView {
	v := GameView{
		ID:         det.Game.ID,
		HostID:     det.Game.HostID,
		Host:       PersonView{ID: det.Game.HostID, FirstName: det.HostFirst, LastName: det.HostLast},
		DateTime:   det.Game.DateTime,
		MaxPlayers: det.Game.MaxPlayers,
		Address:    det.Game.Address,
		City:       det.Game.City,
		State:      det.Game.State,
		ZipCode:    det.Game.ZipCode,
		Attendees:  []AttendeeView{},
		Waitlist:   []AttendeeView{},
	}
	var waitlisted []model.AttendeeInfo
	for _, a := range det.Attendees {
		if a.Waitlist {
			waitlisted = append(waitlisted, a)
			if viewerID != 0 && a.UserID == viewerID {
				v.IsOnWaitlist = true
			}
		} else {
			v.Attendees = append(v.Attendees, AttendeeView{ID: a.ID, UserID: a.UserID, FirstName: a.FirstName, LastName: a.LastName})
			if viewerID != 0 && a.UserID == viewerID {
				v.IsAttending = true
			}
		}
	}
	// Stores return attendees ordered by signup time already; sorting
	// here keeps the promotion-order guarantee independent of them.
	sort.SliceStable(waitlisted, func(i, j int) bool {
		if !waitlisted[i].SignedUpAt.Equal(waitlisted[j].SignedUpAt) {
			return waitlisted[i].SignedUpAt.Before(waitlisted[j].SignedUpAt)
		}
		return waitlisted[i].ID < waitlisted[j].ID
	})
	for _, a := range waitlisted {
		v.Waitlist = append(v.Waitlist, AttendeeView{ID: a.ID, UserID: a.UserID, FirstName: a.FirstName, LastName: a.LastName})
	}
	v.AttendeesCount = len(v.Attendees)
	v.WaitlistCount = len(v.Waitlist)
	v.OpenSpots = det.Game.MaxPlayers - v.AttendeesCount
	if v.OpenSpots < 0 {
		v.OpenSpots = 0
	}
	v.IsHost = viewerID != 0 && det.Game.HostID == viewerID
	return v
}
