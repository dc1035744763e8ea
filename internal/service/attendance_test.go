package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pickupgames/backend/internal/model"
)

// memStore is an in-memory Store used to exercise the service logic
// without MySQL. WithGameTx holds one mutex for the whole transaction
// and restores a snapshot on error, which gives the same serialization
// and rollback guarantees the real store provides per game.
type memStore struct {
	mu        sync.Mutex
	games     map[uint64]*model.Game
	attendees map[uint64]*model.Attendee
	names     map[uint64][2]string
	nextID    uint64
}

func newMemStore() *memStore {
	return &memStore{
		games:     map[uint64]*model.Game{},
		attendees: map[uint64]*model.Attendee{},
		names:     map[uint64][2]string{},
	}
}

func (s *memStore) addGame(g model.Game) *model.Game {
	s.nextID++
	g.ID = s.nextID
	s.games[g.ID] = &g
	return &g
}

func (s *memStore) addAttendee(a model.Attendee) *model.Attendee {
	s.nextID++
	a.ID = s.nextID
	s.attendees[a.ID] = &a
	return &a
}

func (s *memStore) WithGameTx(ctx context.Context, gameID uint64, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapGames := map[uint64]*model.Game{}
	for id, g := range s.games {
		c := *g
		snapGames[id] = &c
	}
	snapAttendees := map[uint64]*model.Attendee{}
	for id, a := range s.attendees {
		c := *a
		snapAttendees[id] = &c
	}
	snapNext := s.nextID

	if err := fn(&memTx{s: s}); err != nil {
		s.games = snapGames
		s.attendees = snapAttendees
		s.nextID = snapNext
		return err
	}
	return nil
}

func (s *memStore) CreateGame(ctx context.Context, g *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	g.ID = s.nextID
	c := *g
	s.games[g.ID] = &c
	return nil
}

func (s *memStore) GameDetail(ctx context.Context, gameID uint64) (*model.GameDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return nil, nil
	}
	det := s.detailLocked(g)
	return &det, nil
}

func (s *memStore) ListGames(ctx context.Context, past bool, now time.Time) ([]model.GameDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.GameDetail
	for _, g := range s.games {
		if past == g.DateTime.Before(now) {
			out = append(out, s.detailLocked(g))
		}
	}
	return out, nil
}

func (s *memStore) detailLocked(g *model.Game) model.GameDetail {
	det := model.GameDetail{Game: *g}
	if n, ok := s.names[g.HostID]; ok {
		det.HostFirst, det.HostLast = n[0], n[1]
	}
	for _, a := range s.attendees {
		if a.GameID != g.ID {
			continue
		}
		info := model.AttendeeInfo{Attendee: *a}
		if n, ok := s.names[a.UserID]; ok {
			info.FirstName, info.LastName = n[0], n[1]
		}
		det.Attendees = append(det.Attendees, info)
	}
	return det
}

type memTx struct{ s *memStore }

func (t *memTx) GameForUpdate(ctx context.Context, gameID uint64) (*model.Game, error) {
	g, ok := t.s.games[gameID]
	if !ok {
		return nil, nil
	}
	c := *g
	return &c, nil
}

func (t *memTx) CountConfirmed(ctx context.Context, gameID uint64) (int, error) {
	n := 0
	for _, a := range t.s.attendees {
		if a.GameID == gameID && !a.Waitlist {
			n++
		}
	}
	return n, nil
}

func (t *memTx) AttendeeByUser(ctx context.Context, gameID, userID uint64) (*model.Attendee, error) {
	for _, a := range t.s.attendees {
		if a.GameID == gameID && a.UserID == userID {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

func (t *memTx) AttendeeByID(ctx context.Context, attendeeID uint64) (*model.Attendee, error) {
	a, ok := t.s.attendees[attendeeID]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (t *memTx) InsertAttendee(ctx context.Context, a *model.Attendee) error {
	t.s.nextID++
	a.ID = t.s.nextID
	c := *a
	t.s.attendees[a.ID] = &c
	return nil
}

func (t *memTx) DeleteAttendee(ctx context.Context, attendeeID uint64) error {
	delete(t.s.attendees, attendeeID)
	return nil
}

func (t *memTx) EarliestWaitlisted(ctx context.Context, gameID uint64) (*model.Attendee, error) {
	var best *model.Attendee
	for _, a := range t.s.attendees {
		if a.GameID != gameID || !a.Waitlist {
			continue
		}
		if best == nil ||
			a.SignedUpAt.Before(best.SignedUpAt) ||
			(a.SignedUpAt.Equal(best.SignedUpAt) && a.ID < best.ID) {
			best = a
		}
	}
	if best == nil {
		return nil, nil
	}
	c := *best
	return &c, nil
}

func (t *memTx) MarkConfirmed(ctx context.Context, attendeeID uint64) error {
	if a, ok := t.s.attendees[attendeeID]; ok {
		a.Waitlist = false
	}
	return nil
}

func (t *memTx) UpdateGame(ctx context.Context, g *model.Game) error {
	c := *g
	t.s.games[g.ID] = &c
	return nil
}

// fixedClock returns a Clock pinned to t.
func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

var baseTime = time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

// newGame seeds a game one hour ahead of baseTime.
func newGame(s *memStore, hostID uint64, maxPlayers int) *model.Game {
	return s.addGame(model.Game{
		HostID:     hostID,
		DateTime:   baseTime.Add(time.Hour),
		MaxPlayers: maxPlayers,
		Address:    "123 Court St",
		City:       "Brooklyn",
		State:      "NY",
		ZipCode:    "11201",
	})
}

func TestJoinConfirmsWhileOpenSpots(t *testing.T) {
	s := newMemStore()
	g := newGame(s, 1, 2)
	svc := NewAttendance(s, fixedClock(baseTime))

	res, err := svc.Join(context.Background(), g.ID, 42)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if res.OnWaitlist || res.Attendee.Waitlist {
		t.Fatalf("expected confirmed signup, got waitlisted")
	}
	if res.Attendee.UserID != 42 || res.Attendee.GameID != g.ID {
		t.Fatalf("unexpected attendee row: %+v", res.Attendee)
	}
}

func TestJoinWaitlistsAtCapacity(t *testing.T) {
	s := newMemStore()
	g := newGame(s, 1, 2)
	s.addAttendee(model.Attendee{GameID: g.ID, UserID: 10, SignedUpAt: baseTime})
	s.addAttendee(model.Attendee{GameID: g.ID, UserID: 11, SignedUpAt: baseTime})
	svc := NewAttendance(s, fixedClock(baseTime))

	res, err := svc.Join(context.Background(), g.ID, 42)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !res.OnWaitlist {
		t.Fatalf("expected waitlisted signup at capacity")
	}
}

func TestJoinDuplicate(t *testing.T) {
	s := newMemStore()
	g := newGame(s, 1, 4)
	svc := NewAttendance(s, fixedClock(baseTime))

	if _, err := svc.Join(context.Background(), g.ID, 42); err != nil {
		t.Fatalf("first Join: %v", err)
	}
	if _, err := svc.Join(context.Background(), g.ID, 42); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}
	// Holding a waitlist spot blocks a second signup just the same.
	full := newGame(s, 1, 2)
	s.addAttendee(model.Attendee{GameID: full.ID, UserID: 10, SignedUpAt: baseTime})
	s.addAttendee(model.Attendee{GameID: full.ID, UserID: 11, SignedUpAt: baseTime})
	if _, err := svc.Join(context.Background(), full.ID, 42); err != nil {
		t.Fatalf("waitlist Join: %v", err)
	}
	if _, err := svc.Join(context.Background(), full.ID, 42); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined from waitlist, got %v", err)
	}
}

func TestJoinWindow(t *testing.T) {
	cases := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{"well before cutoff", baseTime, nil},
		{"just inside window", baseTime.Add(55*time.Minute - time.Second), nil},
		{"exactly at cutoff", baseTime.Add(55 * time.Minute), ErrJoinWindowClosed},
		{"inside cutoff", baseTime.Add(58 * time.Minute), ErrJoinWindowClosed},
		{"after game time", baseTime.Add(2 * time.Hour), ErrJoinWindowClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newMemStore()
			g := newGame(s, 1, 4) // starts baseTime+1h, cutoff at +55m
			svc := NewAttendance(s, fixedClock(tc.now))

			_, err := svc.Join(context.Background(), g.ID, 42)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestJoinGameNotFound(t *testing.T) {
	svc := NewAttendance(newMemStore(), fixedClock(baseTime))
	if _, err := svc.Join(context.Background(), 999, 42); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestLeavePromotesEarliestWaitlisted(t *testing.T) {
	s := newMemStore()
	g := newGame(s, 1, 2)
	confirmed := s.addAttendee(model.Attendee{GameID: g.ID, UserID: 10, SignedUpAt: baseTime})
	s.addAttendee(model.Attendee{GameID: g.ID, UserID: 11, SignedUpAt: baseTime.Add(time.Minute)})
	// Two waitlisted with the same signup time; the lower id wins.
	first := s.addAttendee(model.Attendee{GameID: g.ID, UserID: 12, Waitlist: true, SignedUpAt: baseTime.Add(2 * time.Minute)})
	s.addAttendee(model.Attendee{GameID: g.ID, UserID: 13, Waitlist: true, SignedUpAt: baseTime.Add(2 * time.Minute)})
	svc := NewAttendance(s, fixedClock(baseTime))

	res, err := svc.Leave(context.Background(), g.ID, 10)
	if err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if res.Removed.ID != confirmed.ID {
		t.Fatalf("removed wrong row: %+v", res.Removed)
	}
	if res.Promoted == nil || res.Promoted.ID != first.ID {
		t.Fatalf("expected promotion of attendee %d, got %+v", first.ID, res.Promoted)
	}
	if res.Promoted.Waitlist {
		t.Fatalf("promoted attendee still flagged waitlisted")
	}
	if a := s.attendees[first.ID]; a.Waitlist {
		t.Fatalf("promotion not persisted")
	}
}

func TestLeaveFromWaitlistNoPromotion(t *testing.T) {
	s := newMemStore()
	g := newGame(s, 1, 1)
	s.addAttendee(model.Attendee{GameID: g.ID, UserID: 10, SignedUpAt: baseTime})
	wl := s.addAttendee(model.Attendee{GameID: g.ID, UserID: 11, Waitlist: true, SignedUpAt: baseTime.Add(time.Minute)})
	s.addAttendee(model.Attendee{GameID: g.ID, UserID: 12, Waitlist: true, SignedUpAt: baseTime.Add(2 * time.Minute)})
	svc := NewAttendance(s, fixedClock(baseTime))

	res, err := svc.Leave(context.Background(), g.ID, 11)
	if err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if res.Removed.ID != wl.ID {
		t.Fatalf("removed wrong row: %+v", res.Removed)
	}
	if res.Promoted != nil {
		t.Fatalf("waitlisted leave must not promote, got %+v", res.Promoted)
	}
}

func TestLeaveNotJoined(t *testing.T) {
	s := newMemStore()
	g := newGame(s, 1, 4)
	svc := NewAttendance(s, fixedClock(baseTime))

	if _, err := svc.Leave(context.Background(), g.ID, 42); !errors.Is(err, ErrNotJoined) {
		t.Fatalf("expected ErrNotJoined, got %v", err)
	}
	// A second leave after a successful one behaves the same.
	if _, err := svc.Join(context.Background(), g.ID, 42); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := svc.Leave(context.Background(), g.ID, 42); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if _, err := svc.Leave(context.Background(), g.ID, 42); !errors.Is(err, ErrNotJoined) {
		t.Fatalf("expected ErrNotJoined on repeat leave, got %v", err)
	}
}

func TestRemoveAttendeeByHost(t *testing.T) {
	s := newMemStore()
	g := newGame(s, 1, 1)
	target := s.addAttendee(model.Attendee{GameID: g.ID, UserID: 10, SignedUpAt: baseTime})
	wl := s.addAttendee(model.Attendee{GameID: g.ID, UserID: 11, Waitlist: true, SignedUpAt: baseTime.Add(time.Minute)})
	svc := NewAttendance(s, fixedClock(baseTime))

	res, err := svc.RemoveAttendee(context.Background(), g.ID, 1, target.ID)
	if err != nil {
		t.Fatalf("RemoveAttendee: %v", err)
	}
	if res.Removed.ID != target.ID {
		t.Fatalf("removed wrong row: %+v", res.Removed)
	}
	if res.Promoted == nil || res.Promoted.ID != wl.ID {
		t.Fatalf("expected promotion of %d, got %+v", wl.ID, res.Promoted)
	}
}

func TestRemoveAttendeeNotHost(t *testing.T) {
	s := newMemStore()
	g := newGame(s, 1, 4)
	target := s.addAttendee(model.Attendee{GameID: g.ID, UserID: 10, SignedUpAt: baseTime})
	svc := NewAttendance(s, fixedClock(baseTime))

	if _, err := svc.RemoveAttendee(context.Background(), g.ID, 99, target.ID); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if _, ok := s.attendees[target.ID]; !ok {
		t.Fatalf("attendee must survive a rejected removal")
	}
}

func TestRemoveAttendeeWrongGame(t *testing.T) {
	s := newMemStore()
	g1 := newGame(s, 1, 4)
	g2 := newGame(s, 1, 4)
	other := s.addAttendee(model.Attendee{GameID: g2.ID, UserID: 10, SignedUpAt: baseTime})
	svc := NewAttendance(s, fixedClock(baseTime))

	// An attendee id from another game must not be removable through g1.
	if _, err := svc.RemoveAttendee(context.Background(), g1.ID, 1, other.ID); !errors.Is(err, ErrAttendeeNotFound) {
		t.Fatalf("expected ErrAttendeeNotFound, got %v", err)
	}
	if _, err := svc.RemoveAttendee(context.Background(), g1.ID, 1, 9999); !errors.Is(err, ErrAttendeeNotFound) {
		t.Fatalf("expected ErrAttendeeNotFound for unknown id, got %v", err)
	}
}

func TestUpdateGameCapacityBelowConfirmed(t *testing.T) {
	s := newMemStore()
	g := newGame(s, 1, 4)
	s.addAttendee(model.Attendee{GameID: g.ID, UserID: 10, SignedUpAt: baseTime})
	s.addAttendee(model.Attendee{GameID: g.ID, UserID: 11, SignedUpAt: baseTime})
	s.addAttendee(model.Attendee{GameID: g.ID, UserID: 12, SignedUpAt: baseTime})
	svc := NewAttendance(s, fixedClock(baseTime))

	in := GameInput{
		DateTime:   g.DateTime,
		MaxPlayers: 2,
		Address:    g.Address,
		City:       g.City,
		State:      g.State,
		ZipCode:    g.ZipCode,
	}
	if _, err := svc.UpdateGame(context.Background(), g.ID, 1, in); !errors.Is(err, ErrCapacityBelowConfirmed) {
		t.Fatalf("expected ErrCapacityBelowConfirmed, got %v", err)
	}

	in.MaxPlayers = 3
	out, err := svc.UpdateGame(context.Background(), g.ID, 1, in)
	if err != nil {
		t.Fatalf("UpdateGame: %v", err)
	}
	if out.Game.MaxPlayers != 3 {
		t.Fatalf("capacity not updated: %+v", out.Game)
	}
	if _, err := svc.UpdateGame(context.Background(), g.ID, 99, in); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
}

// TestUpdateGameRaisePromotesWaitlist covers the host raising
// capacity while the waitlist is non-empty: every new spot must be
// filled from the waitlist in FIFO order within the same update, so a
// later joiner can never slip past an earlier-waitlisted attendee.
func TestUpdateGameRaisePromotesWaitlist(t *testing.T) {
	s := newMemStore()
	g := newGame(s, 1, 1)
	svc := NewAttendance(s, fixedClock(baseTime))
	ctx := context.Background()

	if _, err := svc.Join(ctx, g.ID, 100); err != nil {
		t.Fatalf("Join A: %v", err)
	}
	b, err := svc.Join(ctx, g.ID, 101)
	if err != nil || !b.OnWaitlist {
		t.Fatalf("Join B: err=%v onWaitlist=%v", err, b.OnWaitlist)
	}

	in := GameInput{
		DateTime:   g.DateTime,
		MaxPlayers: 2,
		Address:    g.Address,
		City:       g.City,
		State:      g.State,
		ZipCode:    g.ZipCode,
	}
	res, err := svc.UpdateGame(ctx, g.ID, 1, in)
	if err != nil {
		t.Fatalf("UpdateGame: %v", err)
	}
	if len(res.Promoted) != 1 || res.Promoted[0].UserID != 101 {
		t.Fatalf("expected B promoted by the raise, got %+v", res.Promoted)
	}
	if res.Promoted[0].Waitlist {
		t.Fatalf("promoted attendee still flagged waitlisted")
	}
	if a := s.attendees[b.Attendee.ID]; a.Waitlist {
		t.Fatalf("promotion not persisted")
	}

	// The game is full again: a later joiner lands on the waitlist
	// instead of overtaking anyone.
	cRes, err := svc.Join(ctx, g.ID, 102)
	if err != nil {
		t.Fatalf("Join C: %v", err)
	}
	if !cRes.OnWaitlist {
		t.Fatalf("later joiner confirmed past a drained waitlist slot")
	}

	// Raising beyond the waitlist promotes everyone left, in order.
	in.MaxPlayers = 5
	res, err = svc.UpdateGame(ctx, g.ID, 1, in)
	if err != nil {
		t.Fatalf("UpdateGame raise to 5: %v", err)
	}
	if len(res.Promoted) != 1 || res.Promoted[0].UserID != 102 {
		t.Fatalf("expected C promoted, got %+v", res.Promoted)
	}
	for _, a := range s.attendees {
		if a.GameID == g.ID && a.Waitlist {
			t.Fatalf("waitlisted attendee left behind open spots: %+v", a)
		}
	}
}

// TestConcurrentJoinLastSpot races many callers for a single open
// confirmed spot. Exactly one may win it.
func TestConcurrentJoinLastSpot(t *testing.T) {
	s := newMemStore()
	g := newGame(s, 1, 3)
	s.addAttendee(model.Attendee{GameID: g.ID, UserID: 10, SignedUpAt: baseTime})
	s.addAttendee(model.Attendee{GameID: g.ID, UserID: 11, SignedUpAt: baseTime})
	svc := NewAttendance(s, fixedClock(baseTime))

	const racers = 16
	var wg sync.WaitGroup
	results := make([]JoinResult, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Join(context.Background(), g.ID, uint64(100+i))
			if err != nil {
				t.Errorf("Join %d: %v", i, err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	confirmed := 0
	for _, res := range results {
		if !res.OnWaitlist {
			confirmed++
		}
	}
	if confirmed != 1 {
		t.Fatalf("want exactly 1 racer confirmed, got %d", confirmed)
	}
	total := 0
	for _, a := range s.attendees {
		if a.GameID == g.ID && !a.Waitlist {
			total++
		}
	}
	if total != g.MaxPlayers {
		t.Fatalf("confirmed count %d exceeds capacity %d", total, g.MaxPlayers)
	}
}

// TestLifecycle walks a full roster story: fill the game, overflow
// onto the waitlist, free a spot and watch the promotion land in the
// projected view.
func TestLifecycle(t *testing.T) {
	s := newMemStore()
	s.names[1] = [2]string{"Host", "User"}
	g := newGame(s, 1, 2)
	svc := NewAttendance(s, fixedClock(baseTime))
	ctx := context.Background()

	a, _ := svc.Join(ctx, g.ID, 100)
	b, _ := svc.Join(ctx, g.ID, 101)
	cRes, _ := svc.Join(ctx, g.ID, 102)
	if a.OnWaitlist || b.OnWaitlist || !cRes.OnWaitlist {
		t.Fatalf("fill: a=%v b=%v c=%v", a.OnWaitlist, b.OnWaitlist, cRes.OnWaitlist)
	}

	v, err := svc.GameView(ctx, g.ID, 0)
	if err != nil {
		t.Fatalf("GameView: %v", err)
	}
	if v.AttendeesCount != 2 || v.WaitlistCount != 1 || v.OpenSpots != 0 {
		t.Fatalf("full view: %+v", v)
	}

	res, err := svc.Leave(ctx, g.ID, 100)
	if err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if res.Promoted == nil || res.Promoted.UserID != 102 {
		t.Fatalf("expected user 102 promoted, got %+v", res.Promoted)
	}

	v, _ = svc.GameView(ctx, g.ID, 0)
	if v.AttendeesCount != 2 || v.WaitlistCount != 0 {
		t.Fatalf("post-promotion view: %+v", v)
	}
}

// TestInvariantsUnderRandomOps drives a pseudo-random op sequence and
// checks after every step that the confirmed count never exceeds
// capacity and that no one waits while a confirmed spot is open.
func TestInvariantsUnderRandomOps(t *testing.T) {
	s := newMemStore()
	g := newGame(s, 1, 3)
	svc := NewAttendance(s, fixedClock(baseTime))
	ctx := context.Background()

	checkInvariants := func(step int) {
		t.Helper()
		capacity := s.games[g.ID].MaxPlayers
		confirmed, waitlisted := 0, 0
		for _, a := range s.attendees {
			if a.GameID != g.ID {
				continue
			}
			if a.Waitlist {
				waitlisted++
			} else {
				confirmed++
			}
		}
		if confirmed > capacity {
			t.Fatalf("step %d: confirmed %d exceeds capacity %d", step, confirmed, capacity)
		}
		if waitlisted > 0 && confirmed < capacity {
			t.Fatalf("step %d: %d waitlisted while %d spots open", step, waitlisted, capacity-confirmed)
		}
	}

	// Deterministic pseudo-random walk; userID cycles over a small pool.
	seed := uint64(12345)
	next := func() uint64 {
		seed = seed*6364136223846793005 + 1442695040888963407
		return seed >> 33
	}
	for step := 0; step < 500; step++ {
		user := 100 + next()%8
		switch next() % 4 {
		case 0:
			if _, err := svc.Join(ctx, g.ID, user); err != nil && !errors.Is(err, ErrAlreadyJoined) {
				t.Fatalf("step %d Join: %v", step, err)
			}
		case 1:
			if _, err := svc.Leave(ctx, g.ID, user); err != nil && !errors.Is(err, ErrNotJoined) {
				t.Fatalf("step %d Leave: %v", step, err)
			}
		case 2:
			a, err := (&memTx{s: s}).AttendeeByUser(ctx, g.ID, user)
			if err != nil {
				t.Fatalf("step %d lookup: %v", step, err)
			}
			if a == nil {
				continue
			}
			if _, err := svc.RemoveAttendee(ctx, g.ID, 1, a.ID); err != nil && !errors.Is(err, ErrAttendeeNotFound) {
				t.Fatalf("step %d RemoveAttendee: %v", step, err)
			}
		case 3:
			in := GameInput{
				DateTime:   g.DateTime,
				MaxPlayers: int(1 + next()%5),
				Address:    g.Address,
				City:       g.City,
				State:      g.State,
				ZipCode:    g.ZipCode,
			}
			if _, err := svc.UpdateGame(ctx, g.ID, 1, in); err != nil && !errors.Is(err, ErrCapacityBelowConfirmed) {
				t.Fatalf("step %d UpdateGame: %v", step, err)
			}
		}
		checkInvariants(step)
	}
}

// flakyStore fails WithGameTx with a serialization error a fixed
// number of times before delegating.
type flakyStore struct {
	*memStore
	failures int
	calls    int
}

func (s *flakyStore) WithGameTx(ctx context.Context, gameID uint64, fn func(tx Tx) error) error {
	s.calls++
	if s.calls <= s.failures {
		return ErrSerialization
	}
	return s.memStore.WithGameTx(ctx, gameID, fn)
}

func TestRetryOnSerializationFailure(t *testing.T) {
	mem := newMemStore()
	g := newGame(mem, 1, 4)

	s := &flakyStore{memStore: mem, failures: 2}
	svc := NewAttendance(s, fixedClock(baseTime))
	res, err := svc.Join(context.Background(), g.ID, 42)
	if err != nil {
		t.Fatalf("Join after retries: %v", err)
	}
	if res.OnWaitlist {
		t.Fatalf("expected confirmed signup")
	}
	if s.calls != 3 {
		t.Fatalf("want 3 attempts, got %d", s.calls)
	}
}

func TestRetryExhaustionYieldsConflict(t *testing.T) {
	mem := newMemStore()
	g := newGame(mem, 1, 4)

	s := &flakyStore{memStore: mem, failures: 1000}
	svc := NewAttendance(s, fixedClock(baseTime))
	if _, err := svc.Join(context.Background(), g.ID, 42); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if s.calls != 3 {
		t.Fatalf("want 3 attempts before giving up, got %d", s.calls)
	}
}
