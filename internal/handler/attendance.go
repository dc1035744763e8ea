package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pickupgames/backend/internal/model"
	"github.com/pickupgames/backend/internal/queue"
	"github.com/pickupgames/backend/internal/service"
)

// AttendanceHandler serves join/leave/remove for a game's roster.
// Publish emits roster-change events and defaults to the RabbitMQ
// publisher; tests may swap it out.
type AttendanceHandler struct {
	Svc     *service.Attendance
	Publish func(ctx context.Context, event queue.AttendanceEvent) error
}

func NewAttendanceHandler(svc *service.Attendance) *AttendanceHandler {
	if svc == nil {
		panic("nil service passed to NewAttendanceHandler")
	}
	return &AttendanceHandler{Svc: svc, Publish: queue.PublishAttendanceEvent}
}

type removeReq struct {
	AttendeeID uint64 `json:"attendee_id"`
}

type attendeePart struct {
	ID         uint64    `json:"id"`
	GameID     uint64    `json:"game_id"`
	UserID     uint64    `json:"user_id"`
	OnWaitlist bool      `json:"on_waitlist"`
	SignedUpAt time.Time `json:"signed_up_at"`
}

func toAttendeePart(a model.Attendee) attendeePart {
	return attendeePart{
		ID:         a.ID,
		GameID:     a.GameID,
		UserID:     a.UserID,
		OnWaitlist: a.Waitlist,
		SignedUpAt: a.SignedUpAt,
	}
}

// attendanceError maps service sentinels onto HTTP responses. Shared
// with the game handler, which hits the same not-found/not-host cases.
func attendanceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
	case errors.Is(err, service.ErrAttendeeNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "attendee not found"})
	case errors.Is(err, service.ErrNotHost):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the host may do this"})
	case errors.Is(err, service.ErrAlreadyJoined):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "already signed up for this game"})
	case errors.Is(err, service.ErrNotJoined):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "not signed up for this game"})
	case errors.Is(err, service.ErrJoinWindowClosed):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sign-ups are closed for this game"})
	case errors.Is(err, service.ErrCapacityBelowConfirmed):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_players is below the confirmed count"})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "too much contention, try again"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// Join signs the caller up for a game, waitlisting when full.
func (h *AttendanceHandler) Join(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Svc.Join(ctx, gameID, uid)
	if err != nil {
		return attendanceError(c, err)
	}

	h.emit(c, queue.KindJoined, res.Game, res.Attendee)

	return c.JSON(http.StatusCreated, echo.Map{
		"attendee":    toAttendeePart(res.Attendee),
		"on_waitlist": res.OnWaitlist,
	})
}

// Leave removes the caller's own signup.
func (h *AttendanceHandler) Leave(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Svc.Leave(ctx, gameID, uid)
	if err != nil {
		return attendanceError(c, err)
	}

	h.emit(c, queue.KindLeft, res.Game, res.Removed)
	if res.Promoted != nil {
		h.emit(c, queue.KindPromoted, res.Game, *res.Promoted)
	}

	resp := echo.Map{"removed": toAttendeePart(res.Removed)}
	if res.Promoted != nil {
		resp["promoted"] = toAttendeePart(*res.Promoted)
	}
	return c.JSON(http.StatusOK, resp)
}

// RemoveAttendee lets the host drop any attendee from the roster.
func (h *AttendanceHandler) RemoveAttendee(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game id"})
	}
	var req removeReq
	if err := c.Bind(&req); err != nil || req.AttendeeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "attendee_id required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Svc.RemoveAttendee(ctx, gameID, uid, req.AttendeeID)
	if err != nil {
		return attendanceError(c, err)
	}

	h.emit(c, queue.KindRemoved, res.Game, res.Removed)
	if res.Promoted != nil {
		h.emit(c, queue.KindPromoted, res.Game, *res.Promoted)
	}

	resp := echo.Map{"removed": toAttendeePart(res.Removed)}
	if res.Promoted != nil {
		resp["promoted"] = toAttendeePart(*res.Promoted)
	}
	return c.JSON(http.StatusOK, resp)
}

// emit publishes a roster-change event. Best-effort: the response
// does not depend on the broker.
func (h *AttendanceHandler) emit(c echo.Context, kind string, g model.Game, a model.Attendee) {
	_ = h.Publish(c.Request().Context(), rosterEvent(kind, g, a))
}

func rosterEvent(kind string, g model.Game, a model.Attendee) queue.AttendanceEvent {
	return queue.AttendanceEvent{
		Kind:       kind,
		GameID:     g.ID,
		AttendeeID: a.ID,
		UserID:     a.UserID,
		OnWaitlist: a.Waitlist,
		GameTime:   g.DateTime.UTC().Format(time.RFC3339),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
