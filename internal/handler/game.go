package handler

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pickupgames/backend/internal/model"
	"github.com/pickupgames/backend/internal/queue"
	"github.com/pickupgames/backend/internal/service"
)

// GameHandler serves game creation, listing and editing. Publish
// emits the promotion events a capacity raise can trigger and
// defaults to the RabbitMQ publisher; tests may swap it out.
type GameHandler struct {
	Svc     *service.Attendance
	Publish func(ctx context.Context, event queue.AttendanceEvent) error
}

func NewGameHandler(svc *service.Attendance) *GameHandler {
	if svc == nil {
		panic("nil service passed to NewGameHandler")
	}
	return &GameHandler{Svc: svc, Publish: queue.PublishAttendanceEvent}
}

// ----- DTOs -----

type gameReq struct {
	DateTime   string `json:"date_time"`
	MaxPlayers int    `json:"max_players"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	ZipCode    string `json:"zip_code"`
}

type gameResp struct {
	ID         uint64    `json:"id"`
	HostID     uint64    `json:"host_id"`
	DateTime   time.Time `json:"date_time"`
	MaxPlayers int       `json:"max_players"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	ZipCode    string    `json:"zip_code"`
	CreatedAt  time.Time `json:"created_at"`
}

var zipRe = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// validate normalizes the request and returns a service input plus a
// human-readable reason when any field is out of bounds.
func (r *gameReq) validate() (service.GameInput, string) {
	r.Address = strings.TrimSpace(r.Address)
	r.City = strings.TrimSpace(r.City)
	r.State = strings.TrimSpace(r.State)
	r.ZipCode = strings.TrimSpace(r.ZipCode)

	dt, err := time.Parse(time.RFC3339, r.DateTime)
	if err != nil {
		return service.GameInput{}, "date_time must be RFC3339"
	}
	if r.MaxPlayers < 2 || r.MaxPlayers > 12 {
		return service.GameInput{}, "max_players must be between 2 and 12"
	}
	if r.Address == "" || r.City == "" || r.State == "" {
		return service.GameInput{}, "address/city/state required"
	}
	if !zipRe.MatchString(r.ZipCode) {
		return service.GameInput{}, "zip_code must be a valid US zip"
	}
	return service.GameInput{
		DateTime:   dt,
		MaxPlayers: r.MaxPlayers,
		Address:    r.Address,
		City:       r.City,
		State:      r.State,
		ZipCode:    r.ZipCode,
	}, ""
}

func toGameResp(g model.Game) gameResp {
	return gameResp{
		ID:         g.ID,
		HostID:     g.HostID,
		DateTime:   g.DateTime,
		MaxPlayers: g.MaxPlayers,
		Address:    g.Address,
		City:       g.City,
		State:      g.State,
		ZipCode:    g.ZipCode,
		CreatedAt:  g.CreatedAt,
	}
}

// Create registers a new game hosted by the caller.
func (h *GameHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req gameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, reason := req.validate()
	if reason != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": reason})
	}
	if !in.DateTime.After(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_time must be in the future"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	g, err := h.Svc.CreateGame(ctx, uid, in)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create game failed"})
	}
	return c.JSON(http.StatusCreated, toGameResp(g))
}

// List returns viewer-relative projections of upcoming games, or past
// games when ?past=true.
func (h *GameHandler) List(c echo.Context) error {
	past := strings.EqualFold(c.QueryParam("past"), "true")

	ctx, cancel := reqCtx(c)
	defer cancel()

	views, err := h.Svc.ListGameViews(ctx, past, viewerID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list games failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"games": views})
}

// Get returns the viewer-relative projection of one game.
func (h *GameHandler) Get(c echo.Context) error {
	gameID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	view, err := h.Svc.GameView(ctx, gameID, viewerID(c))
	if err != nil {
		return attendanceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Update rewrites a game's fields on behalf of its host.
func (h *GameHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game id"})
	}
	var req gameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, reason := req.validate()
	if reason != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": reason})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Svc.UpdateGame(ctx, gameID, uid, in)
	if err != nil {
		return attendanceError(c, err)
	}

	// A capacity raise may have promoted waitlisted attendees.
	promoted := make([]attendeePart, 0, len(res.Promoted))
	for _, p := range res.Promoted {
		_ = h.Publish(c.Request().Context(), rosterEvent(queue.KindPromoted, res.Game, p))
		promoted = append(promoted, toAttendeePart(p))
	}

	resp := echo.Map{"game": toGameResp(res.Game)}
	if len(promoted) > 0 {
		resp["promoted"] = promoted
	}
	return c.JSON(http.StatusOK, resp)
}
