// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/pickupgames/backend/internal/handler"
	"github.com/pickupgames/backend/internal/middleware"
)

// Deps bundles everything the route table needs. The limiter and
// cache middleware may be nil, in which case the affected routes run
// unwrapped.
type Deps struct {
	Auth       *handler.AuthHandler
	Games      *handler.GameHandler
	Attendance *handler.AttendanceHandler
	JWTSecret  string
	RateLimit  echo.MiddlewareFunc
	Cache      echo.MiddlewareFunc
}

// Register mounts every route on the provided Echo instance.
//
// Game reads go through the optional JWT middleware so the projection
// can be viewer-relative for logged-in users while staying open to
// guests. All roster mutations require a valid token.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	auth := e.Group("/v1/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)

	jwt := middleware.JWTAuth(d.JWTSecret)
	optionalJWT := middleware.OptionalJWTAuth(d.JWTSecret)

	e.GET("/v1/me", d.Auth.Me, jwt)

	games := e.Group("/v1/games")
	games.GET("", d.Games.List, wrap(optionalJWT, d.Cache)...)
	games.GET("/:id", d.Games.Get, wrap(optionalJWT, d.Cache)...)
	games.POST("", d.Games.Create, wrap(jwt, d.RateLimit)...)
	games.PUT("/:id", d.Games.Update, wrap(jwt, d.RateLimit)...)

	games.POST("/:id/join", d.Attendance.Join, wrap(jwt, d.RateLimit)...)
	games.POST("/:id/leave", d.Attendance.Leave, wrap(jwt, d.RateLimit)...)
	games.POST("/:id/remove-attendee", d.Attendance.RemoveAttendee, wrap(jwt, d.RateLimit)...)
}

// wrap collects the non-nil middleware into a slice for route options.
func wrap(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, mw := range mws {
		if mw != nil {
			out = append(out, mw)
		}
	}
	return out
}
