package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// dbTimeout bounds every database round trip started from a handler.
const dbTimeout = 5 * time.Second

// getUserID extracts the user_id set by the JWT middleware and converts
// it to uint64. Returns an error when the request is unauthenticated.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// viewerID is getUserID for endpoints behind the optional JWT
// middleware: guests get 0 instead of an error.
func viewerID(c echo.Context) uint64 {
	uid, err := getUserID(c)
	if err != nil {
		return 0
	}
	return uid
}

// pathID parses a numeric path parameter like :id.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// reqCtx derives a timeout-bounded context from the request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}
