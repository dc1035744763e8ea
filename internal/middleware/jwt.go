package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// userIDContextKey is where the authenticated caller's numeric ID is
// stored on the Echo context. Handlers read it via c.Get.
const userIDContextKey = "user_id"

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the token's subject (the user ID) into the
// request context. The provided secret must match the one used when
// issuing tokens. This middleware wraps routes that require a logged
// in caller; handlers access the identity via `c.Get("user_id")`.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := bearerUserID(c, secret)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
			}
			c.Set(userIDContextKey, uid)
			return next(c)
		}
	}
}

// OptionalJWTAuth is like JWTAuth but lets requests without a valid
// token through as guests. Game views are public; the viewer-relative
// flags simply stay false when no identity is present.
func OptionalJWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if uid, ok := bearerUserID(c, secret); ok {
				c.Set(userIDContextKey, uid)
			}
			return next(c)
		}
	}
}

// bearerUserID extracts and validates the Bearer token from the
// Authorization header and returns the subject claim as a user ID.
func bearerUserID(c echo.Context, secret string) (uint64, bool) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return 0, false
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	// Parse with HS256 and our secret; reject any other signing
	// method so attacker-chosen algorithms are never accepted.
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return 0, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	// Numeric JSON claims decode as float64.
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, false
	}
	return uint64(sub), true
}
