// Package middleware holds the reusable HTTP middleware: bearer-token
// authentication and the snapshot response cache.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// ContextPlayerID is the echo context key carrying the authenticated
// player's ID as a uint64.
const ContextPlayerID = "player_id"

// parseBearer validates a Bearer token against the secret and returns
// the player ID from its subject claim.
func parseBearer(secret, header string) (uint64, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return 0, false
	}
	raw := strings.TrimPrefix(header, "Bearer ")
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
	switch sub := claims["sub"].(type) {
	case float64:
		return uint64(sub), true
	case string:
		id, err := strconv.ParseUint(sub, 10, 64)
		return id, err == nil
	}
	return 0, false
}

// JWTAuth rejects requests without a valid Bearer access token and puts
// the player ID into the context under ContextPlayerID.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := parseBearer(secret, c.Request().Header.Get("Authorization"))
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing bearer token"})
			}
			c.Set(ContextPlayerID, id)
			return next(c)
		}
	}
}

// OptionalJWT is JWTAuth without the rejection: an absent or invalid
// token leaves the request anonymous instead of failing it. The state
// endpoint uses it to attach the viewer's profile when one is known.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id, ok := parseBearer(secret, c.Request().Header.Get("Authorization")); ok {
				c.Set(ContextPlayerID, id)
			}
			return next(c)
		}
	}
}
