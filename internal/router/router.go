// Package router registers the HTTP routes for the API.
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/tower-construction-game/internal/handler"
	"github.com/iliyamo/tower-construction-game/internal/middleware"
)

// Handlers groups the handler instances the routes dispatch to.
type Handlers struct {
	Auth        *handler.AuthHandler
	State       *handler.StateHandler
	Bids        *handler.BidHandler
	Renovations *handler.RenovationHandler
}

// Register wires up every route. The state endpoint is public with an
// optional token (to personalize the profile block) and sits behind the
// redis response cache when a client is available; everything mutating
// requires a valid access token.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client, cacheTTL time.Duration) {
	e.GET("/healthz", handler.Health)

	// Session endpoints. Logout accepts either a refresh token in the
	// body or a bearer token, so it runs with the optional variant.
	g := e.Group("/v1/auth")
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	g.POST("/refresh", h.Auth.Refresh)
	g.POST("/logout", h.Auth.Logout, middleware.OptionalJWT(jwtSecret))

	// World state: snapshot-backed, optionally personalized, cached.
	e.GET("/v1/state", h.State.State,
		middleware.OptionalJWT(jwtSecret),
		middleware.SnapshotCache(rdb, cacheTTL))

	// Protected player actions.
	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", h.Auth.Me)
	auth.POST("/bids", h.Bids.Submit)
	auth.DELETE("/bids/:id", h.Bids.Delete)
	auth.POST("/rooms/:id/renovations", h.Renovations.Submit)
}
