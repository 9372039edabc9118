package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tower-construction-game/internal/middleware"
)

// playerID pulls the authenticated player ID the JWT middleware stored
// in the context. Protected routes always have it; a miss means the
// route was registered without the middleware.
func playerID(c echo.Context) (uint64, error) {
	id, ok := c.Get(middleware.ContextPlayerID).(uint64)
	if !ok || id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}
