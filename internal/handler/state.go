package handler

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tower-construction-game/internal/config"
	"github.com/iliyamo/tower-construction-game/internal/middleware"
	"github.com/iliyamo/tower-construction-game/internal/repository"
	"github.com/iliyamo/tower-construction-game/internal/snapshot"
)

// StateHandler serves the materialized world state. It reads only the
// snapshot document; the primary store is touched solely for the
// authenticated viewer's profile.
type StateHandler struct {
	Cfg        config.Config
	Players    *repository.PlayerRepo
	Ownerships *repository.OwnershipRepo
}

func NewStateHandler(cfg config.Config, p *repository.PlayerRepo, o *repository.OwnershipRepo) *StateHandler {
	return &StateHandler{Cfg: cfg, Players: p, Ownerships: o}
}

type profilePart struct {
	Funds      int64 `json:"funds"`
	Shares     int64 `json:"shares"`
	OwnedRooms int   `json:"owned_rooms"`
}

type stateResp struct {
	CurrentTime    time.Time                  `json:"current_time"`
	LastTickAt     time.Time                  `json:"last_tick_at"`
	NextTickAt     time.Time                  `json:"next_tick_at"`
	UpdateImminent bool                       `json:"update_imminent"`
	Rooms          []snapshot.RoomView        `json:"rooms"`
	Bids           []repository.BidView       `json:"bids"`
	Ownerships     []repository.OwnershipView `json:"ownerships"`
	Profile        *profilePart               `json:"profile,omitempty"`
}

// State returns the current world document plus tick timing. The
// response embeds a profile block when the request carried a valid
// bearer token.
func (h *StateHandler) State(c echo.Context) error {
	doc, err := snapshot.Read(h.Cfg.SnapshotPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "state not materialized yet"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load state failed"})
	}

	now := time.Now().UTC()
	interval := time.Duration(h.Cfg.TickIntervalSec) * time.Second
	window := time.Duration(h.Cfg.ImminentWindowSec) * time.Second
	next := doc.LastTickAt.Add(interval)
	// Imminent inside the window on either side of the boundary. An
	// overdue tick counts as imminent until it lands.
	imminent := now.After(next.Add(-window)) || now.Sub(doc.LastTickAt) <= window

	resp := stateResp{
		CurrentTime:    now,
		LastTickAt:     doc.LastTickAt,
		NextTickAt:     next,
		UpdateImminent: imminent,
		Rooms:          doc.Rooms,
		Bids:           doc.Bids,
		Ownerships:     doc.Ownerships,
	}

	if pid, ok := c.Get(middleware.ContextPlayerID).(uint64); ok && pid != 0 {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		p, err := h.Players.GetByID(ctx, pid)
		if err == nil {
			owned, err := h.Ownerships.CountByPlayer(ctx, pid)
			if err != nil {
				owned = 0
			}
			resp.Profile = &profilePart{Funds: p.Funds, Shares: p.Shares, OwnedRooms: owned}
		}
	}
	return c.JSON(http.StatusOK, resp)
}
