package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tower-construction-game/internal/model"
	"github.com/iliyamo/tower-construction-game/internal/repository"
)

// BidHandler implements bid submission and withdrawal. Bids are pure
// intent: nothing is debited or resolved here, the tick engine acts on
// them at the next boundary.
type BidHandler struct {
	Bids    *repository.BidRepo
	Rooms   *repository.RoomRepo
	Players *repository.PlayerRepo
}

func NewBidHandler(b *repository.BidRepo, r *repository.RoomRepo, p *repository.PlayerRepo) *BidHandler {
	return &BidHandler{Bids: b, Rooms: r, Players: p}
}

type bidReq struct {
	Type   string `json:"type"`
	RoomID uint64 `json:"room_id"`
	Amount int64  `json:"amount"`
}

type bidResp struct {
	ID       uint64    `json:"id"`
	RoomID   uint64    `json:"room_id"`
	Amount   int64     `json:"amount"`
	PlacedAt time.Time `json:"placed_at"`
	Status   string    `json:"status"`
}

// Submit upserts the caller's bid on a room. A repeat submission for the
// same room replaces the earlier amount and timestamp.
func (h *BidHandler) Submit(c echo.Context) error {
	pid, err := playerID(c)
	if err != nil {
		return err
	}
	var req bidReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Type != model.BidKindConstruction {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown bid type"})
	}
	if req.RoomID == 0 || req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id and a positive amount required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Players.GetByID(ctx, pid); err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "player not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if _, err := h.Rooms.GetByID(ctx, req.RoomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	b, err := h.Bids.Upsert(ctx, req.RoomID, pid, req.Amount)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save bid failed"})
	}
	return c.JSON(http.StatusOK, bidResp{
		ID:       b.ID,
		RoomID:   b.RoomID,
		Amount:   b.Amount,
		PlacedAt: b.PlacedAt,
		Status:   string(b.Status),
	})
}

// Delete removes the caller's bid unconditionally. A bid that does not
// exist or belongs to another player yields the same not-found answer.
func (h *BidHandler) Delete(c echo.Context) error {
	pid, err := playerID(c)
	if err != nil {
		return err
	}
	bidID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bidID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Bids.DeleteByIDForPlayer(ctx, bidID, pid); err != nil {
		if errors.Is(err, repository.ErrBidNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bid not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete bid failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
