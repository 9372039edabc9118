package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tower-construction-game/internal/config"
	"github.com/iliyamo/tower-construction-game/internal/model"
	"github.com/iliyamo/tower-construction-game/internal/queue"
	"github.com/iliyamo/tower-construction-game/internal/repository"
	queue_publisher "github.com/iliyamo/tower-construction-game/internal/service"
)

// RenovationHandler accepts renovation orders for constructed rooms.
// Submission debits the configured cost immediately and hands the order
// to the worker over the broker; wear is only reduced once the worker
// completes it.
type RenovationHandler struct {
	Cfg         config.Config
	Rooms       *repository.RoomRepo
	Ownerships  *repository.OwnershipRepo
	Players     *repository.PlayerRepo
	Renovations *repository.RenovationRepo
}

func NewRenovationHandler(cfg config.Config, rooms *repository.RoomRepo, own *repository.OwnershipRepo, players *repository.PlayerRepo, ren *repository.RenovationRepo) *RenovationHandler {
	return &RenovationHandler{Cfg: cfg, Rooms: rooms, Ownerships: own, Players: players, Renovations: ren}
}

type renovationReq struct {
	Type string `json:"type"`
}

type renovationResp struct {
	ID            uint64 `json:"id"`
	RoomID        uint64 `json:"room_id"`
	Kind          string `json:"kind"`
	Cost          int64  `json:"cost"`
	WearReduction int    `json:"wear_reduction"`
	Status        string `json:"status"`
}

// Submit creates a pending renovation order for a room the caller owns.
func (h *RenovationHandler) Submit(c echo.Context) error {
	pid, err := playerID(c)
	if err != nil {
		return err
	}
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || roomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req renovationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	spec, ok := h.Cfg.Renovations[req.Type]
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown renovation type"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	room, err := h.Rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !room.Status.Constructed() {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room not constructed"})
	}
	owner, err := h.Ownerships.OwnerOf(ctx, roomID)
	if err != nil || owner != pid {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room not owned by caller"})
	}

	pending, err := h.Renovations.HasPending(ctx, roomID, pid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if pending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "renovation already pending for this room"})
	}

	// The guarded debit is the authoritative funds check; a parallel
	// submission cannot drive the balance negative.
	if err := h.Players.Debit(ctx, pid, spec.Cost); err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient funds"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "debit failed"})
	}

	orderID, err := h.Renovations.Create(ctx, model.RenovationOrder{
		RoomID:        roomID,
		PlayerID:      pid,
		Kind:          req.Type,
		Cost:          spec.Cost,
		WearReduction: spec.WearReduction,
	})
	if err != nil {
		if credErr := h.Players.Credit(ctx, pid, spec.Cost); credErr != nil {
			log.Printf("renovation: refund after failed insert for player %d: %v", pid, credErr)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}

	// A failed publish is logged and tolerated: the order stays pending
	// and is picked up when the event is re-emitted or replayed.
	if err := queue_publisher.PublishRenovationRequested(ctx, queue.RenovationRequestedEvent{
		OrderID:     orderID,
		RoomID:      roomID,
		PlayerID:    pid,
		Kind:        req.Type,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		log.Printf("renovation: publish order %d failed: %v", orderID, err)
	}

	return c.JSON(http.StatusCreated, renovationResp{
		ID:            orderID,
		RoomID:        roomID,
		Kind:          req.Type,
		Cost:          spec.Cost,
		WearReduction: spec.WearReduction,
		Status:        string(model.RenovationStatusPending),
	})
}
