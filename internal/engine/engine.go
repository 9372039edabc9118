// Package engine implements the tick engine: the scheduled batch run
// that advances the tower's lifecycle, resolves auctions, prunes and
// expands the frontier, and publishes a fresh snapshot, exactly once
// per tick, under an exclusive advisory lock.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/iliyamo/tower-construction-game/internal/game"
	"github.com/iliyamo/tower-construction-game/internal/model"
)

// Materializer publishes the read-optimized snapshot after a committed
// tick.
type Materializer interface {
	Materialize(ctx context.Context, lastTickAt time.Time) error
}

// Engine orchestrates one tick. All collaborators are injected; nothing
// is read from ambient state.
type Engine struct {
	Grid      game.GridConfig
	Store     TickStore
	Lock      Locker
	Snapshots Materializer
	Rng       *rand.Rand
	Now       func() time.Time
	Log       *slog.Logger
}

// New wires an Engine with a time-seeded RNG and wall-clock time.
func New(grid game.GridConfig, store TickStore, lock Locker, snapshots Materializer, log *slog.Logger) *Engine {
	return &Engine{
		Grid:      grid,
		Store:     store,
		Lock:      lock,
		Snapshots: snapshots,
		Rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		Now:       time.Now,
		Log:       log,
	}
}

// RunTick executes one tick. The steps run strictly in order inside a
// single store transaction: lifecycle advance, auction resolution,
// pruning, tick metadata, frontier expansion. Any failure rolls the
// transaction back so an aborted tick leaves no visible state change;
// the scheduler simply retries at the next invocation. Snapshot
// materialization runs after the commit, from the committed state.
//
// When the lock is held elsewhere the invocation performs no work and
// returns nil; an overlapping schedule is expected, not an error.
func (e *Engine) RunTick(ctx context.Context) error {
	ok, err := e.Lock.TryAcquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire tick lock: %w", err)
	}
	if !ok {
		e.Log.Debug("tick already in progress, skipping invocation")
		return nil
	}
	defer func() {
		if relErr := e.Lock.Release(ctx); relErr != nil {
			e.Log.Error("release tick lock", "error", relErr)
		}
	}()

	tickAt := e.Now().UTC()
	var aged, pruned, planned int64

	err = e.Store.WithinTick(ctx, func(tx TickTx) error {
		// 1. Age out the newly-built marker before this tick's winners
		// are applied.
		n, err := tx.AdvanceLifecycle(ctx)
		if err != nil {
			return fmt.Errorf("advance lifecycle: %w", err)
		}
		aged = n

		// 2. Resolve every planned room's auction.
		rooms, err := tx.PlannedRooms(ctx)
		if err != nil {
			return fmt.Errorf("load planned rooms: %w", err)
		}
		for _, room := range rooms {
			if err := e.resolveRoom(ctx, tx, room); err != nil {
				return fmt.Errorf("resolve room %d: %w", room.ID, err)
			}
		}

		// 3. Prune plans that attracted no winner. Must happen after
		// resolution and before expansion so freed coordinates are
		// re-proposable without colliding with this tick's winners.
		n, err = tx.DeletePlannedRooms(ctx)
		if err != nil {
			return fmt.Errorf("prune planned rooms: %w", err)
		}
		pruned = n

		// 4. Advance tick metadata.
		if err := tx.SetLastTick(ctx, tickAt); err != nil {
			return fmt.Errorf("set tick meta: %w", err)
		}

		// 5. Expand the frontier.
		all, err := tx.AllRooms(ctx)
		if err != nil {
			return fmt.Errorf("load occupancy: %w", err)
		}
		occupied := make(map[game.Coord]model.RoomStatus, len(all))
		for _, rm := range all {
			occupied[game.Coord{X: rm.X, Y: rm.Y}] = rm.Status
		}
		placements := game.PlanPlacements(e.Grid, occupied, e.Rng)
		newRooms := make([]model.Room, 0, len(placements))
		for _, p := range placements {
			newRooms = append(newRooms, model.Room{
				X:      p.Coord.X,
				Y:      p.Coord.Y,
				Sector: p.Sector,
				Status: model.RoomStatusPlanned,
			})
		}
		if err := tx.CreatePlannedRooms(ctx, newRooms); err != nil {
			return fmt.Errorf("create planned rooms: %w", err)
		}
		planned = int64(len(newRooms))
		return nil
	})
	if err != nil {
		e.Log.Error("tick aborted, no state change applied", "error", err)
		return err
	}

	// 6. Publish the snapshot from the committed state. A failure here
	// leaves the previous snapshot serving reads; the next tick will
	// replace it.
	if err := e.Snapshots.Materialize(ctx, tickAt); err != nil {
		e.Log.Error("snapshot materialization failed", "error", err)
		return fmt.Errorf("materialize snapshot: %w", err)
	}

	e.Log.Info("tick complete",
		"tick_at", tickAt,
		"aged", aged,
		"pruned", pruned,
		"planned", planned,
	)
	return nil
}

// resolveRoom runs one room's auction and applies the outcome: the
// winner is debited exactly once, the room constructed with wear reset,
// ownership recorded, and every other bid retired as a loser. A room
// with no new bids is left untouched (step 3 prunes it).
func (e *Engine) resolveRoom(ctx context.Context, tx TickTx, room model.Room) error {
	bids, err := tx.NewBidsForRoom(ctx, room.ID)
	if err != nil {
		return err
	}
	if len(bids) == 0 {
		return nil
	}

	funds := make(map[uint64]int64, len(bids))
	for _, b := range bids {
		if _, ok := funds[b.PlayerID]; ok {
			continue
		}
		f, err := tx.PlayerFunds(ctx, b.PlayerID)
		if err != nil {
			return err
		}
		funds[b.PlayerID] = f
	}

	out := game.ResolveAuction(bids, funds)
	if out.Winner != nil {
		w := out.Winner
		if err := tx.DebitPlayer(ctx, w.PlayerID, w.Amount); err != nil {
			return err
		}
		if err := tx.ConstructRoom(ctx, room.ID); err != nil {
			return err
		}
		if err := tx.CreateOwnership(ctx, room.ID, w.PlayerID); err != nil {
			return err
		}
		if err := tx.RetireBids(ctx, []uint64{w.ID}, model.BidStatusOldWinner); err != nil {
			return err
		}
	}
	loserIDs := make([]uint64, 0, len(out.Losers))
	for _, b := range out.Losers {
		loserIDs = append(loserIDs, b.ID)
	}
	return tx.RetireBids(ctx, loserIDs, model.BidStatusOldLoser)
}
