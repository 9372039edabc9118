package engine

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/tower-construction-game/internal/model"
	"github.com/iliyamo/tower-construction-game/internal/repository"
)

// TickTx exposes the storage operations a single tick needs, scoped to
// one transaction. Splitting this from the concrete repositories keeps
// the orchestration testable against an in-memory store while the real
// implementation rides MySQL transactions.
type TickTx interface {
	// AdvanceLifecycle ages new_constructed rooms into old_constructed
	// and reports how many changed.
	AdvanceLifecycle(ctx context.Context) (int64, error)
	// PlannedRooms returns every room currently in planned status.
	PlannedRooms(ctx context.Context) ([]model.Room, error)
	// NewBidsForRoom returns the bids submitted for a room since the
	// last tick.
	NewBidsForRoom(ctx context.Context, roomID uint64) ([]model.Bid, error)
	// PlayerFunds reads a bidder's current balance.
	PlayerFunds(ctx context.Context, playerID uint64) (int64, error)
	// DebitPlayer performs a guarded debit of the winning amount.
	DebitPlayer(ctx context.Context, playerID uint64, amount int64) error
	// ConstructRoom transitions a planned room to new_constructed with
	// wear reset to zero.
	ConstructRoom(ctx context.Context, roomID uint64) error
	// CreateOwnership records the winner as the room's owner.
	CreateOwnership(ctx context.Context, roomID, playerID uint64) error
	// RetireBids moves the given bids to a terminal status.
	RetireBids(ctx context.Context, bidIDs []uint64, status model.BidStatus) error
	// DeletePlannedRooms prunes every room still planned after
	// resolution and reports how many were removed.
	DeletePlannedRooms(ctx context.Context) (int64, error)
	// SetLastTick writes the tick metadata row.
	SetLastTick(ctx context.Context, at time.Time) error
	// AllRooms returns the full grid for occupancy planning.
	AllRooms(ctx context.Context) ([]model.Room, error)
	// CreatePlannedRooms inserts the planner's proposals.
	CreatePlannedRooms(ctx context.Context, rooms []model.Room) error
}

// TickStore runs a function within one tick transaction. When fn returns
// an error the transaction is rolled back and no step's effect remains.
type TickStore interface {
	WithinTick(ctx context.Context, fn func(tx TickTx) error) error
}

// SQLStore is the production TickStore: one MySQL transaction per tick,
// delegating each operation to the repositories' ...Tx methods.
type SQLStore struct {
	DB         *sql.DB
	Rooms      *repository.RoomRepo
	Bids       *repository.BidRepo
	Players    *repository.PlayerRepo
	Ownerships *repository.OwnershipRepo
	Ticks      *repository.TickRepo
}

// NewSQLStore constructs an SQLStore over the shared database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{
		DB:         db,
		Rooms:      repository.NewRoomRepo(db),
		Bids:       repository.NewBidRepo(db),
		Players:    repository.NewPlayerRepo(db),
		Ownerships: repository.NewOwnershipRepo(db),
		Ticks:      repository.NewTickRepo(db),
	}
}

func (s *SQLStore) WithinTick(ctx context.Context, fn func(tx TickTx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&sqlTickTx{store: s, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// sqlTickTx adapts one *sql.Tx to the TickTx surface.
type sqlTickTx struct {
	store *SQLStore
	tx    *sql.Tx
}

func (t *sqlTickTx) AdvanceLifecycle(ctx context.Context) (int64, error) {
	return t.store.Rooms.AdvanceLifecycleTx(ctx, t.tx)
}

func (t *sqlTickTx) PlannedRooms(ctx context.Context) ([]model.Room, error) {
	return t.store.Rooms.PlannedTx(ctx, t.tx)
}

func (t *sqlTickTx) NewBidsForRoom(ctx context.Context, roomID uint64) ([]model.Bid, error) {
	return t.store.Bids.NewByRoomTx(ctx, t.tx, roomID)
}

func (t *sqlTickTx) PlayerFunds(ctx context.Context, playerID uint64) (int64, error) {
	return t.store.Players.FundsTx(ctx, t.tx, playerID)
}

func (t *sqlTickTx) DebitPlayer(ctx context.Context, playerID uint64, amount int64) error {
	return t.store.Players.DebitTx(ctx, t.tx, playerID, amount)
}

func (t *sqlTickTx) ConstructRoom(ctx context.Context, roomID uint64) error {
	return t.store.Rooms.ConstructTx(ctx, t.tx, roomID)
}

func (t *sqlTickTx) CreateOwnership(ctx context.Context, roomID, playerID uint64) error {
	return t.store.Ownerships.CreateTx(ctx, t.tx, roomID, playerID)
}

func (t *sqlTickTx) RetireBids(ctx context.Context, bidIDs []uint64, status model.BidStatus) error {
	return t.store.Bids.SetStatusTx(ctx, t.tx, bidIDs, status)
}

func (t *sqlTickTx) DeletePlannedRooms(ctx context.Context) (int64, error) {
	return t.store.Rooms.DeletePlannedTx(ctx, t.tx)
}

func (t *sqlTickTx) SetLastTick(ctx context.Context, at time.Time) error {
	return t.store.Ticks.SetTx(ctx, t.tx, at)
}

func (t *sqlTickTx) AllRooms(ctx context.Context) ([]model.Room, error) {
	return t.store.Rooms.AllTx(ctx, t.tx)
}

func (t *sqlTickTx) CreatePlannedRooms(ctx context.Context, rooms []model.Room) error {
	return t.store.Rooms.CreatePlannedTx(ctx, t.tx, rooms)
}
