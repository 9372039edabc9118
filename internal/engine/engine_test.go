package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	mathrand "math/rand"
	"testing"
	"time"

	"github.com/iliyamo/tower-construction-game/internal/game"
	"github.com/iliyamo/tower-construction-game/internal/model"
)

// memState is a deep-copyable world used by memStore. WithinTick works
// on a clone and swaps it in only on success, mirroring the rollback
// guarantee of the SQL store.
type memState struct {
	rooms      map[uint64]model.Room
	nextRoomID uint64
	bids       map[uint64]model.Bid
	funds      map[uint64]int64
	ownerships map[uint64]uint64 // room -> player
	lastTick   time.Time
}

func newMemState() *memState {
	return &memState{
		rooms:      map[uint64]model.Room{},
		nextRoomID: 1,
		bids:       map[uint64]model.Bid{},
		funds:      map[uint64]int64{},
		ownerships: map[uint64]uint64{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	c.nextRoomID = s.nextRoomID
	c.lastTick = s.lastTick
	for k, v := range s.rooms {
		c.rooms[k] = v
	}
	for k, v := range s.bids {
		c.bids[k] = v
	}
	for k, v := range s.funds {
		c.funds[k] = v
	}
	for k, v := range s.ownerships {
		c.ownerships[k] = v
	}
	return c
}

type memStore struct {
	state *memState
	// failOn aborts the named operation to exercise rollback.
	failOn string
}

func (ms *memStore) WithinTick(ctx context.Context, fn func(tx TickTx) error) error {
	work := ms.state.clone()
	if err := fn(&memTx{state: work, failOn: ms.failOn}); err != nil {
		return err
	}
	ms.state = work
	return nil
}

var errInjected = errors.New("injected failure")

type memTx struct {
	state  *memState
	failOn string
}

func (t *memTx) AdvanceLifecycle(ctx context.Context) (int64, error) {
	if t.failOn == "advance" {
		return 0, errInjected
	}
	var n int64
	for id, rm := range t.state.rooms {
		if rm.Status == model.RoomStatusNewConstructed {
			rm.Status = model.RoomStatusOldConstructed
			t.state.rooms[id] = rm
			n++
		}
	}
	return n, nil
}

func (t *memTx) PlannedRooms(ctx context.Context) ([]model.Room, error) {
	var out []model.Room
	for id := uint64(1); id < t.state.nextRoomID; id++ {
		if rm, ok := t.state.rooms[id]; ok && rm.Status == model.RoomStatusPlanned {
			out = append(out, rm)
		}
	}
	return out, nil
}

func (t *memTx) NewBidsForRoom(ctx context.Context, roomID uint64) ([]model.Bid, error) {
	var out []model.Bid
	for _, b := range t.state.bids {
		if b.RoomID == roomID && b.Status == model.BidStatusNew {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *memTx) PlayerFunds(ctx context.Context, playerID uint64) (int64, error) {
	return t.state.funds[playerID], nil
}

func (t *memTx) DebitPlayer(ctx context.Context, playerID uint64, amount int64) error {
	if t.state.funds[playerID] < amount {
		return errors.New("insufficient funds")
	}
	t.state.funds[playerID] -= amount
	return nil
}

func (t *memTx) ConstructRoom(ctx context.Context, roomID uint64) error {
	if t.failOn == "construct" {
		return errInjected
	}
	rm := t.state.rooms[roomID]
	rm.Status = model.RoomStatusNewConstructed
	rm.Wear = 0
	t.state.rooms[roomID] = rm
	return nil
}

func (t *memTx) CreateOwnership(ctx context.Context, roomID, playerID uint64) error {
	if _, ok := t.state.ownerships[roomID]; ok {
		return errors.New("duplicate ownership")
	}
	t.state.ownerships[roomID] = playerID
	return nil
}

func (t *memTx) RetireBids(ctx context.Context, bidIDs []uint64, status model.BidStatus) error {
	for _, id := range bidIDs {
		b := t.state.bids[id]
		b.Status = status
		t.state.bids[id] = b
	}
	return nil
}

func (t *memTx) DeletePlannedRooms(ctx context.Context) (int64, error) {
	var n int64
	for id, rm := range t.state.rooms {
		if rm.Status == model.RoomStatusPlanned {
			delete(t.state.rooms, id)
			n++
		}
	}
	return n, nil
}

func (t *memTx) SetLastTick(ctx context.Context, at time.Time) error {
	t.state.lastTick = at
	return nil
}

func (t *memTx) AllRooms(ctx context.Context) ([]model.Room, error) {
	var out []model.Room
	for _, rm := range t.state.rooms {
		out = append(out, rm)
	}
	return out, nil
}

func (t *memTx) CreatePlannedRooms(ctx context.Context, rooms []model.Room) error {
	if t.failOn == "plan" {
		return errInjected
	}
	for _, rm := range rooms {
		rm.ID = t.state.nextRoomID
		t.state.nextRoomID++
		t.state.rooms[rm.ID] = rm
	}
	return nil
}

type fakeLock struct {
	heldElsewhere bool
	acquired      int
	released      int
}

func (l *fakeLock) TryAcquire(ctx context.Context) (bool, error) {
	if l.heldElsewhere {
		return false, nil
	}
	l.acquired++
	return true, nil
}

func (l *fakeLock) Release(ctx context.Context) error {
	l.released++
	return nil
}

type fakeMaterializer struct {
	calls []time.Time
	err   error
}

func (m *fakeMaterializer) Materialize(ctx context.Context, lastTickAt time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, lastTickAt)
	return nil
}

var testTickAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(store *memStore, lock *fakeLock, mat *fakeMaterializer) *Engine {
	return &Engine{
		Grid:      game.GridConfig{Width: 12, Height: 20, PerTick: 5},
		Store:     store,
		Lock:      lock,
		Snapshots: mat,
		Rng:       mathrand.New(mathrand.NewSource(1)),
		Now:       func() time.Time { return testTickAt },
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRunTickEmptyGridPlansBottomRow(t *testing.T) {
	store := &memStore{state: newMemState()}
	lock := &fakeLock{}
	mat := &fakeMaterializer{}
	eng := newTestEngine(store, lock, mat)

	if err := eng.RunTick(context.Background()); err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if got := len(store.state.rooms); got != 5 {
		t.Fatalf("got %d rooms, want 5", got)
	}
	for _, rm := range store.state.rooms {
		if rm.Status != model.RoomStatusPlanned {
			t.Fatalf("room %+v not planned", rm)
		}
		if rm.Y != 0 {
			t.Fatalf("room %+v not in bottom row", rm)
		}
	}
	if len(store.state.ownerships) != 0 || len(store.state.bids) != 0 {
		t.Fatalf("empty-grid tick created bids or ownerships")
	}
	if !store.state.lastTick.Equal(testTickAt) {
		t.Fatalf("lastTick = %v, want %v", store.state.lastTick, testTickAt)
	}
	if len(mat.calls) != 1 || !mat.calls[0].Equal(testTickAt) {
		t.Fatalf("materializer calls = %v", mat.calls)
	}
	if lock.acquired != 1 || lock.released != 1 {
		t.Fatalf("lock acquired=%d released=%d", lock.acquired, lock.released)
	}
}

func TestRunTickResolvesTieByEarlierBid(t *testing.T) {
	store := &memStore{state: newMemState()}
	store.state.rooms[1] = model.Room{ID: 1, X: 3, Y: 0, Sector: model.SectorShop, Status: model.RoomStatusPlanned}
	store.state.nextRoomID = 2
	store.state.funds[10] = 1000
	store.state.funds[11] = 1000
	store.state.bids[1] = model.Bid{ID: 1, RoomID: 1, PlayerID: 10, Amount: 500, PlacedAt: testTickAt.Add(-2 * time.Minute), Status: model.BidStatusNew}
	store.state.bids[2] = model.Bid{ID: 2, RoomID: 1, PlayerID: 11, Amount: 500, PlacedAt: testTickAt.Add(-time.Minute), Status: model.BidStatusNew}

	eng := newTestEngine(store, &fakeLock{}, &fakeMaterializer{})
	if err := eng.RunTick(context.Background()); err != nil {
		t.Fatalf("RunTick: %v", err)
	}

	rm := store.state.rooms[1]
	if rm.Status != model.RoomStatusNewConstructed || rm.Wear != 0 {
		t.Fatalf("room after win = %+v", rm)
	}
	if owner := store.state.ownerships[1]; owner != 10 {
		t.Fatalf("owner = %d, want earlier bidder 10", owner)
	}
	if store.state.bids[1].Status != model.BidStatusOldWinner {
		t.Fatalf("bid 1 status = %s", store.state.bids[1].Status)
	}
	if store.state.bids[2].Status != model.BidStatusOldLoser {
		t.Fatalf("bid 2 status = %s", store.state.bids[2].Status)
	}
	if store.state.funds[10] != 500 {
		t.Fatalf("winner funds = %d, want 500", store.state.funds[10])
	}
	if store.state.funds[11] != 1000 {
		t.Fatalf("loser funds = %d, want untouched 1000", store.state.funds[11])
	}
}

func TestRunTickFundsConservation(t *testing.T) {
	store := &memStore{state: newMemState()}
	store.state.rooms[1] = model.Room{ID: 1, X: 0, Y: 0, Status: model.RoomStatusPlanned}
	store.state.nextRoomID = 2
	store.state.funds[10] = 700
	store.state.funds[11] = 900
	store.state.funds[12] = 300
	store.state.bids[1] = model.Bid{ID: 1, RoomID: 1, PlayerID: 10, Amount: 600, PlacedAt: testTickAt.Add(-3 * time.Minute), Status: model.BidStatusNew}
	store.state.bids[2] = model.Bid{ID: 2, RoomID: 1, PlayerID: 11, Amount: 400, PlacedAt: testTickAt.Add(-2 * time.Minute), Status: model.BidStatusNew}
	store.state.bids[3] = model.Bid{ID: 3, RoomID: 1, PlayerID: 12, Amount: 200, PlacedAt: testTickAt.Add(-time.Minute), Status: model.BidStatusNew}

	before := int64(0)
	for _, f := range store.state.funds {
		before += f
	}

	eng := newTestEngine(store, &fakeLock{}, &fakeMaterializer{})
	if err := eng.RunTick(context.Background()); err != nil {
		t.Fatalf("RunTick: %v", err)
	}

	after := int64(0)
	for _, f := range store.state.funds {
		after += f
	}
	if after != before-600 {
		t.Fatalf("funds before=%d after=%d, want single debit of 600", before, after)
	}
}

func TestRunTickPrunesWinnerlessPlansKeepsConstructed(t *testing.T) {
	store := &memStore{state: newMemState()}
	store.state.rooms[1] = model.Room{ID: 1, X: 0, Y: 0, Status: model.RoomStatusPlanned}
	store.state.rooms[2] = model.Room{ID: 2, X: 1, Y: 0, Status: model.RoomStatusOldConstructed}
	store.state.nextRoomID = 3

	eng := newTestEngine(store, &fakeLock{}, &fakeMaterializer{})
	if err := eng.RunTick(context.Background()); err != nil {
		t.Fatalf("RunTick: %v", err)
	}

	if _, ok := store.state.rooms[1]; ok {
		t.Fatalf("zero-bid planned room survived the tick")
	}
	if rm, ok := store.state.rooms[2]; !ok || rm.Status != model.RoomStatusOldConstructed {
		t.Fatalf("constructed room was touched: %+v", store.state.rooms[2])
	}
}

func TestRunTickLifecycleAdvanceIsIdempotent(t *testing.T) {
	store := &memStore{state: newMemState()}
	store.state.rooms[1] = model.Room{ID: 1, X: 0, Y: 0, Status: model.RoomStatusNewConstructed}
	store.state.nextRoomID = 2

	eng := newTestEngine(store, &fakeLock{}, &fakeMaterializer{})
	for i := 0; i < 2; i++ {
		if err := eng.RunTick(context.Background()); err != nil {
			t.Fatalf("RunTick %d: %v", i, err)
		}
		if st := store.state.rooms[1].Status; st != model.RoomStatusOldConstructed {
			t.Fatalf("after tick %d status = %s, want old_constructed", i, st)
		}
	}
}

func TestRunTickSkipsWhenLockHeldElsewhere(t *testing.T) {
	store := &memStore{state: newMemState()}
	store.state.rooms[1] = model.Room{ID: 1, X: 0, Y: 0, Status: model.RoomStatusPlanned}
	store.state.nextRoomID = 2
	mat := &fakeMaterializer{}

	eng := newTestEngine(store, &fakeLock{heldElsewhere: true}, mat)
	if err := eng.RunTick(context.Background()); err != nil {
		t.Fatalf("RunTick with held lock: %v", err)
	}
	if _, ok := store.state.rooms[1]; !ok {
		t.Fatalf("held lock still mutated state")
	}
	if len(mat.calls) != 0 {
		t.Fatalf("held lock still materialized a snapshot")
	}
}

func TestRunTickAbortLeavesNoPartialEffect(t *testing.T) {
	store := &memStore{state: newMemState(), failOn: "plan"}
	store.state.rooms[1] = model.Room{ID: 1, X: 0, Y: 0, Status: model.RoomStatusNewConstructed}
	store.state.nextRoomID = 2
	lock := &fakeLock{}
	mat := &fakeMaterializer{}

	eng := newTestEngine(store, lock, mat)
	err := eng.RunTick(context.Background())
	if !errors.Is(err, errInjected) {
		t.Fatalf("RunTick error = %v, want injected failure", err)
	}
	// Step 1 ran inside the transaction but must not be visible.
	if st := store.state.rooms[1].Status; st != model.RoomStatusNewConstructed {
		t.Fatalf("aborted tick leaked lifecycle advance: %s", st)
	}
	if !store.state.lastTick.IsZero() {
		t.Fatalf("aborted tick leaked tick metadata: %v", store.state.lastTick)
	}
	if len(mat.calls) != 0 {
		t.Fatalf("aborted tick still materialized a snapshot")
	}
	if lock.released != 1 {
		t.Fatalf("lock not released on abort path, released=%d", lock.released)
	}
}

func TestRunTickSecondTickBidsOnFreshPlans(t *testing.T) {
	// Full two-tick scenario: tick 1 plans rooms, a player bids on one,
	// tick 2 constructs it and expands the frontier around it.
	store := &memStore{state: newMemState()}
	mat := &fakeMaterializer{}
	eng := newTestEngine(store, &fakeLock{}, mat)

	if err := eng.RunTick(context.Background()); err != nil {
		t.Fatalf("tick 1: %v", err)
	}
	var target model.Room
	for _, rm := range store.state.rooms {
		target = rm
		break
	}
	store.state.funds[42] = 2000
	store.state.bids[1] = model.Bid{ID: 1, RoomID: target.ID, PlayerID: 42, Amount: 800, PlacedAt: testTickAt.Add(30 * time.Second), Status: model.BidStatusNew}

	if err := eng.RunTick(context.Background()); err != nil {
		t.Fatalf("tick 2: %v", err)
	}
	rm := store.state.rooms[target.ID]
	if rm.Status != model.RoomStatusNewConstructed {
		t.Fatalf("bid-on room = %+v, want new_constructed", rm)
	}
	if store.state.funds[42] != 1200 {
		t.Fatalf("winner funds = %d, want 1200", store.state.funds[42])
	}
	if len(mat.calls) != 2 {
		t.Fatalf("materializer calls = %d, want 2", len(mat.calls))
	}
}
