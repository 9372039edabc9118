package game

import (
	mathrand "math/rand"
	"testing"

	"github.com/iliyamo/tower-construction-game/internal/model"
)

func testRng() *mathrand.Rand {
	return mathrand.New(mathrand.NewSource(1))
}

func testGrid() GridConfig {
	return GridConfig{Width: 12, Height: 20, PerTick: 5}
}

func realSector(s model.Sector) bool {
	for _, v := range model.Sectors {
		if v == s {
			return true
		}
	}
	return false
}

func TestPlanPlacementsEmptyGridFillsBottomRow(t *testing.T) {
	placements := PlanPlacements(testGrid(), map[Coord]model.RoomStatus{}, testRng())
	if len(placements) != 5 {
		t.Fatalf("got %d placements, want 5", len(placements))
	}
	seen := map[Coord]bool{}
	for _, p := range placements {
		if p.Coord.Y != 0 {
			t.Fatalf("placement %+v not in bottom row", p.Coord)
		}
		if seen[p.Coord] {
			t.Fatalf("coordinate %+v proposed twice", p.Coord)
		}
		seen[p.Coord] = true
		if !realSector(p.Sector) {
			t.Fatalf("placement got sector %q outside the real set", p.Sector)
		}
	}
}

func TestPlanPlacementsNeverProposesOccupiedOrOutOfBounds(t *testing.T) {
	cfg := GridConfig{Width: 3, Height: 3, PerTick: 10}
	occupied := map[Coord]model.RoomStatus{
		{X: 0, Y: 0}: model.RoomStatusOldConstructed,
		{X: 1, Y: 0}: model.RoomStatusPlanned,
		{X: 0, Y: 1}: model.RoomStatusNewConstructed,
	}
	placements := PlanPlacements(cfg, occupied, testRng())
	for _, p := range placements {
		if _, ok := occupied[p.Coord]; ok {
			t.Fatalf("proposed occupied coordinate %+v", p.Coord)
		}
		if p.Coord.X < 0 || p.Coord.X >= cfg.Width || p.Coord.Y < 0 || p.Coord.Y >= cfg.Height {
			t.Fatalf("proposed out-of-bounds coordinate %+v", p.Coord)
		}
	}
}

func TestPlanPlacementsAdjacencyTier(t *testing.T) {
	// One free bottom-row cell and one constructed room with free upper
	// neighbours: tier 1 must be exhausted before tier 2 contributes, and
	// tier 2 must only border constructed rooms.
	cfg := GridConfig{Width: 2, Height: 3, PerTick: 4}
	occupied := map[Coord]model.RoomStatus{
		{X: 0, Y: 0}: model.RoomStatusOldConstructed,
	}
	placements := PlanPlacements(cfg, occupied, testRng())
	if len(placements) != 2 {
		t.Fatalf("got %d placements, want 2", len(placements))
	}
	coords := map[Coord]bool{}
	for _, p := range placements {
		coords[p.Coord] = true
	}
	if !coords[Coord{X: 1, Y: 0}] {
		t.Fatalf("free bottom-row cell not proposed: %v", coords)
	}
	// The only tier-2 candidate is (0,1), above the constructed room.
	// (1,1) borders nothing constructed and (0,2)/(1,2) are detached.
	if !coords[Coord{X: 0, Y: 1}] {
		t.Fatalf("adjacent cell above constructed room not proposed: %v", coords)
	}
}

func TestPlanPlacementsPlannedRoomsDoNotExtendFrontier(t *testing.T) {
	// A planned (unbuilt) room must not make its neighbours eligible.
	cfg := GridConfig{Width: 1, Height: 4, PerTick: 3}
	occupied := map[Coord]model.RoomStatus{
		{X: 0, Y: 0}: model.RoomStatusPlanned,
	}
	placements := PlanPlacements(cfg, occupied, testRng())
	if len(placements) != 0 {
		t.Fatalf("planned room extended the frontier: %+v", placements)
	}
}

func TestPlanPlacementsShortfallAccepted(t *testing.T) {
	cfg := GridConfig{Width: 2, Height: 1, PerTick: 5}
	placements := PlanPlacements(cfg, map[Coord]model.RoomStatus{}, testRng())
	if len(placements) != 2 {
		t.Fatalf("got %d placements, want the 2 available", len(placements))
	}
}

func TestPlanPlacementsCapsAtPerTick(t *testing.T) {
	cfg := GridConfig{Width: 30, Height: 2, PerTick: 5}
	placements := PlanPlacements(cfg, map[Coord]model.RoomStatus{}, testRng())
	if len(placements) != 5 {
		t.Fatalf("got %d placements, want cap of 5", len(placements))
	}
}
