// Package game holds the pure tick algorithms: placement planning and
// auction resolution. Neither touches storage; the tick engine feeds them
// current state and applies their results inside its transaction.
package game

import (
	"math/rand"

	"github.com/iliyamo/tower-construction-game/internal/model"
)

// Coord is one cell of the tower grid. Y grows upward; the bottom row is
// y = 0.
type Coord struct {
	X int
	Y int
}

// GridConfig carries the planner's tuning, passed in explicitly at each
// call rather than read from shared state.
type GridConfig struct {
	Width   int // columns
	Height  int // floors
	PerTick int // max planned rooms proposed per tick
}

// Placement is one proposed planned room: a free coordinate plus the
// sector drawn for it.
type Placement struct {
	Coord  Coord
	Sector model.Sector
}

// PlanPlacements proposes up to cfg.PerTick new planned-room coordinates
// given current occupancy. Two priority tiers are evaluated in order:
// first every unoccupied bottom-row coordinate, then every unoccupied
// coordinate above the bottom row that is orthogonally adjacent to a
// constructed room. Each tier is shuffled with rng before slots are
// taken, and each chosen coordinate receives a sector drawn uniformly
// from the real category set. Fewer eligible coordinates than PerTick is
// not an error; the shortfall is silently accepted.
func PlanPlacements(cfg GridConfig, occupied map[Coord]model.RoomStatus, rng *rand.Rand) []Placement {
	if cfg.PerTick <= 0 || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil
	}

	var frontier []Coord // tier 1: free bottom-row cells
	for x := 0; x < cfg.Width; x++ {
		c := Coord{X: x, Y: 0}
		if _, ok := occupied[c]; !ok {
			frontier = append(frontier, c)
		}
	}

	var adjacent []Coord // tier 2: free upper cells bordering a constructed room
	for y := 1; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			c := Coord{X: x, Y: y}
			if _, ok := occupied[c]; ok {
				continue
			}
			if bordersConstructed(c, occupied) {
				adjacent = append(adjacent, c)
			}
		}
	}

	rng.Shuffle(len(frontier), func(i, j int) { frontier[i], frontier[j] = frontier[j], frontier[i] })
	rng.Shuffle(len(adjacent), func(i, j int) { adjacent[i], adjacent[j] = adjacent[j], adjacent[i] })

	out := make([]Placement, 0, cfg.PerTick)
	for _, c := range frontier {
		if len(out) == cfg.PerTick {
			return out
		}
		out = append(out, Placement{Coord: c, Sector: randomSector(rng)})
	}
	for _, c := range adjacent {
		if len(out) == cfg.PerTick {
			return out
		}
		out = append(out, Placement{Coord: c, Sector: randomSector(rng)})
	}
	return out
}

// bordersConstructed reports whether any orthogonal neighbour (never
// diagonal) holds a constructed room.
func bordersConstructed(c Coord, occupied map[Coord]model.RoomStatus) bool {
	neighbours := [4]Coord{
		{X: c.X - 1, Y: c.Y},
		{X: c.X + 1, Y: c.Y},
		{X: c.X, Y: c.Y - 1},
		{X: c.X, Y: c.Y + 1},
	}
	for _, n := range neighbours {
		if st, ok := occupied[n]; ok && st.Constructed() {
			return true
		}
	}
	return false
}

func randomSector(rng *rand.Rand) model.Sector {
	return model.Sectors[rng.Intn(len(model.Sectors))]
}
