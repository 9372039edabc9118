package model

import "time"

// RoomStatus enumerates the lifecycle states a grid cell moves through.
// A planned room is a buildable coordinate proposed by the placement
// planner; it either attracts a winning bid by the next tick and becomes
// new_constructed, or it is pruned. Constructed rooms are never deleted.
type RoomStatus string

const (
	RoomStatusPlanned        RoomStatus = "planned"
	RoomStatusNewConstructed RoomStatus = "new_constructed"
	RoomStatusOldConstructed RoomStatus = "old_constructed"
)

// Constructed reports whether the status denotes a built room.
func (s RoomStatus) Constructed() bool {
	return s == RoomStatusNewConstructed || s == RoomStatusOldConstructed
}

// Sector is the fixed category assigned to a room when it is planned.
// It is a closed enumeration with an explicit unknown variant; values
// read from storage that fail to parse resolve to SectorUnknown rather
// than being matched by open-ended string lookup.
type Sector string

const (
	SectorUnknown    Sector = "unknown"
	SectorResidence  Sector = "residence"
	SectorOffice     Sector = "office"
	SectorShop       Sector = "shop"
	SectorRestaurant Sector = "restaurant"
	SectorHotel      Sector = "hotel"
)

// Sectors lists the real categories the planner draws from. SectorUnknown
// is deliberately excluded: it exists only as a parse fallback.
var Sectors = [...]Sector{
	SectorResidence,
	SectorOffice,
	SectorShop,
	SectorRestaurant,
	SectorHotel,
}

// ParseSector resolves a stored string into a Sector, falling back to
// SectorUnknown for anything outside the enumeration.
func ParseSector(s string) Sector {
	switch Sector(s) {
	case SectorResidence, SectorOffice, SectorShop, SectorRestaurant, SectorHotel:
		return Sector(s)
	default:
		return SectorUnknown
	}
}

// Room represents a row in the `rooms` table: one grid cell of the tower.
// The (X, Y) pair is unique across the table. Wear only ever decreases via
// renovation and never drops below zero.
type Room struct {
	ID        uint64     // rooms.id
	X         int        // rooms.x (column, zero-based)
	Y         int        // rooms.y (floor, zero-based; the bottom row is y = 0)
	Sector    Sector     // rooms.sector
	Wear      int        // rooms.wear
	Status    RoomStatus // rooms.status
	CreatedAt time.Time  // rooms.created_at
	UpdatedAt time.Time  // rooms.updated_at
}
