package model

import "time"

// Ownership pairs a constructed room with its owning player. A record is
// created exactly once, when a winning bid transitions the room to
// new_constructed, and is immutable afterwards (no resale). The room_id
// column carries a unique key so a second insert for the same room fails
// at the storage layer.
type Ownership struct {
	ID        uint64    // ownerships.id
	RoomID    uint64    // ownerships.room_id (unique)
	PlayerID  uint64    // ownerships.player_id
	CreatedAt time.Time // ownerships.created_at
}
