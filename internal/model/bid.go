package model

import "time"

// BidStatus tracks a bid through the auction lifecycle. Bids enter as
// "new", may be carried as "active" while a tick is mid-resolution, and
// are retired by the tick engine as either old_winner or old_loser.
type BidStatus string

const (
	BidStatusNew       BidStatus = "new"
	BidStatusActive    BidStatus = "active"
	BidStatusOldWinner BidStatus = "old_winner"
	BidStatusOldLoser  BidStatus = "old_loser"
)

// BidKindConstruction is the only bid kind in this core: a bid to build
// a planned room. Submission rejects anything else so a future resale
// kind cannot slip through as a silent default.
const BidKindConstruction = "construction"

// Bid represents a row in the `bids` table. The (PlayerID, RoomID) pair is
// unique: a second submission from the same player for the same room
// updates amount and placed_at in place instead of inserting a duplicate.
// Bids are created by players and mutated exclusively by the tick engine.
type Bid struct {
	ID       uint64    // bids.id
	RoomID   uint64    // bids.room_id
	PlayerID uint64    // bids.player_id
	Amount   int64     // bids.amount (positive integer)
	PlacedAt time.Time // bids.placed_at (UTC; tiebreaker for equal amounts)
	Status   BidStatus // bids.status
}
