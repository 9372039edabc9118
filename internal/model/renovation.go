package model

import "time"

// RenovationStatus tracks a renovation order through the worker pipeline.
type RenovationStatus string

const (
	RenovationStatusPending    RenovationStatus = "pending"
	RenovationStatusProcessing RenovationStatus = "processing"
	RenovationStatusCompleted  RenovationStatus = "completed"
)

// RenovationOrder represents a row in the `renovation_orders` table. An
// order is created pending by a player action (cost already debited),
// picked up by the queue worker which moves it to processing, and marked
// completed once the wear reduction has been applied. A worker failure
// reverts the order to pending so the next delivery can retry it.
type RenovationOrder struct {
	ID            uint64           // renovation_orders.id
	RoomID        uint64           // renovation_orders.room_id
	PlayerID      uint64           // renovation_orders.player_id
	Kind          string           // renovation_orders.kind (key into the configured catalog)
	Cost          int64            // renovation_orders.cost (copied from the catalog at submission)
	WearReduction int              // renovation_orders.wear_reduction (copied from the catalog)
	Status        RenovationStatus // renovation_orders.status
	CreatedAt     time.Time        // renovation_orders.created_at
	UpdatedAt     time.Time        // renovation_orders.updated_at
}
