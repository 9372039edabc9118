// Package queue defines the broker payloads and the background consumer
// that executes renovation orders.
package queue

// RenovationRequestedEvent is published when a player submits a
// renovation order. The worker reloads the order from the database, so
// the payload only needs to identify it; the rest is for log lines.
type RenovationRequestedEvent struct {
	OrderID     uint64 `json:"order_id"`
	RoomID      uint64 `json:"room_id"`
	PlayerID    uint64 `json:"player_id"`
	Kind        string `json:"kind"`
	RequestedAt string `json:"requested_at"`
}
