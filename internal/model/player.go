package model

import "time"

// Player represents a row in the `players` table. Funds are a non-negative
// integer balance; the repository guards every debit so that tick
// processing can never drive a balance below zero. Shares records the
// player's stock holdings as surfaced in the profile response.
type Player struct {
	ID           uint64    // players.id
	Email        string    // players.email (unique)
	PasswordHash string    // players.password_hash (bcrypt)
	DisplayName  string    // players.display_name (shown in snapshots instead of the raw key)
	Funds        int64     // players.funds
	Shares       int64     // players.shares
	CreatedAt    time.Time // players.created_at
	UpdatedAt    time.Time // players.updated_at
}
