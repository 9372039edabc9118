package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// OwnershipRepo provides data access to the ownerships table. Rows are
// written exactly once, inside the tick transaction, when a winning bid
// constructs a room; the unique room key rejects a second insert.
type OwnershipRepo struct{ DB *sql.DB }

func NewOwnershipRepo(db *sql.DB) *OwnershipRepo { return &OwnershipRepo{DB: db} }

// OwnershipView is the denormalized form used by the snapshot: the owner
// is identified by display name, never by the raw player key.
type OwnershipView struct {
	RoomID    uint64    `json:"room_id"`
	OwnerName string    `json:"owner_name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateTx records ownership of a freshly constructed room within the
// provided transaction.
func (r *OwnershipRepo) CreateTx(ctx context.Context, tx *sql.Tx, roomID, playerID uint64) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO ownerships (room_id, player_id) VALUES (?, ?)", roomID, playerID)
	return err
}

// OwnerOf returns the owning player of a room, or ErrRoomNotFound when
// the room has no ownership record.
func (r *OwnershipRepo) OwnerOf(ctx context.Context, roomID uint64) (uint64, error) {
	var playerID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT player_id FROM ownerships WHERE room_id=? LIMIT 1", roomID).Scan(&playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrRoomNotFound
	}
	return playerID, err
}

// CountByPlayer returns how many rooms the player owns. The profile block
// of the state response uses it.
func (r *OwnershipRepo) CountByPlayer(ctx context.Context, playerID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ownerships WHERE player_id=?", playerID).Scan(&n)
	return n, err
}

// Views returns the denormalized ownership list for the snapshot, joining
// players for display names.
func (r *OwnershipRepo) Views(ctx context.Context) ([]OwnershipView, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT o.room_id, p.display_name, o.created_at
		 FROM ownerships o JOIN players p ON p.id = o.player_id
		 ORDER BY o.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OwnershipView
	for rows.Next() {
		var v OwnershipView
		if err := rows.Scan(&v.RoomID, &v.OwnerName, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
