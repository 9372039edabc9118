package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/tower-construction-game/internal/model"
)

// BidRepo provides data access to the bids table. Submission uses upsert
// semantics keyed on the (player_id, room_id) unique index so one player
// holds at most one bid per room; the tick engine retires bids during
// auction resolution via the ...Tx variants.
type BidRepo struct{ DB *sql.DB }

func NewBidRepo(db *sql.DB) *BidRepo { return &BidRepo{DB: db} }

// BidView is the denormalized form used by the snapshot: the bidder is
// identified by display name, never by the raw player key.
type BidView struct {
	ID         uint64    `json:"id"`
	RoomID     uint64    `json:"room_id"`
	BidderName string    `json:"bidder_name"`
	Amount     int64     `json:"amount"`
	PlacedAt   time.Time `json:"placed_at"`
	Status     string    `json:"status"`
}

// Upsert creates or updates the caller's bid on a room. A repeated
// submission for the same (player, room) pair replaces amount and
// placed_at in place and resets status to new. The resulting row is
// returned.
func (r *BidRepo) Upsert(ctx context.Context, roomID, playerID uint64, amount int64) (model.Bid, error) {
	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO bids (room_id, player_id, amount, placed_at, status)
		 VALUES (?, ?, ?, ?, 'new')
		 ON DUPLICATE KEY UPDATE amount=VALUES(amount), placed_at=VALUES(placed_at), status='new'`,
		roomID, playerID, amount, now)
	if err != nil {
		return model.Bid{}, err
	}
	// LastInsertId is unreliable across the update branch of an upsert, so
	// re-read by the unique pair.
	return r.getByPair(ctx, roomID, playerID)
}

func (r *BidRepo) getByPair(ctx context.Context, roomID, playerID uint64) (model.Bid, error) {
	var (
		b      model.Bid
		status string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,room_id,player_id,amount,placed_at,status FROM bids WHERE room_id=? AND player_id=? LIMIT 1",
		roomID, playerID).Scan(&b.ID, &b.RoomID, &b.PlayerID, &b.Amount, &b.PlacedAt, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrBidNotFound
	}
	b.Status = model.BidStatus(status)
	return b, err
}

// DeleteByIDForPlayer removes a bid unconditionally if it exists and
// belongs to the caller; otherwise it reports ErrBidNotFound. Ownership
// is enforced in the WHERE clause rather than surfaced as a separate
// forbidden case, so probing other players' bid IDs reveals nothing.
func (r *BidRepo) DeleteByIDForPlayer(ctx context.Context, bidID, playerID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM bids WHERE id=? AND player_id=?", bidID, playerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBidNotFound
	}
	return nil
}

// NewByRoomTx returns the bids submitted for a room since the last tick
// (status new), within the provided transaction. Order is left to the
// auction resolver.
func (r *BidRepo) NewByRoomTx(ctx context.Context, tx *sql.Tx, roomID uint64) ([]model.Bid, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT id,room_id,player_id,amount,placed_at,status FROM bids WHERE room_id=? AND status='new'",
		roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Bid
	for rows.Next() {
		var (
			b      model.Bid
			status string
		)
		if err := rows.Scan(&b.ID, &b.RoomID, &b.PlayerID, &b.Amount, &b.PlacedAt, &status); err != nil {
			return nil, err
		}
		b.Status = model.BidStatus(status)
		out = append(out, b)
	}
	return out, rows.Err()
}

// SetStatusTx retires the given bids to the provided status within the
// transaction. Passing an empty slice has no effect and returns nil.
func (r *BidRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, bidIDs []uint64, status model.BidStatus) error {
	if len(bidIDs) == 0 {
		return nil
	}
	query := "UPDATE bids SET status=? WHERE id IN (?"
	args := make([]any, 0, len(bidIDs)+1)
	args = append(args, string(status), bidIDs[0])
	for _, id := range bidIDs[1:] {
		query += ",?"
		args = append(args, id)
	}
	query += ")"
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// Views returns the denormalized bid list for the snapshot, joining
// players for display names.
func (r *BidRepo) Views(ctx context.Context) ([]BidView, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT b.id, b.room_id, p.display_name, b.amount, b.placed_at, b.status
		 FROM bids b JOIN players p ON p.id = b.player_id
		 ORDER BY b.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BidView
	for rows.Next() {
		var v BidView
		if err := rows.Scan(&v.ID, &v.RoomID, &v.BidderName, &v.Amount, &v.PlacedAt, &v.Status); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
