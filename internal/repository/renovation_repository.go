package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/tower-construction-game/internal/model"
)

// RenovationRepo provides data access to the renovation_orders table.
// Orders move pending -> processing -> completed; the worker owns every
// transition after submission.
type RenovationRepo struct{ DB *sql.DB }

func NewRenovationRepo(db *sql.DB) *RenovationRepo { return &RenovationRepo{DB: db} }

// HasPending reports whether the player already has a pending order for
// the room. Submission is blocked while one exists.
func (r *RenovationRepo) HasPending(ctx context.Context, roomID, playerID uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM renovation_orders WHERE room_id=? AND player_id=? AND status='pending'",
		roomID, playerID).Scan(&n)
	return n > 0, err
}

// Create inserts a pending order and returns its ID. Cost and wear
// reduction are copied from the catalog at submission time so later
// catalog changes do not rewrite in-flight orders.
func (r *RenovationRepo) Create(ctx context.Context, o model.RenovationOrder) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO renovation_orders (room_id, player_id, kind, cost, wear_reduction, status)
		 VALUES (?, ?, ?, ?, ?, 'pending')`,
		o.RoomID, o.PlayerID, o.Kind, o.Cost, o.WearReduction)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches an order by id.
func (r *RenovationRepo) GetByID(ctx context.Context, id uint64) (model.RenovationOrder, error) {
	var (
		o      model.RenovationOrder
		status string
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, room_id, player_id, kind, cost, wear_reduction, status, created_at, updated_at
		 FROM renovation_orders WHERE id=? LIMIT 1`, id).
		Scan(&o.ID, &o.RoomID, &o.PlayerID, &o.Kind, &o.Cost, &o.WearReduction, &status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return o, ErrOrderNotFound
	}
	o.Status = model.RenovationStatus(status)
	return o, err
}

// MarkProcessing claims a pending order for the worker. A second consumer
// racing on the same order loses the guarded update and gets false.
func (r *RenovationRepo) MarkProcessing(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE renovation_orders SET status='processing' WHERE id=? AND status='pending'", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Complete marks a processing order as completed.
func (r *RenovationRepo) Complete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE renovation_orders SET status='completed' WHERE id=? AND status='processing'", id)
	return err
}

// RevertToPending returns a processing order to pending after a
// recoverable worker failure so the next delivery can retry it.
func (r *RenovationRepo) RevertToPending(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE renovation_orders SET status='pending' WHERE id=? AND status='processing'", id)
	return err
}
