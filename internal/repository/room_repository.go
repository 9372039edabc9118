package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/tower-construction-game/internal/model"
)

// RoomRepo provides data access to the rooms table. Lifecycle mutations
// happen inside the tick transaction via the ...Tx variants; the plain
// methods serve the request path and the renovation worker.
type RoomRepo struct{ DB *sql.DB }

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{DB: db} }

const roomColumns = "id,x,y,sector,wear,status,created_at,updated_at"

func scanRoom(row interface{ Scan(...any) error }) (model.Room, error) {
	var (
		rm     model.Room
		sector string
		status string
	)
	err := row.Scan(&rm.ID, &rm.X, &rm.Y, &sector, &rm.Wear, &status, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		return rm, err
	}
	rm.Sector = model.ParseSector(sector)
	rm.Status = model.RoomStatus(status)
	return rm, nil
}

// GetByID fetches a room by id.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (model.Room, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE id=? LIMIT 1", id)
	rm, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rm, ErrRoomNotFound
	}
	return rm, err
}

// AllTx returns every room within the provided transaction. The planner
// derives grid occupancy from the result.
func (r *RoomRepo) AllTx(ctx context.Context, tx *sql.Tx) ([]model.Room, error) {
	rows, err := tx.QueryContext(ctx, "SELECT "+roomColumns+" FROM rooms")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// PlannedTx returns all rooms currently in planned status within the
// provided transaction, in stable id order.
func (r *RoomRepo) PlannedTx(ctx context.Context, tx *sql.Tx) ([]model.Room, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE status='planned' ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// AdvanceLifecycleTx ages every new_constructed room into old_constructed.
// Running it twice in succession is a no-op the second time.
func (r *RoomRepo) AdvanceLifecycleTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE rooms SET status='old_constructed' WHERE status='new_constructed'")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ConstructTx transitions a planned room to new_constructed with wear
// reset to zero, the effect of a winning bid.
func (r *RoomRepo) ConstructTx(ctx context.Context, tx *sql.Tx, roomID uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE rooms SET status='new_constructed', wear=0 WHERE id=? AND status='planned'", roomID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// DeletePlannedTx prunes every room still in planned status. Constructed
// rooms are never touched.
func (r *RoomRepo) DeletePlannedTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM rooms WHERE status='planned'")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CreatePlannedTx bulk-inserts freshly planned rooms. Passing an empty
// slice has no effect and returns nil.
func (r *RoomRepo) CreatePlannedTx(ctx context.Context, tx *sql.Tx, rooms []model.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	query := "INSERT INTO rooms (x, y, sector, wear, status) VALUES "
	args := make([]any, 0, len(rooms)*3)
	for i, rm := range rooms {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, 0, 'planned')"
		args = append(args, rm.X, rm.Y, string(rm.Sector))
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ReduceWear subtracts amount from a room's wear, clamped at zero. Used
// by the renovation worker outside the tick transaction. RowsAffected is
// not consulted: MySQL reports zero for a no-change update, which is a
// legitimate outcome when wear is already zero.
func (r *RoomRepo) ReduceWear(ctx context.Context, roomID uint64, amount int) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE rooms SET wear = GREATEST(wear - ?, 0) WHERE id=?", amount, roomID)
	return err
}

// All returns every room from the primary store. The snapshot
// materializer is its only caller; the read path never queries rooms
// directly.
func (r *RoomRepo) All(ctx context.Context) ([]model.Room, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+roomColumns+" FROM rooms ORDER BY y, x")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}
