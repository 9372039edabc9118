package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/tower-construction-game/internal/model"
)

// TickRepo provides access to the single-row tick_meta table.
type TickRepo struct{ DB *sql.DB }

func NewTickRepo(db *sql.DB) *TickRepo { return &TickRepo{DB: db} }

// SetTx writes the last-tick timestamp within the tick transaction. The
// fixed id makes the insert an in-place replace after the first tick.
func (r *TickRepo) SetTx(ctx context.Context, tx *sql.Tx, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO tick_meta (id, last_tick_at) VALUES (1, ?)
		 ON DUPLICATE KEY UPDATE last_tick_at=VALUES(last_tick_at)`,
		at.UTC())
	return err
}

// Get returns the last completed tick timestamp. Before the first tick
// ever runs, a zero TickMeta is returned without error.
func (r *TickRepo) Get(ctx context.Context) (model.TickMeta, error) {
	var m model.TickMeta
	err := r.DB.QueryRowContext(ctx,
		"SELECT last_tick_at FROM tick_meta WHERE id=1").Scan(&m.LastTickAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TickMeta{}, nil
	}
	return m, err
}
