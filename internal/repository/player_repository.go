package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/tower-construction-game/internal/model"
	"github.com/iliyamo/tower-construction-game/internal/utils"
)

// PlayerRepo provides data access to the players table. Balances are only
// ever changed through the guarded credit/debit methods so that the
// non-negative funds invariant holds at the storage layer.
type PlayerRepo struct{ DB *sql.DB }

func NewPlayerRepo(db *sql.DB) *PlayerRepo { return &PlayerRepo{DB: db} }

// Create inserts a player with the given starting funds and returns its ID.
func (r *PlayerRepo) Create(ctx context.Context, email, password, displayName string, cost int, startingFunds int64) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO players (email, password_hash, display_name, funds) VALUES (?,?,?,?)",
		email, hash, displayName, startingFunds)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a player by normalized email.
func (r *PlayerRepo) GetByEmail(ctx context.Context, email string) (model.Player, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var p model.Player
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,display_name,funds,shares,created_at,updated_at FROM players WHERE email=? LIMIT 1",
		email).Scan(&p.ID, &p.Email, &p.PasswordHash, &p.DisplayName, &p.Funds, &p.Shares, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrPlayerNotFound
	}
	return p, err
}

// GetByID fetches a player by id.
func (r *PlayerRepo) GetByID(ctx context.Context, id uint64) (model.Player, error) {
	var p model.Player
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,display_name,funds,shares,created_at,updated_at FROM players WHERE id=? LIMIT 1",
		id).Scan(&p.ID, &p.Email, &p.PasswordHash, &p.DisplayName, &p.Funds, &p.Shares, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrPlayerNotFound
	}
	return p, err
}

// FundsTx reads a player's current balance within the provided transaction.
func (r *PlayerRepo) FundsTx(ctx context.Context, tx *sql.Tx, playerID uint64) (int64, error) {
	var funds int64
	err := tx.QueryRowContext(ctx, "SELECT funds FROM players WHERE id=?", playerID).Scan(&funds)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrPlayerNotFound
	}
	return funds, err
}

// DebitTx subtracts amount from a player's balance within the provided
// transaction. The WHERE clause guards the balance: when it cannot cover
// the amount, zero rows match and ErrInsufficientFunds is returned with
// the balance untouched.
func (r *PlayerRepo) DebitTx(ctx context.Context, tx *sql.Tx, playerID uint64, amount int64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE players SET funds = funds - ? WHERE id = ? AND funds >= ?",
		amount, playerID, amount)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// Credit adds amount back to a player's balance. The renovation path
// uses it to compensate a debit when the order insert fails afterwards.
func (r *PlayerRepo) Credit(ctx context.Context, playerID uint64, amount int64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE players SET funds = funds + ? WHERE id = ?", amount, playerID)
	return err
}

// Debit is the non-transactional variant of DebitTx, used by the
// renovation submission path where a single guarded statement suffices.
func (r *PlayerRepo) Debit(ctx context.Context, playerID uint64, amount int64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE players SET funds = funds - ? WHERE id = ? AND funds >= ?",
		amount, playerID, amount)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientFunds
	}
	return nil
}
