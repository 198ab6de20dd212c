package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo keeps refresh tokens as SHA-256 hashes.  A token is live while
// it is neither revoked nor past expires_at.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// ErrTokenInvalid covers unknown, revoked, expired and already consumed
// refresh tokens alike.
var ErrTokenInvalid = errors.New("refresh token invalid")

// StoreRefresh records a newly issued token.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC())
	return err
}

// Lookup returns the user owning a live token without spending it.
func (r *TokenRepo) Lookup(ctx context.Context, tokenHash string) (uint64, error) {
	return liveToken(ctx, r.DB, tokenHash)
}

// Consume spends a live token and returns its user.  Of two concurrent
// calls with the same token only one succeeds.
func (r *TokenRepo) Consume(ctx context.Context, tokenHash string) (uint64, error) {
	var userID uint64
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		id, err := liveToken(ctx, tx, tokenHash)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"UPDATE refresh_tokens SET revoked_at = CURRENT_TIMESTAMP WHERE token_hash = ? AND revoked_at IS NULL",
			tokenHash)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrTokenInvalid
		}
		userID = id
		return nil
	})
	return userID, err
}

// RevokeAllForUser ends every session of a user.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = CURRENT_TIMESTAMP WHERE user_id = ? AND revoked_at IS NULL",
		userID)
	return err
}

func liveToken(ctx context.Context, q querier, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
	)
	err := q.QueryRowContext(ctx,
		"SELECT user_id, expires_at FROM refresh_tokens WHERE token_hash = ? AND revoked_at IS NULL",
		tokenHash).Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrTokenInvalid
	}
	if err != nil {
		return 0, err
	}
	// expires_at is compared here; DATETIME text formats differ per driver.
	if !time.Now().Before(expiresAt) {
		return 0, ErrTokenInvalid
	}
	return userID, nil
}
