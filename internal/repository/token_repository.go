package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/secure-calc-api/internal/model"
)

// TokenRepo persists refresh tokens.  Rows are append-only apart from
// the one-way revoked flag: tokens are never deleted, so the table
// doubles as an audit trail of every session ever issued.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

const tokenColumns = "id,user_id,token_hash,revoked,issued_at,expires_at"

func scanToken(row *sql.Row) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.Revoked, &t.IssuedAt, &t.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RefreshToken{}, ErrNotFound
	}
	return t, err
}

// Store inserts a refresh token row and returns its id.  The token_hash
// column carries a unique index; the raw token never reaches the
// database.
func (r *TokenRepo) Store(ctx context.Context, t model.RefreshToken) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, issued_at, expires_at) VALUES (?,?,?,?)",
		t.UserID, t.TokenHash, t.IssuedAt, t.ExpiresAt)
	if err != nil {
		return 0, mapDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByHash is the authoritative lookup for refresh and logout: the
// caller decides what a revoked or expired row means, this just
// retrieves it.
func (r *TokenRepo) FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	return scanToken(r.DB.QueryRowContext(ctx,
		"SELECT "+tokenColumns+" FROM refresh_tokens WHERE token_hash=? LIMIT 1", tokenHash))
}

// FindByID fetches a token row by primary key.
func (r *TokenRepo) FindByID(ctx context.Context, id uint64) (model.RefreshToken, error) {
	return scanToken(r.DB.QueryRowContext(ctx,
		"SELECT "+tokenColumns+" FROM refresh_tokens WHERE id=? LIMIT 1", id))
}

// Revoke flips the revoked flag for one token.  Revoking a token that
// is already revoked is a no-op success; a missing token reports
// ErrNotFound.
func (r *TokenRepo) Revoke(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE id=? AND revoked=0", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "already revoked" (fine) from "no such token".
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// RevokeAllForUser revokes every active token a user owns and reports
// how many were flipped.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE user_id=? AND revoked=0", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListForUser returns all tokens a user ever held, newest first.
func (r *TokenRepo) ListForUser(ctx context.Context, userID uint64) ([]model.RefreshToken, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+tokenColumns+" FROM refresh_tokens WHERE user_id=? ORDER BY id DESC", userID)
	if err != nil {
		return nil, err
	}
	return collectTokens(rows)
}

// ListAll returns tokens across all users with pagination.  Admin only.
func (r *TokenRepo) ListAll(ctx context.Context, offset, limit int) ([]model.RefreshToken, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+tokenColumns+" FROM refresh_tokens ORDER BY id DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, err
	}
	return collectTokens(rows)
}

func collectTokens(rows *sql.Rows) ([]model.RefreshToken, error) {
	defer rows.Close()
	out := []model.RefreshToken{}
	for rows.Next() {
		var t model.RefreshToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.Revoked, &t.IssuedAt, &t.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
