package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/secure-calc-api/internal/model"
)

// UserRepo persists users.  Password hashing happens in the service
// layer; this type only moves rows.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,email,password_hash,role,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// Create inserts a user with the default role and returns its ID.
// Duplicate username/email surfaces as ErrUsernameExists/ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string) (uint64, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role) VALUES (?,?,?,?)",
		username, email, passwordHash, model.RoleUser)
	if err != nil {
		return 0, mapDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
}

// GetByIdentifier fetches a user by username or email in a single
// query.  Login accepts either form of identifier.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	identifier = strings.TrimSpace(identifier)
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? OR email=? LIMIT 1",
		identifier, strings.ToLower(identifier)))
}

// List returns users ordered by id with LIMIT/OFFSET pagination.
func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListWithTokenCounts returns users together with how many refresh
// tokens were ever issued to each.  Used by the admin user listing.
func (r *UserRepo) ListWithTokenCounts(ctx context.Context, offset, limit int) ([]model.UserTokenCount, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT u.id, u.username, u.email, u.role, COUNT(t.id)
		FROM users u
		LEFT JOIN refresh_tokens t ON t.user_id = u.id
		GROUP BY u.id, u.username, u.email, u.role
		ORDER BY u.id
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.UserTokenCount{}
	for rows.Next() {
		var c model.UserTokenCount
		if err := rows.Scan(&c.ID, &c.Username, &c.Email, &c.Role, &c.TokenCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateRole sets a user's role by username.  ErrNotFound when no such
// user exists.
func (r *UserRepo) UpdateRole(ctx context.Context, username string, role model.Role) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=? WHERE username=?", role, username)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either missing or already holding that role; tell them apart.
		if _, err := r.GetByUsername(ctx, username); err != nil {
			return err
		}
	}
	return nil
}

// UpdateProfile replaces username and/or email for a user.  Empty
// fields are left untouched.  Uniqueness violations map to the same
// sentinels as Create.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, username, email string) error {
	sets := []string{}
	args := []interface{}{}
	if username = strings.TrimSpace(username); username != "" {
		sets = append(sets, "username=?")
		args = append(args, username)
	}
	if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
		sets = append(sets, "email=?")
		args = append(args, email)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	return mapDuplicate(err)
}

// UpdatePassword stores a new password hash for a user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", passwordHash, id)
	return err
}
