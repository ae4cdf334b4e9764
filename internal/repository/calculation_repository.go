package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/iliyamo/secure-calc-api/internal/model"
)

// CalcRepo persists calculations.  Operands travel as a JSON array in a
// MySQL JSON column; the stored result is always the one computed by
// the service layer.
type CalcRepo struct{ DB *sql.DB }

func NewCalcRepo(db *sql.DB) *CalcRepo { return &CalcRepo{DB: db} }

const calcColumns = "id,user_id,operation,operands,result,created_at,updated_at"

// Create inserts a calculation and returns its id.
func (r *CalcRepo) Create(ctx context.Context, c model.Calculation) (uint64, error) {
	operands, err := json.Marshal(c.Operands)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO calculations (user_id, operation, operands, result) VALUES (?,?,?,?)",
		c.UserID, c.Operation, operands, c.Result)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a calculation regardless of owner.  Ownership (and
// the 404-for-foreign-rows policy) is enforced by the caller, which
// also knows whether the principal is an admin.
func (r *CalcRepo) GetByID(ctx context.Context, id uint64) (model.Calculation, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+calcColumns+" FROM calculations WHERE id=? LIMIT 1", id))
}

// ListForUser returns one user's calculations, oldest first.
func (r *CalcRepo) ListForUser(ctx context.Context, userID uint64, offset, limit int) ([]model.Calculation, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+calcColumns+" FROM calculations WHERE user_id=? ORDER BY id LIMIT ? OFFSET ?",
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// ListAll returns calculations across all users.  Admin only.
func (r *CalcRepo) ListAll(ctx context.Context, offset, limit int) ([]model.Calculation, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+calcColumns+" FROM calculations ORDER BY id LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// Update replaces operation, operands and result of an existing row.
func (r *CalcRepo) Update(ctx context.Context, c model.Calculation) error {
	operands, err := json.Marshal(c.Operands)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE calculations SET operation=?, operands=?, result=? WHERE id=?",
		c.Operation, operands, c.Result, c.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes a calculation row.
func (r *CalcRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM calculations WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CalcRepo) scanOne(row *sql.Row) (model.Calculation, error) {
	var (
		c   model.Calculation
		raw []byte
	)
	err := row.Scan(&c.ID, &c.UserID, &c.Operation, &raw, &c.Result, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Calculation{}, ErrNotFound
	}
	if err != nil {
		return model.Calculation{}, err
	}
	if err := json.Unmarshal(raw, &c.Operands); err != nil {
		return model.Calculation{}, err
	}
	return c, nil
}

func (r *CalcRepo) collect(rows *sql.Rows) ([]model.Calculation, error) {
	defer rows.Close()
	out := []model.Calculation{}
	for rows.Next() {
		var (
			c   model.Calculation
			raw []byte
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Operation, &raw, &c.Result, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &c.Operands); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
