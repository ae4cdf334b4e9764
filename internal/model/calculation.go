package model

import "time"

// Calculation mirrors a row of the `calculations` table.  Every
// calculation belongs to exactly one user.  Operands are persisted as a
// JSON array in a MySQL JSON column; Result is always recomputed
// server-side from the operands before a row is written, never taken
// from client input.
type Calculation struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Operation string    `json:"operation"` // add | sub | mul | div
	Operands  []float64 `json:"operands"`
	Result    float64   `json:"result"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
