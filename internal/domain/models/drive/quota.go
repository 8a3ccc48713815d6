package drive

import (
	"time"
)

// Quota is a user's storage ledger. Invariant: 0 <= Used <= Limit at the end
// of every transaction; the bound is checked before commit, inside the same
// transaction as the object mutation that moves Used.
type Quota struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Limit     int64     `json:"limit" db:"limit_bytes"`
	Used      int64     `json:"used" db:"used_bytes"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Remaining returns the bytes still available under the limit.
func (q *Quota) Remaining() int64 {
	if q.Used >= q.Limit {
		return 0
	}
	return q.Limit - q.Used
}
