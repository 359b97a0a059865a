package ledger

import "time"

type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Transaction is one immutable ledger entry. Rows are created exclusively by
// the award/deduct path and are never updated or deleted afterwards.
type Transaction struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	Direction     Direction      `json:"type"`
	Amount        int64          `json:"amount"`
	BalanceBefore int64          `json:"balance_before"`
	BalanceAfter  int64          `json:"balance_after"`
	ActivityCode  string         `json:"activity_code"`
	Description   string         `json:"description,omitempty"`
	ReferenceID   string         `json:"reference_id,omitempty"`
	ReferenceType string         `json:"reference_type,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Status        Status         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Signed returns the transaction's contribution to the running balance.
func (t *Transaction) Signed() int64 {
	if t.Direction == DirectionDebit {
		return -t.Amount
	}
	return t.Amount
}

// Entry describes a balance change to be applied atomically: the repository
// fills in identity, balance snapshots and timestamps at commit time.
type Entry struct {
	UserID        string
	Direction     Direction
	Amount        int64
	ActivityCode  string
	Description   string
	ReferenceID   string
	ReferenceType string
	Metadata      map[string]any
}

// HistoryFilter narrows a paginated ledger read.
type HistoryFilter struct {
	ActivityCode string
	Direction    Direction
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
}

// Summary aggregates a user's ledger alongside the cached balance.
type Summary struct {
	UserID      string `json:"user_id"`
	Balance     int64  `json:"balance"`
	TotalEarned int64  `json:"total_earned"`
	TotalSpent  int64  `json:"total_spent"`
	TxCount     int64  `json:"transaction_count"`
}
