package redemption

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// RewardTypeGiftCard values carry a Luhn-checkable card number.
const RewardTypeGiftCard = "GIFT_CARD"

// Redemption is a user request to convert points into an external reward.
// Status moves pending -> approved|rejected|cancelled, approved -> cancelled;
// rejected and cancelled are terminal.
type Redemption struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Points      int64          `json:"points"`
	RewardType  string         `json:"reward_type"`
	RewardValue string         `json:"reward_value"`
	Details     map[string]any `json:"details,omitempty"`
	Status      Status         `json:"status"`
	RequestedAt time.Time      `json:"requested_at"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
	ProcessedBy string         `json:"processed_by,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	// TransactionID links the approval debit; RefundTransactionID the
	// compensating credit when an approved request is cancelled.
	TransactionID       string `json:"transaction_id,omitempty"`
	RefundTransactionID string `json:"refund_transaction_id,omitempty"`
}

// CanTransitionTo reports whether the state machine permits the move.
func (r *Redemption) CanTransitionTo(next Status) bool {
	switch r.Status {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected || next == StatusCancelled
	case StatusApproved:
		return next == StatusCancelled
	default:
		return false
	}
}
