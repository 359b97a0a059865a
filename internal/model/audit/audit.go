package audit

import "time"

// Drift is one user whose cached balance disagrees with the ledger sum.
type Drift struct {
	UserID            string `json:"user_id"`
	Username          string `json:"username"`
	CachedBalance     int64  `json:"cached_balance"`
	CalculatedBalance int64  `json:"calculated_balance"`
}

// Magnitude is the absolute size of the discrepancy.
func (d *Drift) Magnitude() int64 {
	diff := d.CachedBalance - d.CalculatedBalance
	if diff < 0 {
		return -diff
	}
	return diff
}

// Report aggregates one consistency check over all active users.
type Report struct {
	CheckedAt      time.Time `json:"checked_at"`
	UsersChecked   int       `json:"users_checked"`
	Drifts         []Drift   `json:"drifts"`
	TotalMagnitude int64     `json:"total_magnitude"`
}

// RepairResult records one audited cache overwrite. The repair never writes
// a ledger transaction: it corrects the cache to match the ledger.
type RepairResult struct {
	UserID     string    `json:"user_id"`
	OldBalance int64     `json:"old_balance"`
	NewBalance int64     `json:"new_balance"`
	Operator   string    `json:"operator"`
	RepairedAt time.Time `json:"repaired_at"`
}
