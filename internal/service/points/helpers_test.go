package points

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/talx-hub/gopher-points/internal/model/activity"
	"github.com/talx-hub/gopher-points/internal/model/ledger"
	"github.com/talx-hub/gopher-points/internal/model/user"
	"github.com/talx-hub/gopher-points/internal/serviceerrs"
)

// In-memory doubles used by the package tests. memLedger keeps the same
// semantics as the SQL repository: balances never go negative, every apply
// snapshots before/after.

type memActivities struct {
	rules map[string]activity.Rule
}

func (m *memActivities) FindByCode(_ context.Context, code string,
) (activity.Rule, error) {
	r, ok := m.rules[code]
	if !ok {
		return activity.Rule{}, serviceerrs.ErrActivityNotFound
	}
	return r, nil
}

func (m *memActivities) ListActive(_ context.Context) ([]activity.Rule, error) {
	var rules []activity.Rule
	for _, r := range m.rules {
		if r.IsActive {
			rules = append(rules, r)
		}
	}
	return rules, nil
}

type memUsers struct {
	users map[string]user.User
}

func (m *memUsers) FindByID(_ context.Context, id string) (user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return user.User{}, serviceerrs.ErrUserNotFound
	}
	return u, nil
}

type memLedger struct {
	users *memUsers
	txns  []ledger.Transaction
	now   func() time.Time
}

func (m *memLedger) clock() time.Time {
	if m.now == nil {
		return time.Now().UTC()
	}
	return m.now()
}

func (m *memLedger) Apply(_ context.Context, e *ledger.Entry,
) (ledger.Transaction, error) {
	u, ok := m.users.users[e.UserID]
	if !ok {
		return ledger.Transaction{}, serviceerrs.ErrUserNotFound
	}

	before := u.Balance
	after := before + e.Amount
	if e.Direction == ledger.DirectionDebit {
		after = before - e.Amount
		if after < 0 {
			return ledger.Transaction{}, serviceerrs.ErrInsufficientBalance
		}
	}

	t := ledger.Transaction{
		ID:            uuid.NewString(),
		UserID:        e.UserID,
		Direction:     e.Direction,
		Amount:        e.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		ActivityCode:  e.ActivityCode,
		Description:   e.Description,
		ReferenceID:   e.ReferenceID,
		ReferenceType: e.ReferenceType,
		Metadata:      e.Metadata,
		Status:        ledger.StatusCompleted,
		CreatedAt:     m.clock(),
	}
	m.txns = append(m.txns, t)

	u.Balance = after
	m.users.users[e.UserID] = u
	return t, nil
}

func (m *memLedger) CountByUserActivity(_ context.Context,
	userID, activityCode string, from, to *time.Time,
) (int, error) {
	count := 0
	for _, t := range m.txns {
		if t.UserID != userID || t.ActivityCode != activityCode ||
			t.Status != ledger.StatusCompleted {
			continue
		}
		if from != nil && t.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && !t.CreatedAt.Before(*to) {
			continue
		}
		count++
	}
	return count, nil
}

func (m *memLedger) List(_ context.Context,
	userID string, filter *ledger.HistoryFilter,
) ([]ledger.Transaction, error) {
	var result []ledger.Transaction
	for _, t := range m.txns {
		if t.UserID != userID {
			continue
		}
		if filter.ActivityCode != "" && t.ActivityCode != filter.ActivityCode {
			continue
		}
		if filter.Direction != "" && t.Direction != filter.Direction {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func (m *memLedger) Summary(_ context.Context, userID string,
) (ledger.Summary, error) {
	u, ok := m.users.users[userID]
	if !ok {
		return ledger.Summary{}, serviceerrs.ErrUserNotFound
	}

	s := ledger.Summary{UserID: userID, Balance: u.Balance}
	for _, t := range m.txns {
		if t.UserID != userID || t.Status != ledger.StatusCompleted {
			continue
		}
		s.TxCount++
		if t.Direction == ledger.DirectionCredit {
			s.TotalEarned += t.Amount
		} else {
			s.TotalSpent += t.Amount
		}
	}
	return s, nil
}

// signedSum recomputes a user's balance from the fake ledger, mirroring the
// consistency invariant the auditor checks in production.
func (m *memLedger) signedSum(userID string) int64 {
	var sum int64
	for _, t := range m.txns {
		if t.UserID == userID && t.Status == ledger.StatusCompleted {
			sum += t.Signed()
		}
	}
	return sum
}
