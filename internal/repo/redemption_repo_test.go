package repo

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talx-hub/gopher-points/internal/model/activity"
	"github.com/talx-hub/gopher-points/internal/model/ledger"
	"github.com/talx-hub/gopher-points/internal/model/redemption"
	"github.com/talx-hub/gopher-points/internal/serviceerrs"
)

func TestRedemptionRepository_ApproveFlow(t *testing.T) {
	pool := testPool(t)
	ledgerRepo := NewLedgerRepository(pool, slog.Default())
	repo := NewRedemptionRepository(pool, slog.Default())
	u := createTestUser(t, pool, "redemption-approve")

	ctx, cancel := context.WithTimeout(context.Background(), testDefaultTimeout)
	defer cancel()

	_, err := ledgerRepo.Apply(ctx, &ledger.Entry{
		UserID:       u.ID,
		Direction:    ledger.DirectionCredit,
		Amount:       500,
		ActivityCode: activity.CodeProductShare,
	})
	require.NoError(t, err)

	red := redemption.Redemption{
		UserID:      u.ID,
		Points:      200,
		RewardType:  "VOUCHER",
		RewardValue: "10-euro",
		Details:     map[string]any{"store": "web"},
	}
	require.NoError(t, repo.Create(ctx, &red))
	assert.Equal(t, redemption.StatusPending, red.Status)
	assert.False(t, red.RequestedAt.IsZero())

	approved, err := repo.Approve(ctx, red.ID, "op-1", "ok")
	require.NoError(t, err)
	assert.Equal(t, redemption.StatusApproved, approved.Status)
	assert.Equal(t, "op-1", approved.ProcessedBy)
	assert.NotEmpty(t, approved.TransactionID)
	require.NotNil(t, approved.ProcessedAt)

	users := NewUserRepository(pool, slog.Default())
	stored, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), stored.Balance)

	// the debit references the redemption
	txns, err := ledgerRepo.List(ctx, u.ID, &ledger.HistoryFilter{
		ActivityCode: activity.CodeRedemption})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, approved.TransactionID, txns[0].ID)
	assert.Equal(t, red.ID, txns[0].ReferenceID)
	assert.Equal(t, "redemption", txns[0].ReferenceType)

	// approved is not pending anymore
	_, err = repo.Approve(ctx, red.ID, "op-2", "")
	assert.True(t, serviceerrs.IsInvalidTransition(err))
}

func TestRedemptionRepository_ApproveInsufficientKeepsPending(t *testing.T) {
	pool := testPool(t)
	ledgerRepo := NewLedgerRepository(pool, slog.Default())
	repo := NewRedemptionRepository(pool, slog.Default())
	u := createTestUser(t, pool, "redemption-stale")

	ctx, cancel := context.WithTimeout(context.Background(), testDefaultTimeout)
	defer cancel()

	_, err := ledgerRepo.Apply(ctx, &ledger.Entry{
		UserID:       u.ID,
		Direction:    ledger.DirectionCredit,
		Amount:       500,
		ActivityCode: activity.CodeProductShare,
	})
	require.NoError(t, err)

	red := redemption.Redemption{
		UserID: u.ID, Points: 400, RewardType: "VOUCHER",
	}
	require.NoError(t, repo.Create(ctx, &red))

	// points spent between request and review
	_, err = ledgerRepo.Apply(ctx, &ledger.Entry{
		UserID:       u.ID,
		Direction:    ledger.DirectionDebit,
		Amount:       300,
		ActivityCode: activity.CodeRedemption,
	})
	require.NoError(t, err)

	_, err = repo.Approve(ctx, red.ID, "op-1", "")
	assert.ErrorIs(t, err, serviceerrs.ErrInsufficientBalance)

	still, err := repo.FindByID(ctx, red.ID)
	require.NoError(t, err)
	assert.Equal(t, redemption.StatusPending, still.Status)

	users := NewUserRepository(pool, slog.Default())
	stored, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), stored.Balance)
}

func TestRedemptionRepository_Reject(t *testing.T) {
	pool := testPool(t)
	ledgerRepo := NewLedgerRepository(pool, slog.Default())
	repo := NewRedemptionRepository(pool, slog.Default())
	u := createTestUser(t, pool, "redemption-reject")

	ctx, cancel := context.WithTimeout(context.Background(), testDefaultTimeout)
	defer cancel()

	_, err := ledgerRepo.Apply(ctx, &ledger.Entry{
		UserID:       u.ID,
		Direction:    ledger.DirectionCredit,
		Amount:       100,
		ActivityCode: activity.CodeProductShare,
	})
	require.NoError(t, err)

	red := redemption.Redemption{UserID: u.ID, Points: 40, RewardType: "VOUCHER"}
	require.NoError(t, repo.Create(ctx, &red))

	rejected, err := repo.Reject(ctx, red.ID, "op-1", "out of stock")
	require.NoError(t, err)
	assert.Equal(t, redemption.StatusRejected, rejected.Status)
	assert.Equal(t, "out of stock", rejected.Notes)
	assert.Empty(t, rejected.TransactionID)

	users := NewUserRepository(pool, slog.Default())
	stored, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stored.Balance)

	// rejected is terminal
	_, err = repo.Cancel(ctx, red.ID)
	assert.True(t, serviceerrs.IsInvalidTransition(err))
}

func TestRedemptionRepository_CancelApprovedRefunds(t *testing.T) {
	pool := testPool(t)
	ledgerRepo := NewLedgerRepository(pool, slog.Default())
	repo := NewRedemptionRepository(pool, slog.Default())
	u := createTestUser(t, pool, "redemption-cancel")

	ctx, cancel := context.WithTimeout(context.Background(), testDefaultTimeout)
	defer cancel()

	_, err := ledgerRepo.Apply(ctx, &ledger.Entry{
		UserID:       u.ID,
		Direction:    ledger.DirectionCredit,
		Amount:       500,
		ActivityCode: activity.CodeProductShare,
	})
	require.NoError(t, err)

	red := redemption.Redemption{UserID: u.ID, Points: 200, RewardType: "VOUCHER"}
	require.NoError(t, repo.Create(ctx, &red))
	approved, err := repo.Approve(ctx, red.ID, "op-1", "")
	require.NoError(t, err)

	cancelled, err := repo.Cancel(ctx, red.ID)
	require.NoError(t, err)
	assert.Equal(t, redemption.StatusCancelled, cancelled.Status)

	users := NewUserRepository(pool, slog.Default())
	stored, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), stored.Balance)

	refunds, err := ledgerRepo.List(ctx, u.ID, &ledger.HistoryFilter{
		ActivityCode: activity.CodeRefund})
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.Equal(t, int64(200), refunds[0].Amount)
	assert.Equal(t, ledger.DirectionCredit, refunds[0].Direction)
	assert.Equal(t, red.ID, refunds[0].ReferenceID)

	// the approval debit stays linked after cancellation; the refund credit
	// is recorded separately
	assert.Equal(t, approved.TransactionID, cancelled.TransactionID)
	assert.Equal(t, refunds[0].ID, cancelled.RefundTransactionID)

	reread, err := repo.FindByID(ctx, red.ID)
	require.NoError(t, err)
	assert.Equal(t, approved.TransactionID, reread.TransactionID)
	assert.Equal(t, refunds[0].ID, reread.RefundTransactionID)
}

func TestRedemptionRepository_Lists(t *testing.T) {
	pool := testPool(t)
	ledgerRepo := NewLedgerRepository(pool, slog.Default())
	repo := NewRedemptionRepository(pool, slog.Default())
	u := createTestUser(t, pool, "redemption-lists")

	ctx, cancel := context.WithTimeout(context.Background(), testDefaultTimeout)
	defer cancel()

	_, err := ledgerRepo.Apply(ctx, &ledger.Entry{
		UserID:       u.ID,
		Direction:    ledger.DirectionCredit,
		Amount:       100,
		ActivityCode: activity.CodeProductShare,
	})
	require.NoError(t, err)

	first := redemption.Redemption{UserID: u.ID, Points: 10, RewardType: "VOUCHER"}
	require.NoError(t, repo.Create(ctx, &first))
	second := redemption.Redemption{UserID: u.ID, Points: 20, RewardType: "VOUCHER"}
	require.NoError(t, repo.Create(ctx, &second))

	_, err = repo.Approve(ctx, first.ID, "op-1", "")
	require.NoError(t, err)

	byUser, err := repo.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	pending, err := repo.ListByStatus(ctx, redemption.StatusPending)
	require.NoError(t, err)
	found := false
	for _, r := range pending {
		assert.Equal(t, redemption.StatusPending, r.Status)
		if r.ID == second.ID {
			found = true
		}
	}
	assert.True(t, found)

	_, err = repo.FindByID(ctx, "00000000-0000-0000-0000-0000000000bb")
	assert.ErrorIs(t, err, serviceerrs.ErrRedemptionNotFound)
}
