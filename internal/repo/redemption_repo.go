package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/talx-hub/gopher-points/internal/model/activity"
	"github.com/talx-hub/gopher-points/internal/model/ledger"
	"github.com/talx-hub/gopher-points/internal/model/redemption"
	"github.com/talx-hub/gopher-points/internal/serviceerrs"
)

type RedemptionRepository struct {
	DB
}

func NewRedemptionRepository(pool connectionPool, log *slog.Logger) *RedemptionRepository {
	return &RedemptionRepository{
		DB{
			pool: pool,
			log:  log,
		},
	}
}

func (r *RedemptionRepository) Create(ctx context.Context,
	red *redemption.Redemption,
) error {
	if red.ID == "" {
		red.ID = uuid.NewString()
	}
	red.Status = redemption.StatusPending

	createLogic := func() (struct{}, error) {
		err := r.pool.QueryRow(ctx,
			`INSERT INTO redemptions
			   (id_redemption, id_user, points, reward_type, reward_value, details)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING requested_at`,
			red.ID, red.UserID, red.Points,
			red.RewardType, red.RewardValue, red.Details,
		).Scan(&red.RequestedAt)
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to insert redemption: %w", err)
		}
		return struct{}{}, nil
	}

	_, err := WithRetry[struct{}](createLogic, 0)
	return err //nolint: wrapcheck // error from wrapped function
}

const selectRedemptionColumns = `SELECT id_redemption, id_user, points,
       reward_type, reward_value, details, status_redemption,
       requested_at, processed_at, processed_by, notes,
       id_transaction::text, id_refund_transaction::text
  FROM redemptions `

func (r *RedemptionRepository) FindByID(ctx context.Context, id string,
) (redemption.Redemption, error) {
	findLogic := func() (redemption.Redemption, error) {
		return scanRedemption(r.pool.QueryRow(ctx,
			selectRedemptionColumns+`WHERE id_redemption = $1`, id))
	}

	red, err := WithRetry[redemption.Redemption](findLogic, 0)
	if err != nil {
		return redemption.Redemption{}, err //nolint: wrapcheck // error from wrapped function
	}
	return red, nil
}

func (r *RedemptionRepository) ListByUser(ctx context.Context, userID string,
) ([]redemption.Redemption, error) {
	return r.list(ctx,
		selectRedemptionColumns+`WHERE id_user = $1 ORDER BY requested_at DESC`,
		userID)
}

// ListByStatus feeds the operator queue.
func (r *RedemptionRepository) ListByStatus(ctx context.Context,
	status redemption.Status,
) ([]redemption.Redemption, error) {
	return r.list(ctx,
		selectRedemptionColumns+`WHERE status_redemption = $1 ORDER BY requested_at`,
		string(status))
}

func (r *RedemptionRepository) list(ctx context.Context, query string, arg any,
) ([]redemption.Redemption, error) {
	listLogic := func() ([]redemption.Redemption, error) {
		rows, err := r.pool.Query(ctx, query, arg)
		if err != nil {
			return nil, fmt.Errorf("failed to list redemptions: %w", err)
		}
		defer rows.Close()

		var reds []redemption.Redemption
		for rows.Next() {
			red, err := scanRedemption(rows)
			if err != nil {
				return nil, err
			}
			reds = append(reds, red)
		}
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read redemption rows: %w", err)
		}
		return reds, nil
	}

	return WithRetry[[]redemption.Redemption](listLogic, 0)
}

// Approve flips a pending redemption to approved and writes the REDEMPTION
// debit in the same transaction. The live balance is re-read under lock: a
// user who spent points since requesting fails here with
// ErrInsufficientBalance and the request stays pending.
func (r *RedemptionRepository) Approve(ctx context.Context,
	id, operatorID, notes string,
) (redemption.Redemption, error) {
	approveLogic := func(ctx context.Context, tx connectionPool) (any, error) {
		red, err := lockRedemptionTX(ctx, tx, id)
		if err != nil {
			return redemption.Redemption{}, err
		}
		if red.Status != redemption.StatusPending {
			return redemption.Redemption{}, &serviceerrs.InvalidStateTransitionError{
				From: string(red.Status),
				To:   string(redemption.StatusApproved),
			}
		}

		t, err := applyEntryTX(ctx, tx, &ledger.Entry{
			UserID:        red.UserID,
			Direction:     ledger.DirectionDebit,
			Amount:        red.Points,
			ActivityCode:  activity.CodeRedemption,
			Description:   fmt.Sprintf("redemption of %d points", red.Points),
			ReferenceID:   red.ID,
			ReferenceType: "redemption",
		})
		if err != nil {
			return redemption.Redemption{}, err
		}

		return finishRedemptionTX(ctx, tx, &red,
			redemption.StatusApproved, operatorID, notes, t.ID, "")
	}

	approveWithTX := func() (redemption.Redemption, error) {
		return WithTX[redemption.Redemption](ctx, r.pool, r.log, approveLogic)
	}

	return WithRetry[redemption.Redemption](approveWithTX, 0)
}

// Reject flips a pending redemption to rejected. No balance effect.
func (r *RedemptionRepository) Reject(ctx context.Context,
	id, operatorID, notes string,
) (redemption.Redemption, error) {
	rejectLogic := func(ctx context.Context, tx connectionPool) (any, error) {
		red, err := lockRedemptionTX(ctx, tx, id)
		if err != nil {
			return redemption.Redemption{}, err
		}
		if red.Status != redemption.StatusPending {
			return redemption.Redemption{}, &serviceerrs.InvalidStateTransitionError{
				From: string(red.Status),
				To:   string(redemption.StatusRejected),
			}
		}

		return finishRedemptionTX(ctx, tx, &red,
			redemption.StatusRejected, operatorID, notes, "", "")
	}

	rejectWithTX := func() (redemption.Redemption, error) {
		return WithTX[redemption.Redemption](ctx, r.pool, r.log, rejectLogic)
	}

	return WithRetry[redemption.Redemption](rejectWithTX, 0)
}

// Cancel is legal from pending or approved. The approved path reverses the
// earlier debit with a compensating REFUND credit before the status flip,
// all in one transaction.
func (r *RedemptionRepository) Cancel(ctx context.Context, id string,
) (redemption.Redemption, error) {
	cancelLogic := func(ctx context.Context, tx connectionPool) (any, error) {
		red, err := lockRedemptionTX(ctx, tx, id)
		if err != nil {
			return redemption.Redemption{}, err
		}
		if !red.CanTransitionTo(redemption.StatusCancelled) {
			return redemption.Redemption{}, &serviceerrs.InvalidStateTransitionError{
				From: string(red.Status),
				To:   string(redemption.StatusCancelled),
			}
		}

		// the approval debit stays linked; the refund gets its own column
		refundTxID := ""
		if red.Status == redemption.StatusApproved {
			t, err := applyEntryTX(ctx, tx, &ledger.Entry{
				UserID:        red.UserID,
				Direction:     ledger.DirectionCredit,
				Amount:        red.Points,
				ActivityCode:  activity.CodeRefund,
				Description:   fmt.Sprintf("refund of cancelled redemption %s", red.ID),
				ReferenceID:   red.ID,
				ReferenceType: "redemption",
			})
			if err != nil {
				return redemption.Redemption{}, err
			}
			refundTxID = t.ID
		}

		return finishRedemptionTX(ctx, tx, &red, redemption.StatusCancelled,
			red.ProcessedBy, red.Notes, red.TransactionID, refundTxID)
	}

	cancelWithTX := func() (redemption.Redemption, error) {
		return WithTX[redemption.Redemption](ctx, r.pool, r.log, cancelLogic)
	}

	return WithRetry[redemption.Redemption](cancelWithTX, 0)
}

// lockRedemptionTX reads the request FOR UPDATE so two operators cannot race
// one transition. Lock order is always redemption row, then balance row.
func lockRedemptionTX(ctx context.Context, tx connectionPool, id string,
) (redemption.Redemption, error) {
	red, err := scanRedemption(tx.QueryRow(ctx,
		selectRedemptionColumns+`WHERE id_redemption = $1 FOR UPDATE`, id))
	if err != nil {
		return redemption.Redemption{}, err
	}
	return red, nil
}

func finishRedemptionTX(ctx context.Context, tx connectionPool,
	red *redemption.Redemption, status redemption.Status,
	operatorID, notes, txID, refundTxID string,
) (redemption.Redemption, error) {
	processedAt := time.Now().UTC()
	_, err := tx.Exec(ctx,
		`UPDATE redemptions
		 SET status_redemption = $2, processed_at = $3,
		     processed_by = $4, notes = $5,
		     id_transaction = $6::uuid, id_refund_transaction = $7::uuid
		 WHERE id_redemption = $1`,
		red.ID, string(status), processedAt,
		nullText(operatorID), nullText(notes), nullText(txID), nullText(refundTxID))
	if err != nil {
		return redemption.Redemption{}, fmt.Errorf("failed to update redemption: %w", err)
	}

	red.Status = status
	red.ProcessedAt = &processedAt
	red.ProcessedBy = operatorID
	red.Notes = notes
	red.TransactionID = txID
	red.RefundTransactionID = refundTxID
	return *red, nil
}

func scanRedemption(row rowScanner) (redemption.Redemption, error) {
	var (
		red         redemption.Redemption
		details     map[string]any
		processedAt pgtype.Timestamptz
		processedBy pgtype.Text
		notes       pgtype.Text
		txID        pgtype.Text
		refundTxID  pgtype.Text
	)
	err := row.Scan(&red.ID, &red.UserID, &red.Points,
		&red.RewardType, &red.RewardValue, &details, &red.Status,
		&red.RequestedAt, &processedAt, &processedBy, &notes, &txID, &refundTxID)
	if errors.Is(err, pgx.ErrNoRows) {
		return redemption.Redemption{}, serviceerrs.ErrRedemptionNotFound
	}
	if err != nil {
		return redemption.Redemption{}, fmt.Errorf("failed to scan redemption: %w", err)
	}
	red.Details = details
	if processedAt.Valid {
		red.ProcessedAt = &processedAt.Time
	}
	red.ProcessedBy = processedBy.String
	red.Notes = notes.String
	red.TransactionID = txID.String
	red.RefundTransactionID = refundTxID.String
	return red, nil
}
