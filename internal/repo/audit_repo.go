package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/talx-hub/gopher-points/internal/model/audit"
	"github.com/talx-hub/gopher-points/internal/model/ledger"
	"github.com/talx-hub/gopher-points/internal/serviceerrs"
)

type AuditRepository struct {
	DB
}

func NewAuditRepository(pool connectionPool, log *slog.Logger) *AuditRepository {
	return &AuditRepository{
		DB{
			pool: pool,
			log:  log,
		},
	}
}

// CalculateBalances recomputes every active user's true balance as the
// signed sum of completed ledger entries, next to the cached value.
func (r *AuditRepository) CalculateBalances(ctx context.Context,
) ([]audit.Drift, error) {
	calcLogic := func() ([]audit.Drift, error) {
		rows, err := r.pool.Query(ctx, `
			SELECT u.id_user, u.username, u.balance,
			       COALESCE(SUM(
			           CASE WHEN t.direction = 'credit' THEN t.amount
			                ELSE -t.amount END), 0) AS calculated
			  FROM users u
			  LEFT JOIN transactions t
			         ON t.id_user = u.id_user AND t.status_tx = $1
			 WHERE u.is_active
			 GROUP BY u.id_user, u.username, u.balance
			 ORDER BY u.username`,
			string(ledger.StatusCompleted))
		if err != nil {
			return nil, fmt.Errorf("failed to recalculate balances: %w", err)
		}
		defer rows.Close()

		var drifts []audit.Drift
		for rows.Next() {
			var d audit.Drift
			if err = rows.Scan(&d.UserID, &d.Username,
				&d.CachedBalance, &d.CalculatedBalance); err != nil {
				return nil, fmt.Errorf("failed to scan balance row: %w", err)
			}
			drifts = append(drifts, d)
		}
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read balance rows: %w", err)
		}
		return drifts, nil
	}

	return WithRetry[[]audit.Drift](calcLogic, 0)
}

// RepairBalance overwrites one user's cached balance with the recomputed
// ledger sum and records the overwrite in balance_audit_log. Unlike every
// other balance write, no ledger transaction is created: the repair corrects
// the cache, it is not an economic event.
func (r *AuditRepository) RepairBalance(ctx context.Context,
	userID, operator string,
) (audit.RepairResult, error) {
	repairLogic := func(ctx context.Context, tx connectionPool) (any, error) {
		var old int64
		err := tx.QueryRow(ctx,
			`SELECT balance FROM users WHERE id_user = $1 FOR UPDATE`,
			userID,
		).Scan(&old)
		if errors.Is(err, pgx.ErrNoRows) {
			return audit.RepairResult{}, serviceerrs.ErrUserNotFound
		}
		if err != nil {
			return audit.RepairResult{}, fmt.Errorf("failed to lock balance: %w", err)
		}

		var calculated int64
		if err = tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(
			           CASE WHEN direction = 'credit' THEN amount
			                ELSE -amount END), 0)
			  FROM transactions
			 WHERE id_user = $1 AND status_tx = $2`,
			userID, string(ledger.StatusCompleted),
		).Scan(&calculated); err != nil {
			return audit.RepairResult{}, fmt.Errorf("failed to sum ledger: %w", err)
		}

		if _, err = tx.Exec(ctx,
			`UPDATE users SET balance = $2 WHERE id_user = $1`,
			userID, calculated,
		); err != nil {
			return audit.RepairResult{}, fmt.Errorf("failed to overwrite balance: %w", err)
		}

		res := audit.RepairResult{
			UserID:     userID,
			OldBalance: old,
			NewBalance: calculated,
			Operator:   operator,
			RepairedAt: time.Now().UTC(),
		}
		if _, err = tx.Exec(ctx,
			`INSERT INTO balance_audit_log
			   (id_audit, id_user, old_balance, new_balance, operator, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), res.UserID, res.OldBalance,
			res.NewBalance, res.Operator, res.RepairedAt,
		); err != nil {
			return audit.RepairResult{}, fmt.Errorf("failed to log repair: %w", err)
		}

		return res, nil
	}

	repairWithTX := func() (audit.RepairResult, error) {
		return WithTX[audit.RepairResult](ctx, r.pool, r.log, repairLogic)
	}

	return WithRetry[audit.RepairResult](repairWithTX, 0)
}
