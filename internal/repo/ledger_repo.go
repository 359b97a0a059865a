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

	"github.com/talx-hub/gopher-points/internal/model"
	"github.com/talx-hub/gopher-points/internal/model/ledger"
	"github.com/talx-hub/gopher-points/internal/serviceerrs"
)

type LedgerRepository struct {
	DB
}

func NewLedgerRepository(pool connectionPool, log *slog.Logger) *LedgerRepository {
	return &LedgerRepository{
		DB{
			pool: pool,
			log:  log,
		},
	}
}

// applyEntryTX is the single balance-mutation primitive. It locks the user's
// balance row, snapshots balanceBefore, writes the immutable ledger row and
// the new cached balance. Callers must run it inside WithTX.
func applyEntryTX(ctx context.Context,
	tx connectionPool, e *ledger.Entry,
) (ledger.Transaction, error) {
	var before int64
	err := tx.QueryRow(ctx,
		`SELECT balance FROM users WHERE id_user = $1 FOR UPDATE`,
		e.UserID,
	).Scan(&before)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Transaction{}, serviceerrs.ErrUserNotFound
	}
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to lock balance: %w", err)
	}

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
		CreatedAt:     time.Now().UTC(),
	}

	if _, err = tx.Exec(ctx,
		`INSERT INTO transactions
		   (id_transaction, id_user, direction, amount,
		    balance_before, balance_after, activity_code, description,
		    reference_id, reference_type, metadata, status_tx, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID, t.UserID, string(t.Direction), t.Amount,
		t.BalanceBefore, t.BalanceAfter, t.ActivityCode, t.Description,
		nullText(t.ReferenceID), nullText(t.ReferenceType),
		t.Metadata, string(t.Status), t.CreatedAt,
	); err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to insert ledger row: %w", err)
	}

	if _, err = tx.Exec(ctx,
		`UPDATE users SET balance = $2 WHERE id_user = $1`,
		t.UserID, after,
	); err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to update cached balance: %w", err)
	}

	return t, nil
}

// Apply runs one credit or debit as a single isolated unit of work.
func (r *LedgerRepository) Apply(ctx context.Context, e *ledger.Entry,
) (ledger.Transaction, error) {
	applyLogic := func(ctx context.Context, tx connectionPool) (any, error) {
		return applyEntryTX(ctx, tx, e)
	}

	applyWithTX := func() (ledger.Transaction, error) {
		return WithTX[ledger.Transaction](ctx, r.pool, r.log, applyLogic)
	}

	return WithRetry[ledger.Transaction](applyWithTX, 0)
}

// CountByUserActivity counts completed transactions for (user, activity)
// created inside [from, to). Nil bounds mean unbounded, so both nil gives the
// lifetime count.
func (r *LedgerRepository) CountByUserActivity(ctx context.Context,
	userID, activityCode string, from, to *time.Time,
) (int, error) {
	countLogic := func() (int, error) {
		query := `SELECT COUNT(*) FROM transactions
		          WHERE id_user = $1 AND activity_code = $2 AND status_tx = $3`
		args := []any{userID, activityCode, string(ledger.StatusCompleted)}
		if from != nil {
			args = append(args, *from)
			query += fmt.Sprintf(" AND created_at >= $%d", len(args))
		}
		if to != nil {
			args = append(args, *to)
			query += fmt.Sprintf(" AND created_at < $%d", len(args))
		}

		var count int
		if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
			return 0, fmt.Errorf("failed to count transactions: %w", err)
		}
		return count, nil
	}

	return WithRetry[int](countLogic, 0)
}

// List returns a page of the user's ledger, newest first.
func (r *LedgerRepository) List(ctx context.Context,
	userID string, filter *ledger.HistoryFilter,
) ([]ledger.Transaction, error) {
	listLogic := func() ([]ledger.Transaction, error) {
		query := `SELECT id_transaction, id_user, direction, amount,
		                 balance_before, balance_after, activity_code, description,
		                 reference_id, reference_type, metadata, status_tx, created_at
		          FROM transactions WHERE id_user = $1`
		args := []any{userID}

		if filter.ActivityCode != "" {
			args = append(args, filter.ActivityCode)
			query += fmt.Sprintf(" AND activity_code = $%d", len(args))
		}
		if filter.Direction != "" {
			args = append(args, string(filter.Direction))
			query += fmt.Sprintf(" AND direction = $%d", len(args))
		}
		if filter.From != nil {
			args = append(args, *filter.From)
			query += fmt.Sprintf(" AND created_at >= $%d", len(args))
		}
		if filter.To != nil {
			args = append(args, *filter.To)
			query += fmt.Sprintf(" AND created_at < $%d", len(args))
		}

		page := filter.Page
		if page < 1 {
			page = 1
		}
		size := filter.PageSize
		if size < 1 || size > model.MaxPageSize {
			size = model.DefaultPageSize
		}
		args = append(args, size, (page-1)*size)
		query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
			len(args)-1, len(args))

		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to list transactions: %w", err)
		}
		defer rows.Close()

		txns := make([]ledger.Transaction, 0, size)
		for rows.Next() {
			t, err := scanTransaction(rows)
			if err != nil {
				return nil, err
			}
			txns = append(txns, t)
		}
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read transaction rows: %w", err)
		}
		return txns, nil
	}

	return WithRetry[[]ledger.Transaction](listLogic, 0)
}

// Summary returns the cached balance alongside lifetime earned/spent totals.
func (r *LedgerRepository) Summary(ctx context.Context, userID string,
) (ledger.Summary, error) {
	summaryLogic := func() (ledger.Summary, error) {
		s := ledger.Summary{UserID: userID}
		err := r.pool.QueryRow(ctx,
			`SELECT u.balance,
			        COALESCE(SUM(t.amount) FILTER (WHERE t.direction = 'credit'), 0),
			        COALESCE(SUM(t.amount) FILTER (WHERE t.direction = 'debit'), 0),
			        COUNT(t.id_transaction)
			 FROM users u
			 LEFT JOIN transactions t
			        ON t.id_user = u.id_user AND t.status_tx = $2
			 WHERE u.id_user = $1
			 GROUP BY u.balance`,
			userID, string(ledger.StatusCompleted),
		).Scan(&s.Balance, &s.TotalEarned, &s.TotalSpent, &s.TxCount)
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Summary{}, serviceerrs.ErrUserNotFound
		}
		if err != nil {
			return ledger.Summary{}, fmt.Errorf("failed to read summary: %w", err)
		}
		return s, nil
	}

	return WithRetry[ledger.Summary](summaryLogic, 0)
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (ledger.Transaction, error) {
	var (
		t        ledger.Transaction
		refID    pgtype.Text
		refType  pgtype.Text
		metadata map[string]any
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.Direction, &t.Amount,
		&t.BalanceBefore, &t.BalanceAfter, &t.ActivityCode, &t.Description,
		&refID, &refType, &metadata, &t.Status, &t.CreatedAt,
	)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}
	t.ReferenceID = refID.String
	t.ReferenceType = refType.String
	t.Metadata = metadata
	return t, nil
}
