package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/talx-hub/gopher-points/internal/model/activity"
	"github.com/talx-hub/gopher-points/internal/serviceerrs"
)

type ActivityRepository struct {
	DB
}

func NewActivityRepository(pool connectionPool, log *slog.Logger) *ActivityRepository {
	return &ActivityRepository{
		DB{
			pool: pool,
			log:  log,
		},
	}
}

const selectRuleColumns = `SELECT code, name_activity, points,
                                  daily_limit, total_limit, is_active,
                                  valid_from, valid_until, created_at, updated_at
                           FROM activities `

func (r *ActivityRepository) FindByCode(ctx context.Context, code string,
) (activity.Rule, error) {
	findLogic := func() (activity.Rule, error) {
		return scanRule(r.pool.QueryRow(ctx, selectRuleColumns+`WHERE code = $1`, code))
	}

	rule, err := WithRetry[activity.Rule](findLogic, 0)
	if err != nil {
		return activity.Rule{}, err //nolint: wrapcheck // error from wrapped function
	}
	return rule, nil
}

// ListActive returns rules flagged active, regardless of validity window;
// the rule engine evaluates windows against the clock.
func (r *ActivityRepository) ListActive(ctx context.Context,
) ([]activity.Rule, error) {
	listLogic := func() ([]activity.Rule, error) {
		rows, err := r.pool.Query(ctx,
			selectRuleColumns+`WHERE is_active ORDER BY code`)
		if err != nil {
			return nil, fmt.Errorf("failed to list activities: %w", err)
		}
		defer rows.Close()

		var rules []activity.Rule
		for rows.Next() {
			rule, err := scanRule(rows)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read activity rows: %w", err)
		}
		return rules, nil
	}

	return WithRetry[[]activity.Rule](listLogic, 0)
}

// Upsert creates or edits a rule. Operator-only path.
func (r *ActivityRepository) Upsert(ctx context.Context, rule *activity.Rule) error {
	upsertLogic := func() (struct{}, error) {
		err := r.pool.QueryRow(ctx,
			`INSERT INTO activities
			   (code, name_activity, points, daily_limit, total_limit,
			    is_active, valid_from, valid_until, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
			 ON CONFLICT (code) DO UPDATE SET
			   name_activity = EXCLUDED.name_activity,
			   points        = EXCLUDED.points,
			   daily_limit   = EXCLUDED.daily_limit,
			   total_limit   = EXCLUDED.total_limit,
			   is_active     = EXCLUDED.is_active,
			   valid_from    = EXCLUDED.valid_from,
			   valid_until   = EXCLUDED.valid_until,
			   updated_at    = now()
			 RETURNING created_at, updated_at`,
			rule.Code, rule.Name, rule.Points,
			rule.DailyLimit, rule.TotalLimit, rule.IsActive,
			nullTime(rule.ValidFrom), nullTime(rule.ValidUntil),
		).Scan(&rule.CreatedAt, &rule.UpdatedAt)
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to upsert activity: %w", err)
		}
		return struct{}{}, nil
	}

	_, err := WithRetry[struct{}](upsertLogic, 0)
	return err //nolint: wrapcheck // error from wrapped function
}

func nullTime(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func scanRule(row rowScanner) (activity.Rule, error) {
	var (
		rule       activity.Rule
		validFrom  pgtype.Timestamptz
		validUntil pgtype.Timestamptz
	)
	err := row.Scan(&rule.Code, &rule.Name, &rule.Points,
		&rule.DailyLimit, &rule.TotalLimit, &rule.IsActive,
		&validFrom, &validUntil, &rule.CreatedAt, &rule.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return activity.Rule{}, serviceerrs.ErrActivityNotFound
	}
	if err != nil {
		return activity.Rule{}, fmt.Errorf("failed to scan activity: %w", err)
	}
	if validFrom.Valid {
		rule.ValidFrom = &validFrom.Time
	}
	if validUntil.Valid {
		rule.ValidUntil = &validUntil.Time
	}
	return rule, nil
}
