// Package audit detects and corrects drift between cached balances and the
// ledger's true sums. Repair bypasses the normal ledger-only mutation rule,
// so it is an operator-invoked path and never runs automatically.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/talx-hub/gopher-points/internal/model/audit"
)

type Repo interface {
	CalculateBalances(ctx context.Context) ([]audit.Drift, error)
	RepairBalance(ctx context.Context, userID, operator string) (audit.RepairResult, error)
}

type Auditor struct {
	repo Repo
	now  func() time.Time
	log  *slog.Logger
}

func New(repo Repo, log *slog.Logger) *Auditor {
	return &Auditor{
		repo: repo,
		now:  time.Now,
		log:  log,
	}
}

// Check recomputes every active user's balance from the ledger and reports
// users whose cached balance drifted, with the aggregate magnitude.
// Discrepancies are reported, never auto-corrected.
func (a *Auditor) Check(ctx context.Context) (audit.Report, error) {
	rows, err := a.repo.CalculateBalances(ctx)
	if err != nil {
		return audit.Report{}, fmt.Errorf("failed to recalculate balances: %w", err)
	}

	report := audit.Report{
		CheckedAt:    a.now().UTC(),
		UsersChecked: len(rows),
		Drifts:       []audit.Drift{},
	}
	for _, row := range rows {
		if row.CachedBalance == row.CalculatedBalance {
			continue
		}
		report.Drifts = append(report.Drifts, row)
		report.TotalMagnitude += row.Magnitude()
	}

	if len(report.Drifts) > 0 {
		a.log.LogAttrs(ctx,
			slog.LevelWarn,
			"balance drift detected",
			slog.Int("users", len(report.Drifts)),
			slog.Int64("total_magnitude", report.TotalMagnitude),
		)
	}
	return report, nil
}

// Repair overwrites the cached balance with the ledger sum for the given
// users, or for every drifted user when userIDs is empty. Each overwrite is
// logged with before/after values and the operator; no ledger transaction
// is written.
func (a *Auditor) Repair(ctx context.Context,
	operator string, userIDs []string,
) ([]audit.RepairResult, error) {
	if len(userIDs) == 0 {
		report, err := a.Check(ctx)
		if err != nil {
			return nil, err
		}
		for _, d := range report.Drifts {
			userIDs = append(userIDs, d.UserID)
		}
	}

	results := make([]audit.RepairResult, 0, len(userIDs))
	for _, id := range userIDs {
		res, err := a.repo.RepairBalance(ctx, id, operator)
		if err != nil {
			return results, fmt.Errorf("failed to repair balance for user %s: %w", id, err)
		}

		a.log.LogAttrs(ctx,
			slog.LevelInfo,
			"balance repaired",
			slog.String("user_id", res.UserID),
			slog.Int64("old_balance", res.OldBalance),
			slog.Int64("new_balance", res.NewBalance),
			slog.String("operator", operator),
		)
		results = append(results, res)
	}

	return results, nil
}
