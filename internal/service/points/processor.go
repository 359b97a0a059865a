// Package points holds the award/deduct processor: the only path that ever
// changes a user's balance, plus the activity rule engine that gates earning.
package points

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/talx-hub/gopher-points/internal/model"
	"github.com/talx-hub/gopher-points/internal/model/activity"
	"github.com/talx-hub/gopher-points/internal/model/ledger"
	"github.com/talx-hub/gopher-points/internal/model/user"
	"github.com/talx-hub/gopher-points/internal/serviceerrs"
)

type ActivityRepo interface {
	FindByCode(ctx context.Context, code string) (activity.Rule, error)
	ListActive(ctx context.Context) ([]activity.Rule, error)
}

type UserRepo interface {
	FindByID(ctx context.Context, id string) (user.User, error)
}

type LedgerRepo interface {
	Apply(ctx context.Context, e *ledger.Entry) (ledger.Transaction, error)
	CountByUserActivity(ctx context.Context,
		userID, activityCode string, from, to *time.Time) (int, error)
	List(ctx context.Context,
		userID string, filter *ledger.HistoryFilter) ([]ledger.Transaction, error)
	Summary(ctx context.Context, userID string) (ledger.Summary, error)
}

// AwardOptions enumerates the recognized award parameters; Amount overrides
// the rule's reward when set.
type AwardOptions struct {
	Amount        *int64
	Description   string
	ReferenceID   string
	ReferenceType string
	ProcessedBy   string
	Metadata      map[string]any
}

type DeductOptions struct {
	Description   string
	ReferenceID   string
	ReferenceType string
	ProcessedBy   string
	Metadata      map[string]any
}

type Processor struct {
	activities ActivityRepo
	users      UserRepo
	ledger     LedgerRepo
	loc        *time.Location
	now        func() time.Time
	log        *slog.Logger
}

func NewProcessor(
	activities ActivityRepo,
	users UserRepo,
	ledgerRepo LedgerRepo,
	loc *time.Location,
	log *slog.Logger,
) *Processor {
	if loc == nil {
		loc = time.Local
	}
	return &Processor{
		activities: activities,
		users:      users,
		ledger:     ledgerRepo,
		loc:        loc,
		now:        time.Now,
		log:        log,
	}
}

// Award credits a user for an activity. Preconditions run in a fixed order,
// each a distinct failure: unknown activity, inactive rule, unknown user,
// ineligible user, cap reached. Only then is the credit applied as one
// atomic unit; nothing is written when any precondition fails.
func (p *Processor) Award(ctx context.Context,
	userID, activityCode string, opts *AwardOptions,
) (ledger.Transaction, error) {
	if opts == nil {
		opts = &AwardOptions{}
	}
	code, err := normalizeCode(activityCode)
	if err != nil {
		return ledger.Transaction{}, err
	}

	rule, err := p.activities.FindByCode(ctx, code)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to resolve activity %s: %w", code, err)
	}
	now := p.now().In(p.loc)
	if err = checkRuleActive(&rule, now); err != nil {
		return ledger.Transaction{}, err
	}

	u, err := p.users.FindByID(ctx, userID)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to resolve user: %w", err)
	}
	if !u.Eligible() {
		return ledger.Transaction{}, serviceerrs.ErrUserIneligible
	}

	if err = p.checkCaps(ctx, &rule, userID, now); err != nil {
		return ledger.Transaction{}, err
	}

	amount := rule.Points
	if opts.Amount != nil {
		amount = *opts.Amount
	}
	if amount <= 0 {
		return ledger.Transaction{}, &serviceerrs.ValidationError{
			Field:  "amount",
			Reason: "must be a positive integer",
		}
	}

	t, err := p.ledger.Apply(ctx, &ledger.Entry{
		UserID:        userID,
		Direction:     ledger.DirectionCredit,
		Amount:        amount,
		ActivityCode:  code,
		Description:   opts.Description,
		ReferenceID:   opts.ReferenceID,
		ReferenceType: opts.ReferenceType,
		Metadata:      stampProcessedBy(opts.Metadata, opts.ProcessedBy),
	})
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to apply credit: %w", err)
	}
	return t, nil
}

// Deduct debits a user. The activity type is a charge reason and does not
// have to resolve to an earning rule; the insufficient-balance check runs
// inside the locked transaction.
func (p *Processor) Deduct(ctx context.Context,
	userID string, amount int64, activityCode string, opts *DeductOptions,
) (ledger.Transaction, error) {
	if opts == nil {
		opts = &DeductOptions{}
	}
	code, err := normalizeCode(activityCode)
	if err != nil {
		return ledger.Transaction{}, err
	}
	if amount <= 0 {
		return ledger.Transaction{}, &serviceerrs.ValidationError{
			Field:  "amount",
			Reason: "must be a positive integer",
		}
	}

	u, err := p.users.FindByID(ctx, userID)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to resolve user: %w", err)
	}
	if !u.Eligible() {
		return ledger.Transaction{}, serviceerrs.ErrUserIneligible
	}

	t, err := p.ledger.Apply(ctx, &ledger.Entry{
		UserID:        userID,
		Direction:     ledger.DirectionDebit,
		Amount:        amount,
		ActivityCode:  code,
		Description:   opts.Description,
		ReferenceID:   opts.ReferenceID,
		ReferenceType: opts.ReferenceType,
		Metadata:      stampProcessedBy(opts.Metadata, opts.ProcessedBy),
	})
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to apply debit: %w", err)
	}
	return t, nil
}

// TryAward is the fire-and-forget variant used by flows whose own outcome
// must not depend on the rewards subsystem: a failed award is logged and
// swallowed.
func (p *Processor) TryAward(ctx context.Context,
	userID, activityCode string, opts *AwardOptions,
) {
	if _, err := p.Award(ctx, userID, activityCode, opts); err != nil {
		p.log.LogAttrs(ctx,
			slog.LevelWarn,
			"side-effect award failed",
			slog.String("user_id", userID),
			slog.String("activity", activityCode),
			slog.Any(model.KeyLoggerError, err),
		)
	}
}

// Balance returns the cached balance.
func (p *Processor) Balance(ctx context.Context, userID string) (int64, error) {
	u, err := p.users.FindByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve user: %w", err)
	}
	return u.Balance, nil
}

// Summary returns balance plus lifetime totals.
func (p *Processor) Summary(ctx context.Context, userID string,
) (ledger.Summary, error) {
	s, err := p.ledger.Summary(ctx, userID)
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("failed to load summary: %w", err)
	}
	return s, nil
}

// History returns a page of the user's ledger.
func (p *Processor) History(ctx context.Context,
	userID string, filter *ledger.HistoryFilter,
) ([]ledger.Transaction, error) {
	if filter == nil {
		filter = &ledger.HistoryFilter{}
	}
	if filter.ActivityCode != "" {
		code, err := normalizeCode(filter.ActivityCode)
		if err != nil {
			return nil, err
		}
		filter.ActivityCode = code
	}

	txns, err := p.ledger.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return txns, nil
}

// stampProcessedBy records the operator in the entry metadata. The caller's
// map is copied, never mutated.
func stampProcessedBy(metadata map[string]any, operator string) map[string]any {
	if operator == "" {
		return metadata
	}
	stamped := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		stamped[k] = v
	}
	stamped["processed_by"] = operator
	return stamped
}

func normalizeCode(raw string) (string, error) {
	code := activity.NormalizeCode(raw)
	if !activity.ValidCode(code) {
		return "", &serviceerrs.ValidationError{
			Field:  "activity_code",
			Reason: "must match [A-Z][A-Z0-9_]*",
		}
	}
	return code, nil
}
