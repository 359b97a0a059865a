package points

import (
	"context"
	"fmt"
	"time"

	"github.com/talx-hub/gopher-points/internal/model/activity"
	"github.com/talx-hub/gopher-points/internal/serviceerrs"
)

// Eligibility is one activity's availability for a given user right now.
type Eligibility struct {
	Rule           activity.Rule `json:"rule"`
	Eligible       bool          `json:"eligible"`
	Reason         string        `json:"reason,omitempty"`
	DailyRemaining *int          `json:"daily_remaining,omitempty"`
	TotalRemaining *int          `json:"total_remaining,omitempty"`
}

// CanEarn decides whether the user may earn for the rule at instant now.
// It returns nil when eligible, or the taxonomy error explaining why not.
func (p *Processor) CanEarn(ctx context.Context,
	rule *activity.Rule, userID string, now time.Time,
) error {
	now = now.In(p.loc)
	if err := checkRuleActive(rule, now); err != nil {
		return err
	}
	return p.checkCaps(ctx, rule, userID, now)
}

func checkRuleActive(rule *activity.Rule, now time.Time) error {
	if !rule.IsActive || !rule.InWindow(now) {
		return serviceerrs.ErrActivityInactive
	}
	return nil
}

// checkCaps counts transactions, not points. The daily window is the
// server-configured calendar day, not a rolling 24h: earning at 23:59 and
// again at 00:01 is two different days.
func (p *Processor) checkCaps(ctx context.Context,
	rule *activity.Rule, userID string, now time.Time,
) error {
	if rule.DailyLimit != nil {
		dayStart, dayEnd := calendarDay(now, p.loc)
		count, err := p.ledger.CountByUserActivity(
			ctx, userID, rule.Code, &dayStart, &dayEnd)
		if err != nil {
			return fmt.Errorf("failed to count daily transactions: %w", err)
		}
		if count >= *rule.DailyLimit {
			return &serviceerrs.LimitExceededError{
				ActivityCode: rule.Code,
				Scope:        "daily",
				Limit:        *rule.DailyLimit,
			}
		}
	}

	if rule.TotalLimit != nil {
		count, err := p.ledger.CountByUserActivity(
			ctx, userID, rule.Code, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to count lifetime transactions: %w", err)
		}
		if count >= *rule.TotalLimit {
			return &serviceerrs.LimitExceededError{
				ActivityCode: rule.Code,
				Scope:        "total",
				Limit:        *rule.TotalLimit,
			}
		}
	}

	return nil
}

// AvailableActivities lists active rules with per-user eligibility and the
// remaining daily/lifetime quota.
func (p *Processor) AvailableActivities(ctx context.Context, userID string,
) ([]Eligibility, error) {
	u, err := p.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	rules, err := p.activities.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	now := p.now().In(p.loc)
	result := make([]Eligibility, 0, len(rules))
	for i := range rules {
		rule := rules[i]
		e := Eligibility{Rule: rule, Eligible: true}

		if !u.Eligible() {
			e.Eligible = false
			e.Reason = serviceerrs.ErrUserIneligible.Error()
		} else if earnErr := p.CanEarn(ctx, &rule, userID, now); earnErr != nil {
			e.Eligible = false
			e.Reason = earnErr.Error()
		}

		if rule.DailyLimit != nil {
			dayStart, dayEnd := calendarDay(now, p.loc)
			count, err := p.ledger.CountByUserActivity(
				ctx, userID, rule.Code, &dayStart, &dayEnd)
			if err != nil {
				return nil, fmt.Errorf("failed to count daily transactions: %w", err)
			}
			e.DailyRemaining = remaining(*rule.DailyLimit, count)
		}
		if rule.TotalLimit != nil {
			count, err := p.ledger.CountByUserActivity(
				ctx, userID, rule.Code, nil, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to count lifetime transactions: %w", err)
			}
			e.TotalRemaining = remaining(*rule.TotalLimit, count)
		}

		result = append(result, e)
	}

	return result, nil
}

func remaining(limit, used int) *int {
	left := limit - used
	if left < 0 {
		left = 0
	}
	return &left
}

// calendarDay returns [startOfDay, startOfNextDay) around t in loc.
func calendarDay(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
