package dto

import (
	"errors"
	"time"

	"github.com/talx-hub/gopher-points/internal/model/activity"
)

// AwardRequest is the operator payload for a manual credit. The target user
// is named by id or by username, not both.
type AwardRequest struct {
	UserID        string         `json:"user_id,omitempty"`
	Username      string         `json:"username,omitempty"`
	ActivityCode  string         `json:"activity_code"`
	Amount        *int64         `json:"amount,omitempty"`
	Description   string         `json:"description,omitempty"`
	ReferenceID   string         `json:"reference_id,omitempty"`
	ReferenceType string         `json:"reference_type,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

func (r *AwardRequest) IsValid() error {
	var errUser, errCode, errAmount error
	if (r.UserID == "") == (r.Username == "") {
		errUser = errors.New("exactly one of user_id or username is required")
	}
	if r.ActivityCode == "" {
		errCode = errors.New("activity_code is empty")
	}
	if r.Amount != nil && *r.Amount <= 0 {
		errAmount = errors.New("amount must be positive")
	}
	return errors.Join(errUser, errCode, errAmount)
}

// RedeemRequest submits a new redemption.
type RedeemRequest struct {
	Points      int64          `json:"points"`
	RewardType  string         `json:"reward_type"`
	RewardValue string         `json:"reward_value,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

func (r *RedeemRequest) IsValid() error {
	var errPoints, errType error
	if r.Points <= 0 {
		errPoints = errors.New("points must be positive")
	}
	if r.RewardType == "" {
		errType = errors.New("reward_type is empty")
	}
	return errors.Join(errPoints, errType)
}

// ProcessRequest carries operator notes for approve/reject.
type ProcessRequest struct {
	Notes string `json:"notes,omitempty"`
}

// ActivityRequest creates or edits a reward rule.
type ActivityRequest struct {
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	Points     int64      `json:"points"`
	DailyLimit *int       `json:"daily_limit,omitempty"`
	TotalLimit *int       `json:"total_limit,omitempty"`
	IsActive   bool       `json:"is_active"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

func (r *ActivityRequest) IsValid() error {
	var errCode, errName, errPoints, errLimits, errWindow error
	if !activity.ValidCode(activity.NormalizeCode(r.Code)) {
		errCode = errors.New("code must match [A-Z][A-Z0-9_]*")
	}
	if r.Name == "" {
		errName = errors.New("name is empty")
	}
	if r.Points < 0 {
		errPoints = errors.New("points must not be negative")
	}
	if (r.DailyLimit != nil && *r.DailyLimit < 1) ||
		(r.TotalLimit != nil && *r.TotalLimit < 1) {
		errLimits = errors.New("limits must be positive when set")
	}
	if r.ValidFrom != nil && r.ValidUntil != nil && r.ValidUntil.Before(*r.ValidFrom) {
		errWindow = errors.New("valid_until is before valid_from")
	}
	return errors.Join(errCode, errName, errPoints, errLimits, errWindow)
}

// Rule converts the validated request into the model.
func (r *ActivityRequest) Rule() activity.Rule {
	return activity.Rule{
		Code:       activity.NormalizeCode(r.Code),
		Name:       r.Name,
		Points:     r.Points,
		DailyLimit: r.DailyLimit,
		TotalLimit: r.TotalLimit,
		IsActive:   r.IsActive,
		ValidFrom:  r.ValidFrom,
		ValidUntil: r.ValidUntil,
	}
}

// RepairRequest selects users for a balance repair; empty means all drifted.
type RepairRequest struct {
	UserIDs []string `json:"user_ids,omitempty"`
}
