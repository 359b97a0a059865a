// Package redemption drives the request state machine that converts points
// into external rewards: pending -> approved|rejected|cancelled, with a
// compensating refund when an approved request is cancelled.
package redemption

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ShiraazMoollatjie/goluhn"

	"github.com/talx-hub/gopher-points/internal/model/redemption"
	"github.com/talx-hub/gopher-points/internal/model/user"
	"github.com/talx-hub/gopher-points/internal/serviceerrs"
)

type Repo interface {
	Create(ctx context.Context, red *redemption.Redemption) error
	FindByID(ctx context.Context, id string) (redemption.Redemption, error)
	ListByUser(ctx context.Context, userID string) ([]redemption.Redemption, error)
	ListByStatus(ctx context.Context, status redemption.Status) ([]redemption.Redemption, error)
	Approve(ctx context.Context, id, operatorID, notes string) (redemption.Redemption, error)
	Reject(ctx context.Context, id, operatorID, notes string) (redemption.Redemption, error)
	Cancel(ctx context.Context, id string) (redemption.Redemption, error)
}

type UserRepo interface {
	FindByID(ctx context.Context, id string) (user.User, error)
}

type Service struct {
	redemptions Repo
	users       UserRepo
	log         *slog.Logger
}

func New(redemptions Repo, users UserRepo, log *slog.Logger) *Service {
	return &Service{
		redemptions: redemptions,
		users:       users,
		log:         log,
	}
}

// SubmitRequest is the user-facing payload for a new redemption.
type SubmitRequest struct {
	Points      int64
	RewardType  string
	RewardValue string
	Details     map[string]any
}

func (r *SubmitRequest) validate() error {
	if r.Points <= 0 {
		return &serviceerrs.ValidationError{
			Field:  "points",
			Reason: "must be a positive integer",
		}
	}
	r.RewardType = strings.ToUpper(strings.TrimSpace(r.RewardType))
	if r.RewardType == "" {
		return &serviceerrs.ValidationError{
			Field:  "reward_type",
			Reason: "must not be empty",
		}
	}
	if r.RewardType == redemption.RewardTypeGiftCard {
		if err := goluhn.Validate(r.RewardValue); err != nil {
			return &serviceerrs.ValidationError{
				Field:  "reward_value",
				Reason: "gift card number fails the Luhn check",
			}
		}
	}
	return nil
}

// Submit creates a pending request. The balance is checked at request time
// as a courtesy; the binding check happens again under lock at approval.
func (s *Service) Submit(ctx context.Context,
	userID string, req *SubmitRequest,
) (redemption.Redemption, error) {
	if err := req.validate(); err != nil {
		return redemption.Redemption{}, err
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return redemption.Redemption{}, fmt.Errorf("failed to resolve user: %w", err)
	}
	if !u.Eligible() {
		return redemption.Redemption{}, serviceerrs.ErrUserIneligible
	}
	if req.Points > u.Balance {
		return redemption.Redemption{}, serviceerrs.ErrInsufficientBalance
	}

	red := redemption.Redemption{
		UserID:      userID,
		Points:      req.Points,
		RewardType:  req.RewardType,
		RewardValue: req.RewardValue,
		Details:     req.Details,
	}
	if err = s.redemptions.Create(ctx, &red); err != nil {
		return redemption.Redemption{}, fmt.Errorf("failed to create redemption: %w", err)
	}

	s.log.LogAttrs(ctx,
		slog.LevelInfo,
		"redemption requested",
		slog.String("redemption_id", red.ID),
		slog.String("user_id", userID),
		slog.Int64("points", red.Points),
	)
	return red, nil
}

// Approve converts a pending request into a REDEMPTION debit. The user may
// have spent points since requesting, so approval fails with
// ErrInsufficientBalance when the live balance no longer covers the request;
// the request stays pending.
func (s *Service) Approve(ctx context.Context,
	id, operatorID, notes string,
) (redemption.Redemption, error) {
	red, err := s.redemptions.Approve(ctx, id, operatorID, notes)
	if err != nil {
		return redemption.Redemption{}, fmt.Errorf("failed to approve redemption: %w", err)
	}

	s.log.LogAttrs(ctx,
		slog.LevelInfo,
		"redemption approved",
		slog.String("redemption_id", red.ID),
		slog.String("operator", operatorID),
		slog.String("transaction_id", red.TransactionID),
	)
	return red, nil
}

// Reject refuses a pending request. Terminal; no balance effect.
func (s *Service) Reject(ctx context.Context,
	id, operatorID, notes string,
) (redemption.Redemption, error) {
	red, err := s.redemptions.Reject(ctx, id, operatorID, notes)
	if err != nil {
		return redemption.Redemption{}, fmt.Errorf("failed to reject redemption: %w", err)
	}

	s.log.LogAttrs(ctx,
		slog.LevelInfo,
		"redemption rejected",
		slog.String("redemption_id", red.ID),
		slog.String("operator", operatorID),
	)
	return red, nil
}

// Cancel reverses the caller's own request. Cancelling an approved request
// produces the compensating REFUND credit; cancelling a pending one does
// not touch the ledger.
func (s *Service) Cancel(ctx context.Context,
	userID, id string,
) (redemption.Redemption, error) {
	existing, err := s.redemptions.FindByID(ctx, id)
	if err != nil {
		return redemption.Redemption{}, fmt.Errorf("failed to find redemption: %w", err)
	}
	if existing.UserID != userID {
		return redemption.Redemption{}, serviceerrs.ErrRedemptionNotFound
	}

	red, err := s.redemptions.Cancel(ctx, id)
	if err != nil {
		return redemption.Redemption{}, fmt.Errorf("failed to cancel redemption: %w", err)
	}

	s.log.LogAttrs(ctx,
		slog.LevelInfo,
		"redemption cancelled",
		slog.String("redemption_id", red.ID),
		slog.String("user_id", userID),
		slog.Bool("refunded", red.Status == redemption.StatusCancelled &&
			existing.Status == redemption.StatusApproved),
	)
	return red, nil
}

// History lists the user's requests, newest first.
func (s *Service) History(ctx context.Context, userID string,
) ([]redemption.Redemption, error) {
	reds, err := s.redemptions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}
	return reds, nil
}

// ListPending is the operator queue.
func (s *Service) ListPending(ctx context.Context,
) ([]redemption.Redemption, error) {
	reds, err := s.redemptions.ListByStatus(ctx, redemption.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending redemptions: %w", err)
	}
	return reds, nil
}
