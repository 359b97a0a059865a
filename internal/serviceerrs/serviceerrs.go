package serviceerrs

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrActivityNotFound   = errors.New("activity not found")
	ErrRedemptionNotFound = errors.New("redemption not found")

	ErrActivityInactive    = errors.New("activity is not currently active")
	ErrUserIneligible      = errors.New("user is not eligible to earn points")
	ErrInsufficientBalance = errors.New("insufficient balance")

	ErrTokenExpired = errors.New("token expired")
)

// LimitExceededError reports a daily or lifetime activity cap hit.
type LimitExceededError struct {
	ActivityCode string
	Scope        string // "daily" or "total"
	Limit        int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s limit of %d reached for activity %s",
		e.Scope, e.Limit, e.ActivityCode)
}

// InvalidStateTransitionError reports a redemption not in the expected state
// for the requested transition.
type InvalidStateTransitionError struct {
	From string
	To   string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid redemption transition %s -> %s", e.From, e.To)
}

// ValidationError reports malformed request input (amounts, codes, payloads).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsLimitExceeded reports whether err is a cap violation.
func IsLimitExceeded(err error) bool {
	var lim *LimitExceededError
	return errors.As(err, &lim)
}

// IsInvalidTransition reports whether err is a state machine violation.
func IsInvalidTransition(err error) bool {
	var tr *InvalidStateTransitionError
	return errors.As(err, &tr)
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
