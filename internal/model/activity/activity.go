package activity

import (
	"regexp"
	"strings"
	"time"
)

// Well-known activity codes. The activities table is the authoritative,
// operator-extensible enumeration; these are the codes the service itself
// references. REDEMPTION and REFUND are written by the redemption flow only
// and never resolve to an earning rule.
const (
	CodeDailyLogin    = "DAILY_LOGIN"
	CodeEmailVerify   = "EMAIL_VERIFY"
	CodeProductShare  = "PRODUCT_SHARE"
	CodeCampaignShare = "CAMPAIGN_SHARE"
	CodeManualAward   = "MANUAL_AWARD"
	CodeRedemption    = "REDEMPTION"
	CodeRefund        = "REFUND"
)

var codePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// NormalizeCode upper-cases and trims an activity code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether a normalized code is well-formed.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// Rule is a named, capped, time-bounded reward definition.
// DailyLimit and TotalLimit count transactions, not points. A nil limit or
// validity bound means unbounded on that side.
type Rule struct {
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	Points     int64      `json:"points"`
	DailyLimit *int       `json:"daily_limit,omitempty"`
	TotalLimit *int       `json:"total_limit,omitempty"`
	IsActive   bool       `json:"is_active"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// InWindow reports whether now falls inside the rule's validity window.
func (r *Rule) InWindow(now time.Time) bool {
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && now.After(*r.ValidUntil) {
		return false
	}
	return true
}
