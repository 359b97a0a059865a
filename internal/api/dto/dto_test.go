package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestAwardRequest_IsValid(t *testing.T) {
	tests := []struct {
		name    string
		req     AwardRequest
		wantErr bool
	}{
		{"ok", AwardRequest{UserID: "u-1", ActivityCode: "MANUAL_AWARD"}, false},
		{"ok by username", AwardRequest{
			Username: "alina", ActivityCode: "MANUAL_AWARD"}, false},
		{"ok with amount", AwardRequest{
			UserID: "u-1", ActivityCode: "MANUAL_AWARD", Amount: int64Ptr(50)}, false},
		{"missing user", AwardRequest{ActivityCode: "MANUAL_AWARD"}, true},
		{"both id and username", AwardRequest{
			UserID: "u-1", Username: "alina", ActivityCode: "MANUAL_AWARD"}, true},
		{"missing code", AwardRequest{UserID: "u-1"}, true},
		{"zero amount", AwardRequest{
			UserID: "u-1", ActivityCode: "MANUAL_AWARD", Amount: int64Ptr(0)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.IsValid()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRedeemRequest_IsValid(t *testing.T) {
	tests := []struct {
		name    string
		req     RedeemRequest
		wantErr bool
	}{
		{"ok", RedeemRequest{Points: 100, RewardType: "VOUCHER"}, false},
		{"no points", RedeemRequest{RewardType: "VOUCHER"}, true},
		{"negative points", RedeemRequest{Points: -1, RewardType: "VOUCHER"}, true},
		{"no type", RedeemRequest{Points: 100}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.IsValid()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestActivityRequest_IsValid(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name    string
		req     ActivityRequest
		wantErr bool
	}{
		{"ok", ActivityRequest{
			Code: "SPRING_PROMO", Name: "Spring promo", Points: 25}, false},
		{"lower case code normalized", ActivityRequest{
			Code: "spring_promo", Name: "Spring promo", Points: 25}, false},
		{"bad code", ActivityRequest{
			Code: "1BAD CODE", Name: "Oops", Points: 25}, true},
		{"no name", ActivityRequest{Code: "SPRING_PROMO", Points: 25}, true},
		{"negative points", ActivityRequest{
			Code: "SPRING_PROMO", Name: "Spring promo", Points: -1}, true},
		{"zero daily limit", ActivityRequest{
			Code: "SPRING_PROMO", Name: "Spring promo",
			DailyLimit: intPtr(0)}, true},
		{"inverted window", ActivityRequest{
			Code: "SPRING_PROMO", Name: "Spring promo",
			ValidFrom: &now, ValidUntil: &earlier}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.IsValid()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestActivityRequest_Rule(t *testing.T) {
	daily := 3
	req := ActivityRequest{
		Code: "spring_promo", Name: "Spring promo",
		Points: 25, DailyLimit: &daily, IsActive: true,
	}
	rule := req.Rule()
	assert.Equal(t, "SPRING_PROMO", rule.Code)
	assert.Equal(t, int64(25), rule.Points)
	assert.Equal(t, &daily, rule.DailyLimit)
	assert.True(t, rule.IsActive)
}
