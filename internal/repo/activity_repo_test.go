package repo

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talx-hub/gopher-points/internal/model/activity"
	"github.com/talx-hub/gopher-points/internal/serviceerrs"
)

func TestActivityRepository_SeededRules(t *testing.T) {
	pool := testPool(t)
	repo := NewActivityRepository(pool, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rule, err := repo.FindByCode(ctx, activity.CodeDailyLogin)
	require.NoError(t, err)
	assert.True(t, rule.IsActive)
	assert.Positive(t, rule.Points)
	require.NotNil(t, rule.DailyLimit)
	assert.Equal(t, 1, *rule.DailyLimit)

	_, err = repo.FindByCode(ctx, "NO_SUCH_ACTIVITY")
	assert.ErrorIs(t, err, serviceerrs.ErrActivityNotFound)
}

func TestActivityRepository_Upsert(t *testing.T) {
	pool := testPool(t)
	repo := NewActivityRepository(pool, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	until := time.Now().Add(48 * time.Hour).UTC()
	daily := 3
	rule := activity.Rule{
		Code:       "SPRING_PROMO",
		Name:       "Spring promo",
		Points:     25,
		DailyLimit: &daily,
		IsActive:   true,
		ValidUntil: &until,
	}
	require.NoError(t, repo.Upsert(ctx, &rule))
	assert.False(t, rule.CreatedAt.IsZero())

	stored, err := repo.FindByCode(ctx, "SPRING_PROMO")
	require.NoError(t, err)
	assert.Equal(t, int64(25), stored.Points)
	require.NotNil(t, stored.ValidUntil)
	assert.WithinDuration(t, until, *stored.ValidUntil, time.Second)

	// second upsert updates in place
	rule.Points = 50
	rule.IsActive = false
	require.NoError(t, repo.Upsert(ctx, &rule))

	stored, err = repo.FindByCode(ctx, "SPRING_PROMO")
	require.NoError(t, err)
	assert.Equal(t, int64(50), stored.Points)
	assert.False(t, stored.IsActive)
}

func TestActivityRepository_ListActive(t *testing.T) {
	pool := testPool(t)
	repo := NewActivityRepository(pool, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	retired := activity.Rule{
		Code: "RETIRED_PROMO", Name: "Retired promo", Points: 5, IsActive: false,
	}
	require.NoError(t, repo.Upsert(ctx, &retired))

	rules, err := repo.ListActive(ctx)
	require.NoError(t, err)

	codes := make(map[string]bool, len(rules))
	for _, r := range rules {
		codes[r.Code] = true
		assert.True(t, r.IsActive)
	}
	assert.True(t, codes[activity.CodeDailyLogin])
	assert.True(t, codes[activity.CodeProductShare])
	assert.False(t, codes["RETIRED_PROMO"])
}
