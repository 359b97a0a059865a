package repo

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureDay is the calendar day the board_window fixture populates.
var fixtureDay = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func TestBoardRepository_TopWindow(t *testing.T) {
	pool := testPool(t)
	require.NoError(t, loadFixtureFile(pool, "./fixtures/board_window.sql"))
	repo := NewBoardRepository(pool, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), testDefaultTimeout)
	defer cancel()

	rows, err := repo.TopWindow(ctx, fixtureDay, fixtureDay.AddDate(0, 0, 1), 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// clara and dora both earned 500 that day: the username breaks the tie,
	// and frank (inactive) and grace (unverified) never appear
	assert.Equal(t, "clara", rows[0].Username)
	assert.Equal(t, int64(500), rows[0].Points)
	assert.Equal(t, "dora", rows[1].Username)
	assert.Equal(t, int64(500), rows[1].Points)
	assert.Equal(t, "evan", rows[2].Username)
	assert.Equal(t, int64(100), rows[2].Points)

	// limit slices the already ordered board
	top1, err := repo.TopWindow(ctx, fixtureDay, fixtureDay.AddDate(0, 0, 1), 1)
	require.NoError(t, err)
	require.Len(t, top1, 1)
	assert.Equal(t, "clara", top1[0].Username)

	// the next day only clara earned
	nextDay := fixtureDay.AddDate(0, 0, 1)
	rows, err = repo.TopWindow(ctx, nextDay, nextDay.AddDate(0, 0, 1), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "clara", rows[0].Username)
	assert.Equal(t, int64(777), rows[0].Points)
}

func TestBoardRepository_TopWindow_month(t *testing.T) {
	pool := testPool(t)
	require.NoError(t, loadFixtureFile(pool, "./fixtures/board_window.sql"))
	repo := NewBoardRepository(pool, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), testDefaultTimeout)
	defer cancel()

	monthStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows, err := repo.TopWindow(ctx, monthStart, monthStart.AddDate(0, 1, 0), 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// over the month clara's extra credit moves her clear of dora
	assert.Equal(t, "clara", rows[0].Username)
	assert.Equal(t, int64(1277), rows[0].Points)
	assert.Equal(t, "dora", rows[1].Username)
}

func TestBoardRepository_TopAllTime(t *testing.T) {
	pool := testPool(t)
	require.NoError(t, loadFixtureFile(pool, "./fixtures/board_window.sql"))
	repo := NewBoardRepository(pool, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), testDefaultTimeout)
	defer cancel()

	// fixture balances dwarf anything other tests create
	rows, err := repo.TopAllTime(ctx, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "clara", rows[0].Username)
	assert.Equal(t, "dora", rows[1].Username)
	assert.Equal(t, "evan", rows[2].Username)
}

func TestBoardRepository_UserWindowRank(t *testing.T) {
	pool := testPool(t)
	require.NoError(t, loadFixtureFile(pool, "./fixtures/board_window.sql"))
	repo := NewBoardRepository(pool, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), testDefaultTimeout)
	defer cancel()

	from, to := fixtureDay, fixtureDay.AddDate(0, 0, 1)

	dora, err := repo.UserWindowRank(ctx,
		"00000000-0000-0000-0000-0000000000d1", from, to)
	require.NoError(t, err)
	assert.True(t, dora.Ranked)
	assert.Equal(t, 2, dora.Rank)
	assert.Equal(t, int64(500), dora.Points)
	assert.Equal(t, 3, dora.Participants)

	// grace is unverified: unranked, but the participant count still reports
	grace, err := repo.UserWindowRank(ctx,
		"00000000-0000-0000-0000-0000000000a1", from, to)
	require.NoError(t, err)
	assert.False(t, grace.Ranked)
	assert.Zero(t, grace.Rank)
	assert.Equal(t, 3, grace.Participants)
}

func TestBoardRepository_UserAllTimeRank(t *testing.T) {
	pool := testPool(t)
	require.NoError(t, loadFixtureFile(pool, "./fixtures/board_window.sql"))
	repo := NewBoardRepository(pool, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), testDefaultTimeout)
	defer cancel()

	clara, err := repo.UserAllTimeRank(ctx,
		"00000000-0000-0000-0000-0000000000c1")
	require.NoError(t, err)
	assert.True(t, clara.Ranked)
	assert.Equal(t, 1, clara.Rank)
	assert.Equal(t, int64(900000), clara.Points)
	assert.GreaterOrEqual(t, clara.Participants, 3)

	frank, err := repo.UserAllTimeRank(ctx,
		"00000000-0000-0000-0000-0000000000f1")
	require.NoError(t, err)
	assert.False(t, frank.Ranked)
}
