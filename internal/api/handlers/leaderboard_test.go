package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talx-hub/gopher-points/internal/model/board"
)

// boardsSpy records the day the handler resolved from the query string.
type boardsSpy struct {
	loc *time.Location
	day time.Time
}

func (s *boardsSpy) Daily(_ context.Context, day time.Time) ([]board.Entry, error) {
	s.day = day
	return []board.Entry{}, nil
}

func (s *boardsSpy) Monthly(_ context.Context, day time.Time) ([]board.Entry, error) {
	s.day = day
	return []board.Entry{}, nil
}

func (s *boardsSpy) AllTime(context.Context) ([]board.Entry, error) {
	return []board.Entry{}, nil
}

func (s *boardsSpy) UserRank(_ context.Context, _ string, window board.Window,
) (board.UserRank, error) {
	return board.UserRank{Window: window}, nil
}

func (s *boardsSpy) Location() *time.Location { return s.loc }

func boardRequest(t *testing.T, target, window string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("window", window)
	return req.WithContext(
		context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestGetLeaderboard_dateInBoardsZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	spy := &boardsSpy{loc: loc}
	h := NewLeaderboardHandler(spy)

	w := httptest.NewRecorder()
	h.GetLeaderboard(w, boardRequest(t,
		"/api/leaderboard/daily?date=2025-06-15", "daily"))
	require.Equal(t, http.StatusOK, w.Code)

	// midnight in the boards' zone, not midnight UTC
	want := time.Date(2025, 6, 15, 0, 0, 0, 0, loc)
	assert.True(t, spy.day.Equal(want), "got %s", spy.day)
	assert.Equal(t, loc, spy.day.Location())
}

func TestGetLeaderboard_dateOptional(t *testing.T) {
	spy := &boardsSpy{loc: time.UTC}
	h := NewLeaderboardHandler(spy)

	w := httptest.NewRecorder()
	h.GetLeaderboard(w, boardRequest(t, "/api/leaderboard/monthly", "monthly"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, spy.day.IsZero())

	// a malformed date falls back to "now" as well
	w = httptest.NewRecorder()
	h.GetLeaderboard(w, boardRequest(t,
		"/api/leaderboard/daily?date=June", "daily"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, spy.day.IsZero())
}
