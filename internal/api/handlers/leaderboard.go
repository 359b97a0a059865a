package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/talx-hub/gopher-points/internal/model/board"
)

type LeaderboardService interface {
	Daily(ctx context.Context, day time.Time) ([]board.Entry, error)
	Monthly(ctx context.Context, month time.Time) ([]board.Entry, error)
	AllTime(ctx context.Context) ([]board.Entry, error)
	UserRank(ctx context.Context,
		userID string, window board.Window) (board.UserRank, error)
	Location() *time.Location
}

type LeaderboardHandler struct {
	boards LeaderboardService
}

func NewLeaderboardHandler(boards LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{boards: boards}
}

func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	window := board.Window(chi.URLParam(r, "window"))

	var (
		entries []board.Entry
		err     error
	)
	switch window {
	case board.WindowDaily:
		entries, err = h.boards.Daily(r.Context(), dateFromQuery(r, h.boards.Location()))
	case board.WindowMonthly:
		entries, err = h.boards.Monthly(r.Context(), dateFromQuery(r, h.boards.Location()))
	case board.WindowAllTime:
		entries, err = h.boards.AllTime(r.Context())
	default:
		http.Error(w, "unknown leaderboard window", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, entries)
}

func (h *LeaderboardHandler) GetRank(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	window := board.Window(r.URL.Query().Get("window"))
	if window == "" {
		window = board.WindowAllTime
	}

	rank, err := h.boards.UserRank(r.Context(), userID, window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rank)
}

// dateFromQuery reads an optional YYYY-MM-DD date as a calendar date in the
// boards' zone; zero means "now". Parsing in UTC instead would select the
// previous local day everywhere west of Greenwich.
func dateFromQuery(r *http.Request, loc *time.Location) time.Time {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Time{}
	}
	day, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}
	}
	return day
}
