package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/talx-hub/gopher-points/internal/model/ledger"
	"github.com/talx-hub/gopher-points/internal/service/points"
)

type PointsProcessor interface {
	Summary(ctx context.Context, userID string) (ledger.Summary, error)
	History(ctx context.Context,
		userID string, filter *ledger.HistoryFilter) ([]ledger.Transaction, error)
	AvailableActivities(ctx context.Context, userID string) ([]points.Eligibility, error)
}

type PointsHandler struct {
	points PointsProcessor
}

func NewPointsHandler(points PointsProcessor) *PointsHandler {
	return &PointsHandler{points: points}
}

func (h *PointsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	summary, err := h.points.Summary(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

func (h *PointsHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	filter := historyFilterFromQuery(r)
	txns, err := h.points.History(r.Context(), userID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, txns)
}

func (h *PointsHandler) GetActivities(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	available, err := h.points.AvailableActivities(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, available)
}

func historyFilterFromQuery(r *http.Request) *ledger.HistoryFilter {
	q := r.URL.Query()
	filter := &ledger.HistoryFilter{
		ActivityCode: q.Get("activity"),
		Direction:    ledger.Direction(q.Get("type")),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(q.Get("page_size")); err == nil {
		filter.PageSize = size
	}
	if from, err := time.Parse(time.RFC3339, q.Get("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse(time.RFC3339, q.Get("to")); err == nil {
		filter.To = &to
	}
	return filter
}
