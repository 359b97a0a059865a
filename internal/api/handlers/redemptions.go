package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/talx-hub/gopher-points/internal/api/dto"
	"github.com/talx-hub/gopher-points/internal/model/redemption"
	redemptionsvc "github.com/talx-hub/gopher-points/internal/service/redemption"
)

type RedemptionService interface {
	Submit(ctx context.Context,
		userID string, req *redemptionsvc.SubmitRequest) (redemption.Redemption, error)
	Cancel(ctx context.Context, userID, id string) (redemption.Redemption, error)
	History(ctx context.Context, userID string) ([]redemption.Redemption, error)
}

type RedemptionHandler struct {
	redemptions RedemptionService
}

func NewRedemptionHandler(redemptions RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{redemptions: redemptions}
}

func (h *RedemptionHandler) PostRedemption(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req dto.RedeemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.IsValid(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	red, err := h.redemptions.Submit(r.Context(), userID,
		&redemptionsvc.SubmitRequest{
			Points:      req.Points,
			RewardType:  req.RewardType,
			RewardValue: req.RewardValue,
			Details:     req.Details,
		})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, red)
}

func (h *RedemptionHandler) GetRedemptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	reds, err := h.redemptions.History(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, reds)
}

func (h *RedemptionHandler) CancelRedemption(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	red, err := h.redemptions.Cancel(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, red)
}
