package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/talx-hub/gopher-points/internal/api/dto"
	"github.com/talx-hub/gopher-points/internal/model/activity"
	modelaudit "github.com/talx-hub/gopher-points/internal/model/audit"
	"github.com/talx-hub/gopher-points/internal/model/ledger"
	"github.com/talx-hub/gopher-points/internal/model/redemption"
	"github.com/talx-hub/gopher-points/internal/model/user"
	"github.com/talx-hub/gopher-points/internal/service/points"
)

type AwardService interface {
	Award(ctx context.Context,
		userID, activityCode string, opts *points.AwardOptions) (ledger.Transaction, error)
}

// UserDirectory resolves awards addressed by username.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
}

type RedemptionProcessor interface {
	Approve(ctx context.Context,
		id, operatorID, notes string) (redemption.Redemption, error)
	Reject(ctx context.Context,
		id, operatorID, notes string) (redemption.Redemption, error)
	ListPending(ctx context.Context) ([]redemption.Redemption, error)
}

type ActivityAdmin interface {
	Upsert(ctx context.Context, rule *activity.Rule) error
}

type Auditor interface {
	Check(ctx context.Context) (modelaudit.Report, error)
	Repair(ctx context.Context,
		operator string, userIDs []string) ([]modelaudit.RepairResult, error)
}

type OperatorHandler struct {
	awards      AwardService
	users       UserDirectory
	redemptions RedemptionProcessor
	activities  ActivityAdmin
	auditor     Auditor
}

func NewOperatorHandler(
	awards AwardService,
	users UserDirectory,
	redemptions RedemptionProcessor,
	activities ActivityAdmin,
	auditor Auditor,
) *OperatorHandler {
	return &OperatorHandler{
		awards:      awards,
		users:       users,
		redemptions: redemptions,
		activities:  activities,
		auditor:     auditor,
	}
}

func (h *OperatorHandler) PostAward(w http.ResponseWriter, r *http.Request) {
	operatorID, _ := userIDFromContext(r)

	var req dto.AwardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.IsValid(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID := req.UserID
	if userID == "" {
		u, err := h.users.FindByUsername(r.Context(), req.Username)
		if err != nil {
			writeError(w, r, err)
			return
		}
		userID = u.ID
	}

	t, err := h.awards.Award(r.Context(), userID, req.ActivityCode,
		&points.AwardOptions{
			Amount:        req.Amount,
			Description:   req.Description,
			ReferenceID:   req.ReferenceID,
			ReferenceType: req.ReferenceType,
			ProcessedBy:   operatorID,
			Metadata:      req.Metadata,
		})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, t)
}

func (h *OperatorHandler) GetPendingRedemptions(w http.ResponseWriter, r *http.Request) {
	reds, err := h.redemptions.ListPending(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, reds)
}

func (h *OperatorHandler) ApproveRedemption(w http.ResponseWriter, r *http.Request) {
	h.processRedemption(w, r, h.redemptions.Approve)
}

func (h *OperatorHandler) RejectRedemption(w http.ResponseWriter, r *http.Request) {
	h.processRedemption(w, r, h.redemptions.Reject)
}

func (h *OperatorHandler) processRedemption(w http.ResponseWriter, r *http.Request,
	process func(context.Context, string, string, string) (redemption.Redemption, error),
) {
	operatorID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req dto.ProcessRequest
	if !decodeBody(w, r, &req) {
		return
	}

	red, err := process(r.Context(), chi.URLParam(r, "id"), operatorID, req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, red)
}

func (h *OperatorHandler) PutActivity(w http.ResponseWriter, r *http.Request) {
	var req dto.ActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.IsValid(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rule := req.Rule()
	if err := h.activities.Upsert(r.Context(), &rule); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rule)
}

func (h *OperatorHandler) GetAudit(w http.ResponseWriter, r *http.Request) {
	report, err := h.auditor.Check(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

func (h *OperatorHandler) PostAuditRepair(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req dto.RepairRequest
	if !decodeBody(w, r, &req) {
		return
	}

	results, err := h.auditor.Repair(r.Context(), operatorID, req.UserIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, results)
}
