// Package handlers holds the thin HTTP layer: decode, validate, call a
// service, map the error taxonomy onto HTTP statuses.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/talx-hub/gopher-points/internal/model"
	"github.com/talx-hub/gopher-points/internal/serviceerrs"
	"github.com/talx-hub/gopher-points/internal/utils/logger"
)

func userIDFromContext(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(model.KeyContextUserID).(string)
	return id, ok && id != ""
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload any) {
	w.Header().Set(model.HeaderContentType, "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.FromContext(r.Context()).LogAttrs(r.Context(),
			slog.LevelError,
			"failed to encode response",
			slog.Any(model.KeyLoggerError, err),
		)
	}
}

// writeError translates the service error taxonomy into HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case serviceerrs.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, serviceerrs.ErrUserNotFound),
		errors.Is(err, serviceerrs.ErrActivityNotFound),
		errors.Is(err, serviceerrs.ErrRedemptionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, serviceerrs.ErrInsufficientBalance):
		status = http.StatusPaymentRequired
	case errors.Is(err, serviceerrs.ErrUserIneligible):
		status = http.StatusForbidden
	case errors.Is(err, serviceerrs.ErrActivityInactive),
		serviceerrs.IsInvalidTransition(err):
		status = http.StatusConflict
	case serviceerrs.IsLimitExceeded(err):
		status = http.StatusTooManyRequests
	}

	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).LogAttrs(r.Context(),
			slog.LevelError,
			"request failed",
			slog.String("path", r.URL.Path),
			slog.Any(model.KeyLoggerError, err),
		)
		http.Error(w, http.StatusText(status), status)
		return
	}

	http.Error(w, err.Error(), status)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "malformed JSON body", http.StatusBadRequest)
		return false
	}
	return true
}
