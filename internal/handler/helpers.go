package handler

import (
	"errors"
	"net/http"

	"drivehub/internal/domain"
	"drivehub/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var quotaErr *domain.QuotaExceededError
	var conflictErr *domain.ConflictError

	switch {
	case errors.As(err, &quotaErr):
		httputil.RespondErrorWithExtras(w, http.StatusRequestEntityTooLarge, quotaErr.Error(), map[string]interface{}{
			"limit_bytes":     quotaErr.Limit,
			"used_bytes":      quotaErr.Used,
			"requested_bytes": quotaErr.Requested,
		})
	case errors.As(err, &conflictErr):
		httputil.RespondError(w, http.StatusConflict, conflictErr.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrBrokenHierarchy):
		// Graph corruption is a server-side fault, never the client's.
		httputil.RespondError(w, http.StatusInternalServerError, "hierarchy integrity fault")
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireUserID extracts the authenticated user id set by the auth
// middleware; a missing id means the middleware chain is misconfigured.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return "", false
	}
	return userID, true
}
