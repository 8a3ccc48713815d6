package handler

import (
	"log/slog"
	"net/http"

	models "drivehub/internal/domain/models/drive"
	driveSvc "drivehub/internal/domain/services/drive"
	"drivehub/internal/httputil"
)

// SharingHandler handles share, permission-change and unshare HTTP requests
type SharingHandler struct {
	sharing driveSvc.SharingService
	logger  *slog.Logger
}

// NewSharingHandler creates a new sharing handler
func NewSharingHandler(sharing driveSvc.SharingService, logger *slog.Logger) *SharingHandler {
	return &SharingHandler{
		sharing: sharing,
		logger:  logger,
	}
}

type shareBody struct {
	TargetUserID string            `json:"target_user_id"`
	Permission   models.Permission `json:"permission"`
}

// Share grants a user access to an object
// POST /api/objects/{id}/share
func (h *SharingHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var body shareBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := h.sharing.Share(r.Context(), userID, &driveSvc.ShareRequest{
		ObjectID:     r.PathValue("id"),
		TargetUserID: body.TargetUserID,
		Permission:   body.Permission,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, st)
}

// ChangePermission re-scopes an existing share
// PATCH /api/objects/{id}/share
func (h *SharingHandler) ChangePermission(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var body shareBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := h.sharing.ChangePermission(r.Context(), userID, &driveSvc.ChangePermissionRequest{
		ObjectID:     r.PathValue("id"),
		TargetUserID: body.TargetUserID,
		Permission:   body.Permission,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, st)
}

// Unshare revokes a user's access to an object
// DELETE /api/objects/{id}/share/{userId}
func (h *SharingHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	err := h.sharing.Unshare(r.Context(), userID, r.PathValue("id"), r.PathValue("userId"))
	if err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCollaborators lists every state on an object
// GET /api/objects/{id}/collaborators
func (h *SharingHandler) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	states, err := h.sharing.ListCollaborators(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, states)
}
