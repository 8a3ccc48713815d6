package handler

import (
	"log/slog"
	"net/http"

	driveSvc "drivehub/internal/domain/services/drive"
	"drivehub/internal/httputil"
)

// TrashHandler handles trash lifecycle HTTP requests
type TrashHandler struct {
	trash  driveSvc.TrashService
	logger *slog.Logger
}

// NewTrashHandler creates a new trash handler
func NewTrashHandler(trash driveSvc.TrashService, logger *slog.Logger) *TrashHandler {
	return &TrashHandler{
		trash:  trash,
		logger: logger,
	}
}

// Trash moves an object to the caller's trash
// POST /api/objects/{id}/trash
func (h *TrashHandler) Trash(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.trash.Trash(r.Context(), userID, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore brings an explicitly trashed object back
// POST /api/objects/{id}/restore
func (h *TrashHandler) Restore(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.trash.Restore(r.Context(), userID, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Purge permanently deletes a trashed object
// DELETE /api/objects/{id}
func (h *TrashHandler) Purge(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.trash.Purge(r.Context(), userID, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTrash lists the caller's trash roots
// GET /api/drive/trash
func (h *TrashHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	entries, err := h.trash.ListTrash(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, entries)
}
