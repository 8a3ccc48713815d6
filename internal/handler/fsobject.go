package handler

import (
	"log/slog"
	"net/http"

	driveSvc "drivehub/internal/domain/services/drive"
	"drivehub/internal/httputil"
)

// FsObjectHandler handles object lifecycle HTTP requests
type FsObjectHandler struct {
	objects driveSvc.FsObjectService
	logger  *slog.Logger
}

// NewFsObjectHandler creates a new fs-object handler
func NewFsObjectHandler(objects driveSvc.FsObjectService, logger *slog.Logger) *FsObjectHandler {
	return &FsObjectHandler{
		objects: objects,
		logger:  logger,
	}
}

// HealthCheck reports liveness
// GET /health
func (h *FsObjectHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateFile creates a file
// POST /api/files
func (h *FsObjectHandler) CreateFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req driveSvc.CreateFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.objects.CreateFile(r.Context(), userID, &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, view)
}

// CreateFolder creates a folder
// POST /api/folders
func (h *FsObjectHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req driveSvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.objects.CreateFolder(r.Context(), userID, &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, view)
}

// CreateShortcut creates a shortcut
// POST /api/shortcuts
func (h *FsObjectHandler) CreateShortcut(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req driveSvc.CreateShortcutRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.objects.CreateShortcut(r.Context(), userID, &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, view)
}

// GetObject retrieves an object with the caller's state
// GET /api/objects/{id}
func (h *FsObjectHandler) GetObject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	view, err := h.objects.GetObject(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, view)
}

// ListRoots lists the caller's root-level drive
// GET /api/drive/roots
func (h *FsObjectHandler) ListRoots(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	views, err := h.objects.ListRoots(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, views)
}

// ListChildren lists the visible children of a folder
// GET /api/folders/{id}/children
func (h *FsObjectHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	views, err := h.objects.ListChildren(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, views)
}

// ListFavorites lists the caller's favorites
// GET /api/drive/favorites
func (h *FsObjectHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	views, err := h.objects.ListFavorites(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, views)
}

// GetAncestors returns the folder chain above an object in the caller's view
// GET /api/objects/{id}/ancestors
func (h *FsObjectHandler) GetAncestors(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	chain, err := h.objects.Ancestors(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, chain)
}

// updateFileBody is the wire form of a file patch; parent_id needs explicit
// null tracking that *string cannot express.
type updateFileBody struct {
	Name      *string                 `json:"name"`
	ParentID  httputil.OptionalString `json:"parent_id"`
	SizeBytes *int64                  `json:"size_bytes"`
	IsPublic  *bool                   `json:"is_public"`
}

// UpdateFile patches file metadata
// PATCH /api/files/{id}
func (h *FsObjectHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var body updateFileBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := driveSvc.UpdateFileRequest{
		Name:      body.Name,
		ParentID:  optionalParent(body.ParentID),
		SizeBytes: body.SizeBytes,
		IsPublic:  body.IsPublic,
	}

	view, err := h.objects.UpdateFile(r.Context(), userID, r.PathValue("id"), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, view)
}

type updateFolderBody struct {
	Name     *string                 `json:"name"`
	ParentID httputil.OptionalString `json:"parent_id"`
}

// UpdateFolder renames or moves a folder
// PATCH /api/folders/{id}
func (h *FsObjectHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var body updateFolderBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := driveSvc.UpdateFolderRequest{
		Name:     body.Name,
		ParentID: optionalParent(body.ParentID),
	}

	view, err := h.objects.UpdateFolder(r.Context(), userID, r.PathValue("id"), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, view)
}

// UpdateShortcut renames or moves a shortcut
// PATCH /api/shortcuts/{id}
func (h *FsObjectHandler) UpdateShortcut(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var body updateFolderBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := driveSvc.UpdateShortcutRequest{
		Name:     body.Name,
		ParentID: optionalParent(body.ParentID),
	}

	view, err := h.objects.UpdateShortcut(r.Context(), userID, r.PathValue("id"), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, view)
}

type favoriteBody struct {
	Favorite bool `json:"favorite"`
}

// SetFavorite flips the caller's favorite flag on an object
// PUT /api/objects/{id}/favorite
func (h *FsObjectHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var body favoriteBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := h.objects.SetFavorite(r.Context(), userID, r.PathValue("id"), body.Favorite)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, st)
}

// optionalParent maps the JSON tri-state field onto the service request form.
func optionalParent(o httputil.OptionalString) driveSvc.OptionalParent {
	return driveSvc.OptionalParent{Present: o.Present, Value: o.Value}
}
