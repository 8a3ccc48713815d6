package handler

import (
	"log/slog"
	"net/http"

	driveSvc "drivehub/internal/domain/services/drive"
	"drivehub/internal/httputil"
	"drivehub/internal/quotaplan"
)

// QuotaHandler handles storage quota HTTP requests
type QuotaHandler struct {
	quota  driveSvc.QuotaService
	plans  *quotaplan.Registry
	logger *slog.Logger
}

// NewQuotaHandler creates a new quota handler
func NewQuotaHandler(quota driveSvc.QuotaService, plans *quotaplan.Registry, logger *slog.Logger) *QuotaHandler {
	return &QuotaHandler{
		quota:  quota,
		plans:  plans,
		logger: logger,
	}
}

// GetQuota returns the caller's storage ledger
// GET /api/users/me/quota
func (h *QuotaHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	q, err := h.quota.GetQuota(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, q)
}

// ListPlans lists the available storage plans
// GET /api/quota/plans
func (h *QuotaHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.plans.List())
}

type setPlanBody struct {
	Plan string `json:"plan"`
}

// SetPlan moves the caller onto a named storage plan
// PUT /api/users/me/quota/plan
func (h *QuotaHandler) SetPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var body setPlanBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	q, err := h.quota.SetPlan(r.Context(), userID, body.Plan)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, q)
}
