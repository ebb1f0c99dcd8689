package httpx

import (
	"net/http"

	"github.com/clinova/platform/internal/domain/identity"
	"github.com/clinova/platform/internal/ports"
)

// ClinicHandlers provides HTTP handlers for clinic-side staff endpoints.
// Every handler here runs behind WithClinicAuth, so the caller context is
// guaranteed to carry a clinic scope.
type ClinicHandlers struct {
	Profiles ports.ProfileStore
}

// Overview returns the caller's clinic binding and role within it.
// GET /api/clinic/overview.
func (h *ClinicHandlers) Overview(w http.ResponseWriter, r *http.Request, ac *identity.AuthContext) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"clinic_id": ac.ClinicID,
		"branch_id": ac.BranchID,
		"role":      string(ac.Role),
		"elevated":  identity.IsElevated(ac.Role),
	})
}

// Staff returns the caller's own staff profile within the clinic.
// GET /api/clinic/staff/me.
func (h *ClinicHandlers) Staff(w http.ResponseWriter, r *http.Request, ac *identity.AuthContext) {
	profile, err := h.Profiles.GetByID(r.Context(), ac.CallerID)
	if err != nil {
		writeProfileError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}
