package httpx

import (
	"net/http"

	"github.com/clinova/platform/internal/domain/identity"
)

// SalesHandlers provides HTTP handlers for the sales tooling surface.
type SalesHandlers struct{}

// Overview confirms sales access and echoes the caller's scope. The real
// lead pipeline lives in a separate service; this gateway-side endpoint is
// what its frontend checks before loading.
// GET /api/sales/overview.
func (h *SalesHandlers) Overview(w http.ResponseWriter, r *http.Request, ac *identity.AuthContext) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"caller_id": ac.CallerID,
		"role":      string(ac.Role),
		"clinic_id": ac.ClinicID,
	})
}
