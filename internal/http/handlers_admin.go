package httpx

import (
	"net/http"

	"github.com/clinova/platform/internal/domain/identity"
	"github.com/clinova/platform/internal/ports"
)

// AdminHandlers provides HTTP handlers for platform administration.
type AdminHandlers struct {
	Profiles ports.ProfileStore
}

// LookupProfile returns any caller's profile row by ID.
// GET /api/admin/profiles/{id}.
func (h *AdminHandlers) LookupProfile(w http.ResponseWriter, r *http.Request, _ *identity.AuthContext) {
	id := r.PathValue("id")
	profile, err := h.Profiles.GetByID(r.Context(), id)
	if err != nil {
		writeProfileError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}
