package httpx

import (
	"errors"
	"net/http"

	"github.com/clinova/platform/internal/domain/identity"
	errs "github.com/clinova/platform/internal/errors"
	"github.com/clinova/platform/internal/ports"
)

// ProfileHandlers provides HTTP handlers for the caller's own profile.
type ProfileHandlers struct {
	Profiles ports.ProfileStore
}

// writeProfileError maps profile-store errors to the wire, turning the
// not-found sentinel into a proper 404.
func writeProfileError(w http.ResponseWriter, err error) {
	if errors.Is(err, ports.ErrProfileNotFound) {
		WriteAppError(w, errs.NotFound("profile not found"))
		return
	}
	WriteAppError(w, err)
}

// Me returns the caller's profile row.
// GET /api/profile.
func (h *ProfileHandlers) Me(w http.ResponseWriter, r *http.Request, ac *identity.AuthContext) {
	profile, err := h.Profiles.GetByID(r.Context(), ac.CallerID)
	if err != nil {
		writeProfileError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

// Context returns the resolved caller context itself: the canonical role,
// raw role, and tenant scope the authorization layers acted on. Useful for
// client bootstrapping and support debugging.
// GET /api/profile/context.
func (h *ProfileHandlers) Context(w http.ResponseWriter, r *http.Request, ac *identity.AuthContext) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"caller_id": ac.CallerID,
		"email":     ac.Email,
		"role":      string(ac.Role),
		"raw_role":  ac.RawRole,
		"clinic_id": ac.ClinicID,
		"branch_id": ac.BranchID,
		"tier":      string(identity.TierFor(ac.Role)),
	})
}
