package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinova/platform/internal/domain/identity"
	mockauth "github.com/clinova/platform/internal/mocks/auth"
)

func TestAdminHandlers_LookupProfile(t *testing.T) {
	store := mockauth.NewMemoryProfileStore()
	seeded := seedProfile(t, store)
	h := &AdminHandlers{Profiles: store}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/profiles/user-1", nil)
	req.SetPathValue("id", "user-1")
	h.LookupProfile(rec, req, &identity.AuthContext{CallerID: "admin-1", Role: identity.RoleSuperAdmin})

	require.Equal(t, http.StatusOK, rec.Code)
	var got identity.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, seeded, got)
}

func TestAdminHandlers_LookupProfile_Missing(t *testing.T) {
	h := &AdminHandlers{Profiles: mockauth.NewMemoryProfileStore()}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/profiles/ghost", nil)
	req.SetPathValue("id", "ghost")
	h.LookupProfile(rec, req, &identity.AuthContext{CallerID: "admin-1", Role: identity.RoleSuperAdmin})

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorBody(t, rec)["error"])
}
