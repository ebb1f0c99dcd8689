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

func TestClinicHandlers_Overview(t *testing.T) {
	h := &ClinicHandlers{Profiles: mockauth.NewMemoryProfileStore()}

	tests := []struct {
		name     string
		rawRole  string
		elevated bool
	}{
		{name: "staff is not elevated", rawRole: "clinic_staff", elevated: false},
		{name: "owner is elevated", rawRole: "clinic_owner", elevated: true},
		{name: "admin is elevated", rawRole: "clinic_admin", elevated: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/clinic/overview", nil)
			h.Overview(rec, req, clinicContext(tc.rawRole))

			require.Equal(t, http.StatusOK, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "clinic-1", body["clinic_id"])
			assert.Equal(t, string(identity.Normalize(tc.rawRole)), body["role"])
			assert.Equal(t, tc.elevated, body["elevated"])
		})
	}
}

func TestClinicHandlers_Staff(t *testing.T) {
	store := mockauth.NewMemoryProfileStore()
	seeded := seedProfile(t, store)
	h := &ClinicHandlers{Profiles: store}

	ac := clinicContext("clinic_owner")
	ac.CallerID = seeded.ID

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/clinic/staff/me", nil)
	h.Staff(rec, req, ac)

	require.Equal(t, http.StatusOK, rec.Code)
	var got identity.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, seeded, got)
}

func TestClinicHandlers_Staff_MissingProfileIs404(t *testing.T) {
	h := &ClinicHandlers{Profiles: mockauth.NewMemoryProfileStore()}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/clinic/staff/me", nil)
	h.Staff(rec, req, clinicContext("clinic_staff"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorBody(t, rec)["error"])
}
