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

func newTestRouter(t *testing.T, resolver *stubResolver, store *mockauth.MemoryProfileStore) http.Handler {
	t.Helper()
	return NewRouter(RouterServices{
		Auth:              &fakeAuthService{},
		Identity:          resolver,
		Profiles:          store,
		Table:             defaultTestTable(t),
		SessionCookieName: "clinova_session",
		DefaultLocale:     "en",
		Logger:            discardLogger(),
	})
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(t, &stubResolver{}, mockauth.NewMemoryProfileStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRouter_AuthLoginRedirectsToProvider(t *testing.T) {
	router := newTestRouter(t, &stubResolver{}, mockauth.NewMemoryProfileStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://idp.example.com/auth", rec.Header().Get("Location"))
}

func TestRouter_ProtectedAPIRequiresSession(t *testing.T) {
	router := newTestRouter(t, &stubResolver{}, mockauth.NewMemoryProfileStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", errorBody(t, rec)["error"])
}

func TestRouter_AuthenticatedProfileLookup(t *testing.T) {
	store := mockauth.NewMemoryProfileStore()
	seeded := seedProfile(t, store)
	ac := clinicContext("clinic_owner")
	ac.CallerID = seeded.ID
	router := newTestRouter(t, &stubResolver{lenientCtx: *ac, lenientOK: true, strictCtx: ac}, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/profile", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	var got identity.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, seeded, got)
}

func TestRouter_TestIdentityHeaderAuthenticates(t *testing.T) {
	store := mockauth.NewMemoryProfileStore()
	seeded := seedProfile(t, store)
	synthetic := clinicContext("clinic_owner")
	synthetic.CallerID = seeded.ID

	router := NewRouter(RouterServices{
		Auth:              &fakeAuthService{},
		Identity:          &stubResolver{},
		Profiles:          store,
		Table:             defaultTestTable(t),
		SessionCookieName: "clinova_session",
		DefaultLocale:     "en",
		TestIdentity:      synthetic,
		Logger:            discardLogger(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set(TestIdentityHeader, "1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got identity.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, seeded, got)
}

func TestRouter_AdminRouteForbiddenForClinicOwner(t *testing.T) {
	ac := clinicContext("clinic_owner")
	router := newTestRouter(t, &stubResolver{lenientCtx: *ac, lenientOK: true, strictCtx: ac}, mockauth.NewMemoryProfileStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/admin/profiles/u2", nil)))

	require.Equal(t, http.StatusForbidden, rec.Code)
}
