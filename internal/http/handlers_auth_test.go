package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinova/platform/internal/domain/identity"
	"github.com/clinova/platform/internal/service"
)

// fakeAuthService is a canned AuthServiceInterface for handler tests.
type fakeAuthService struct {
	beginResult    *service.BeginLoginResult
	beginErr       error
	completeResult *service.CompleteLoginResult
	completeErr    error
	completeInput  service.CompleteLoginInput
	session        *identity.Session
	sessionErr     error
	loggedOut      []string
	logoutErr      error
}

func (f *fakeAuthService) BeginLogin(_ context.Context, redirectURL string) (*service.BeginLoginResult, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	if f.beginResult != nil {
		return f.beginResult, nil
	}
	return &service.BeginLoginResult{AuthURL: "https://idp.example.com/auth", State: "state-1", Nonce: "nonce-1"}, nil
}

func (f *fakeAuthService) CompleteLogin(_ context.Context, in service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
	f.completeInput = in
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	if f.completeResult != nil {
		return f.completeResult, nil
	}
	return &service.CompleteLoginResult{Session: identity.Session{
		ID: "sess-1", UserID: "u1", Email: "u1@example.com", Role: "customer",
		ExpiresAt: time.Now().Add(time.Hour),
	}}, nil
}

func (f *fakeAuthService) GetSession(_ context.Context, _ string) (*identity.Session, error) {
	return f.session, f.sessionErr
}

func (f *fakeAuthService) Logout(_ context.Context, sessionID string) error {
	f.loggedOut = append(f.loggedOut, sessionID)
	return f.logoutErr
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin_RedirectsToProvider(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{}}

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=/dashboard", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://idp.example.com/auth", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	state := cookieByName(cookies, "oauth_state")
	require.NotNil(t, state)
	assert.Equal(t, "state-1", state.Value)
	assert.Equal(t, 600, state.MaxAge)
	assert.True(t, state.HttpOnly)

	nonce := cookieByName(cookies, "oauth_nonce")
	require.NotNil(t, nonce)
	assert.Equal(t, "nonce-1", nonce.Value)

	redirect := cookieByName(cookies, "post_login_redirect")
	require.NotNil(t, redirect)
	assert.Equal(t, "/dashboard", redirect.Value)
}

func TestLogin_RejectsAbsoluteRedirects(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{}}

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=https://evil.example.com/", nil))

	redirect := cookieByName(rec.Result().Cookies(), "post_login_redirect")
	require.NotNil(t, redirect)
	assert.Equal(t, "/", redirect.Value)
}

func TestLogin_ProviderError(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{beginErr: errors.New("idp unreachable")}}

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func callbackRequest(state, nonce string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state="+state, nil)
	if state != "" {
		r.AddCookie(&http.Cookie{Name: "oauth_state", Value: state})
	}
	if nonce != "" {
		r.AddCookie(&http.Cookie{Name: "oauth_nonce", Value: nonce})
	}
	return r
}

func TestCallback_CompletesLoginAndSetsSession(t *testing.T) {
	svc := &fakeAuthService{}
	h := &AuthHandlers{Svc: svc}

	rec := httptest.NewRecorder()
	h.Callback(rec, callbackRequest("state-1", "nonce-1"))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, service.CompleteLoginInput{Code: "abc", State: "state-1", Nonce: "nonce-1"}, svc.completeInput)

	sess := cookieByName(rec.Result().Cookies(), "clinova_session")
	require.NotNil(t, sess)
	assert.Equal(t, "sess-1", sess.Value)
	assert.True(t, sess.HttpOnly)
	assert.Positive(t, sess.MaxAge)

	// The flow cookies are consumed.
	state := cookieByName(rec.Result().Cookies(), "oauth_state")
	require.NotNil(t, state)
	assert.Equal(t, -1, state.MaxAge)
}

func TestCallback_LandingPageFollowsRole(t *testing.T) {
	tests := []struct {
		role     string
		location string
	}{
		{"customer", "/en/dashboard"},
		{"Premium_Customer", "/en/dashboard"},
		{"clinic_owner", "/en/clinic"},
		{"sales_staff", "/en/sales"},
		{"super_admin", "/en/admin"},
	}
	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			svc := &fakeAuthService{completeResult: &service.CompleteLoginResult{Session: identity.Session{
				ID: "sess-1", UserID: "u1", Role: tc.role, ExpiresAt: time.Now().Add(time.Hour),
			}}}
			h := &AuthHandlers{Svc: svc}

			rec := httptest.NewRecorder()
			h.Callback(rec, callbackRequest("state-1", "nonce-1"))

			assert.Equal(t, tc.location, rec.Header().Get("Location"))
		})
	}
}

func TestCallback_ExplicitRedirectWins(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{}}

	r := callbackRequest("state-1", "nonce-1")
	r.AddCookie(&http.Cookie{Name: "post_login_redirect", Value: "/th/clinic/calendar"})
	rec := httptest.NewRecorder()
	h.Callback(rec, r)

	assert.Equal(t, "/th/clinic/calendar", rec.Header().Get("Location"))
}

func TestCallback_Validation(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{}}

	// Missing code.
	rec := httptest.NewRecorder()
	h.Callback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?state=s", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing state.
	rec = httptest.NewRecorder()
	h.Callback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// State mismatch between query and cookie.
	rec = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=tampered", nil)
	r.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-1"})
	h.Callback(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing nonce cookie.
	rec = httptest.NewRecorder()
	h.Callback(rec, callbackRequest("state-1", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallback_CompletionError(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{completeErr: errors.New("exchange failed")}}

	rec := httptest.NewRecorder()
	h.Callback(rec, callbackRequest("state-1", "nonce-1"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogout_Browser(t *testing.T) {
	svc := &fakeAuthService{}
	h := &AuthHandlers{Svc: svc}

	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.AddCookie(&http.Cookie{Name: "clinova_session", Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Logout(rec, r)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, []string{"sess-1"}, svc.loggedOut)

	cleared := cookieByName(rec.Result().Cookies(), "clinova_session")
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestLogout_AJAX(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{}}

	r := httptest.NewRequest(http.MethodPost, "/auth/logout?redirect_uri=/pricing", nil)
	r.AddCookie(&http.Cookie{Name: "clinova_session", Value: "sess-1"})
	r.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.Logout(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "/pricing", body["redirect_to"])
}

func TestLogout_WithoutSessionIsStillOK(t *testing.T) {
	svc := &fakeAuthService{}
	h := &AuthHandlers{Svc: svc}

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Empty(t, svc.loggedOut)
}

func TestStatus_Authenticated(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{session: &identity.Session{
		ID: "sess-1", UserID: "u1", FirstName: "Ari", Email: "u1@example.com",
		Role:      "Premium_Customer",
		ExpiresAt: time.Now().Add(time.Hour),
	}}}

	r := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	r.AddCookie(&http.Cookie{Name: "clinova_session", Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Status(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["authenticated"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "u1", user["id"])
	assert.Equal(t, "customer_premium", user["role"], "the status endpoint reports the canonical role")
}

func TestStatus_NoCookie(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{}}

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/auth/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["authenticated"])
}

func TestStatus_InvalidSessionClearsCookie(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{sessionErr: errors.New("session expired")}}

	r := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	r.AddCookie(&http.Cookie{Name: "clinova_session", Value: "stale"})
	rec := httptest.NewRecorder()
	h.Status(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["authenticated"])

	cleared := cookieByName(rec.Result().Cookies(), "clinova_session")
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestSafeRedirectPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/dashboard", "/dashboard"},
		{"/th/clinic?tab=staff", "/th/clinic?tab=staff"},
		{"https://evil.example.com/", "/"},
		{"//evil.example.com/", "/"},
		{"dashboard", "/"},
		{"javascript:alert(1)", "/"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, safeRedirectPath(tc.in), "safeRedirectPath(%q)", tc.in)
	}
}
