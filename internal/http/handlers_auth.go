package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clinova/platform/internal/domain/identity"
	"github.com/clinova/platform/internal/domain/routes"
	"github.com/clinova/platform/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	GetSession(ctx context.Context, sessionID string) (*identity.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlers provides HTTP handlers for the login flow.
type AuthHandlers struct {
	Svc               AuthServiceInterface
	CookieDomain      string
	SessionCookieName string
	DefaultLocale     string
	Logger            *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) cookieName() string {
	if h.SessionCookieName != "" {
		return h.SessionCookieName
	}
	return "clinova_session"
}

// Login handles the login initiation endpoint.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	// Allow only relative redirect targets; anything else falls back to root.
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     err,
		})
		return
	}

	// Store state, nonce, and the original redirect URI in secure cookies.
	h.setOAuthCookies(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback handles the identity-provider callback endpoint.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie("oauth_nonce")
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     err,
		})
		return
	}

	h.setSessionCookie(w, r, result.Session)
	h.clearCookie(w, r, "oauth_state")
	h.clearCookie(w, r, "oauth_nonce")

	// Explicit destination wins; otherwise the role's landing page, locale
	// qualified.
	redirectURI := h.getPostLoginRedirect(w, r)
	if redirectURI == "/" {
		locale := h.DefaultLocale
		if locale == "" {
			locale = "en"
		}
		landing := routes.LandingPage(identity.Normalize(result.Session.Role))
		redirectURI = "/" + locale + landing
	}
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// Logout handles the logout endpoint.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionCookie, err := r.Cookie(h.cookieName()); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), sessionCookie.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}

	h.clearCookie(w, r, h.cookieName())

	redirectURI := r.FormValue("redirect_uri")
	if redirectURI == "" {
		redirectURI = r.URL.Query().Get("redirect_uri")
	}
	redirectURI = safeRedirectPath(redirectURI)

	// JSON clients get the destination in the body; browsers get redirected.
	isAJAX := strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
	if isAJAX {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": redirectURI,
		})
		return
	}

	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	sessionCookie, err := r.Cookie(h.cookieName())
	if err != nil {
		WriteJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
		})
		return
	}

	session, err := h.Svc.GetSession(r.Context(), sessionCookie.Value)
	if err != nil {
		// Session is invalid or expired, clear the cookie.
		h.clearCookie(w, r, h.cookieName())
		WriteJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":         session.UserID,
			"first_name": session.FirstName,
			"last_name":  session.LastName,
			"email":      session.Email,
			"role":       string(identity.Normalize(session.Role)),
		},
		"expires_at": session.ExpiresAt,
	})
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecure,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// oauthCookieParams groups values needed to set the login-flow cookies.
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// setOAuthCookies stores OAuth state, nonce, and the post-login redirect in secure cookies.
func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	cd := h.CookieDomain

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    p.State,
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_nonce",
		Value:    p.Nonce,
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "post_login_redirect",
		Value:    p.RedirectURI,
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s identity.Session) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

// getPostLoginRedirect returns the post-login redirect URL and clears the cookie.
func (h *AuthHandlers) getPostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	redirectURI := "/"
	if redirectCookie, err := r.Cookie("post_login_redirect"); err == nil {
		redirectURI = safeRedirectPath(redirectCookie.Value)
		h.clearCookie(w, r, "post_login_redirect")
	}
	return redirectURI
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
