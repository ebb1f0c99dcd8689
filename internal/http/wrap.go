package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clinova/platform/internal/domain/identity"
	errs "github.com/clinova/platform/internal/errors"
	"github.com/clinova/platform/internal/ports"
)

// AuthHandler is a handler that receives the resolved caller context.
// The context is nil for public handlers (RequireAuth false).
type AuthHandler func(w http.ResponseWriter, r *http.Request, ac *identity.AuthContext)

// AuthOptions configures one wrapped handler.
//
// AllowedRoles compares the caller's RAW role string, not the canonical set
// the edge table matches on. The two layers deliberately keep separate role
// vocabularies; handlers downstream expect the raw spelling.
type AuthOptions struct {
	RequireAuth        bool
	AllowedRoles       []string
	RequireClinicScope bool
	RateLimitCategory  RateLimitCategory
}

// WrapperOptions groups dependencies for the Wrapper.
type WrapperOptions struct {
	Identity IdentityResolver
	Limiter  ports.RateLimiter
	Limits   map[RateLimitCategory]ports.Limit

	SessionCookieName string
	Production        bool

	// TestIdentity, when non-nil and not in production, is injected for
	// requests carrying the X-Test-Identity header, bypassing real
	// resolution. Inert in production regardless of configuration.
	TestIdentity *identity.AuthContext

	Logger *slog.Logger
}

// Wrapper decorates handlers with authentication, role, tenant-scope, and
// rate-limit enforcement.
//
// Unlike the edge Gateway, every failure here fails CLOSED: the wrapped
// handler never runs on an error, and the caller gets an explicit 401, 403,
// 429, or 500. The edge trades strictness for availability; this layer is
// the backstop that does not. Keep the two policies different.
type Wrapper struct {
	identity     IdentityResolver
	limiter      ports.RateLimiter
	limits       map[RateLimitCategory]ports.Limit
	cookieName   string
	production   bool
	testIdentity *identity.AuthContext
	logger       *slog.Logger
}

// TestIdentityHeader triggers synthetic-caller injection in non-production
// test mode.
const TestIdentityHeader = "X-Test-Identity"

// NewWrapper constructs a Wrapper.
func NewWrapper(opts WrapperOptions) *Wrapper {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cookieName := opts.SessionCookieName
	if cookieName == "" {
		cookieName = "clinova_session"
	}
	testIdentity := opts.TestIdentity
	if opts.Production {
		// Synthetic identities must be unreachable in production.
		testIdentity = nil
	}
	return &Wrapper{
		identity:     opts.Identity,
		limiter:      opts.Limiter,
		limits:       opts.Limits,
		cookieName:   cookieName,
		production:   opts.Production,
		testIdentity: testIdentity,
		logger:       logger,
	}
}

// WithAuth wraps a handler with the configured enforcement ladder.
func (wr *Wrapper) WithAuth(h AuthHandler, opts AuthOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		r = wr.ensureRequestID(w, r)
		ww := &respWriter{ResponseWriter: w, status: http.StatusOK}

		ac := wr.enforce(ww, r, opts)
		if ac != nil || !opts.RequireAuth {
			if failed := wr.failedStatus(ww.status); !failed {
				// Also carry the caller on the request context so collaborators
				// below the handler signature can read it.
				h(ww, r.WithContext(SetAuthContext(r.Context(), ac)), ac)
			}
		}

		callerID := ""
		if ac != nil {
			callerID = ac.CallerID
		}
		wr.logger.InfoContext(r.Context(), "api",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("caller_id", callerID),
			slog.String("request_id", RequestIDFrom(r.Context())),
		)
	}
}

// enforce runs rate limiting, identity resolution, and role/scope checks.
// It writes the error response itself on rejection and returns nil; for a
// public handler (RequireAuth false) it returns nil without writing.
func (wr *Wrapper) enforce(w *respWriter, r *http.Request, opts AuthOptions) *identity.AuthContext {
	if opts.RateLimitCategory != "" {
		if limited := wr.checkRateLimit(w, r, opts.RateLimitCategory); limited {
			return nil
		}
	}

	if !opts.RequireAuth {
		return nil
	}

	ac, err := wr.resolve(r)
	if err != nil {
		WriteAppError(w, err)
		return nil
	}

	if len(opts.AllowedRoles) > 0 && !containsRole(opts.AllowedRoles, ac.RawRole) {
		WriteAppError(w, errs.Forbiddenf("role %q is not permitted on this route", ac.RawRole))
		return nil
	}

	if opts.RequireClinicScope && !ac.HasClinicScope() {
		WriteAppError(w, errs.Forbidden("caller has no clinic scope"))
		return nil
	}

	return ac
}

// resolve performs strict identity resolution, honoring the synthetic test
// identity in non-production test mode.
func (wr *Wrapper) resolve(r *http.Request) (*identity.AuthContext, error) {
	if wr.testIdentity != nil && r.Header.Get(TestIdentityHeader) != "" {
		synthetic := *wr.testIdentity
		return &synthetic, nil
	}

	cookie, err := r.Cookie(wr.cookieName)
	if err != nil {
		return nil, errs.Unauthenticated("no session cookie")
	}
	return wr.identity.ResolveStrict(r.Context(), cookie.Value)
}

func (wr *Wrapper) checkRateLimit(w *respWriter, r *http.Request, category RateLimitCategory) bool {
	limit, ok := wr.limits[category]
	if !ok || wr.limiter == nil {
		return false
	}

	decision, err := wr.limiter.Check(r.Context(), clientIdentifier(r), limit)
	if err != nil {
		// Fail closed: a broken limiter rejects rather than waving traffic
		// through an unmetered endpoint.
		WriteAppError(w, errs.UpstreamUnavailable(err, "rate limiter unavailable"))
		return true
	}

	SetRateLimitHeaders(w, limit, decision)
	if decision.Allowed {
		return false
	}
	WriteRateLimited(w, decision)
	return true
}

// ensureRequestID guarantees a correlation ID even when the router-level
// RequestID middleware is not in front of this handler (e.g. in tests).
func (wr *Wrapper) ensureRequestID(w http.ResponseWriter, r *http.Request) *http.Request {
	if RequestIDFrom(r.Context()) != "" {
		return r
	}
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)
	return r.WithContext(SetRequestID(r.Context(), id))
}

// failedStatus reports whether enforce already wrote an error response.
func (wr *Wrapper) failedStatus(status int) bool {
	return status >= http.StatusBadRequest
}

func containsRole(roles []string, raw string) bool {
	for _, role := range roles {
		if role == raw {
			return true
		}
	}
	return false
}

// Raw-role allow-lists for the pre-configured wrappers. These are raw
// profile spellings, kept deliberately separate from the canonical set.
var (
	clinicRawRoles = []string{"clinic_staff", "clinic_owner", "clinic_admin", "super_admin"}
	salesRawRoles  = []string{"sales_staff", "clinic_admin", "super_admin"}
	adminRawRoles  = []string{"super_admin"}
)

// WithClinicAuth wraps a handler for clinic-side staff; the caller must
// carry a clinic scope.
func (wr *Wrapper) WithClinicAuth(h AuthHandler) http.HandlerFunc {
	return wr.WithAuth(h, AuthOptions{
		RequireAuth:        true,
		AllowedRoles:       clinicRawRoles,
		RequireClinicScope: true,
		RateLimitCategory:  CategoryAPI,
	})
}

// WithSalesAuth wraps a handler for sales tooling. After the raw-role check
// it re-checks the canonical sales predicate as a second, independent gate.
func (wr *Wrapper) WithSalesAuth(h AuthHandler) http.HandlerFunc {
	guarded := func(w http.ResponseWriter, r *http.Request, ac *identity.AuthContext) {
		if ac == nil || !identity.CanAccessSales(ac.Role) {
			WriteAppError(w, errs.Forbidden("caller cannot access sales tooling"))
			return
		}
		h(w, r, ac)
	}
	return wr.WithAuth(guarded, AuthOptions{
		RequireAuth:       true,
		AllowedRoles:      salesRawRoles,
		RateLimitCategory: CategoryAPI,
	})
}

// WithAdminAuth wraps a handler for platform administration.
func (wr *Wrapper) WithAdminAuth(h AuthHandler) http.HandlerFunc {
	return wr.WithAuth(h, AuthOptions{
		RequireAuth:       true,
		AllowedRoles:      adminRawRoles,
		RateLimitCategory: CategoryAPI,
	})
}
