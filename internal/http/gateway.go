package httpx

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"path"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/clinova/platform/internal/domain/identity"
	"github.com/clinova/platform/internal/domain/routes"
	"github.com/clinova/platform/internal/ports"
)

// IdentityResolver is the slice of the identity service the HTTP layer
// consumes. The edge gateway uses the lenient variant, the authorization
// wrappers the strict one; each request path re-resolves independently.
type IdentityResolver interface {
	ResolveLenient(ctx context.Context, sessionID string) (identity.AuthContext, bool)
	ResolveStrict(ctx context.Context, sessionID string) (*identity.AuthContext, error)
}

// RateLimitCategory names a request budget class. The gateway and the
// wrappers select a category per route; the limiter is category-agnostic.
type RateLimitCategory string

const (
	CategoryAuth   RateLimitCategory = "auth"
	CategoryCreate RateLimitCategory = "create"
	CategoryAPI    RateLimitCategory = "api"
	CategoryPublic RateLimitCategory = "public"
)

// CallerIDHeader is the trusted header an earlier auth stage may set to
// identify the caller for rate limiting. It is only honored for bucketing,
// never for authorization.
const CallerIDHeader = "X-Caller-Id"

// assetsPrefix is the reserved internal-assets path prefix that skips the
// gateway entirely.
const assetsPrefix = "/_assets/"

// demoPathFragments are the sandbox walkthrough paths forced back to the
// site root when the demo exclusion flag is on in production.
var demoPathFragments = []string{"/demo", "/sandbox"}

// publicPathFragments bypass identity and role checks at the edge: auth
// pages, marketing pages, and the public feature entry points.
var publicPathFragments = []string{
	"/auth/",
	"/about",
	"/pricing",
	"/contact",
	"/blog",
	"/search",
	"/clinics", // public clinic directory
	"/unauthorized",
}

// protectedPathFragments is the heuristic for pages that need a session:
// an unauthenticated request to one of these redirects to the login page.
var protectedPathFragments = []string{
	"/dashboard",
	"/clinic",
	"/sales",
	"/admin",
	"/profile",
	"/settings",
}

// GatewayOptions groups dependencies for the edge gateway.
type GatewayOptions struct {
	Identity IdentityResolver
	Limiter  ports.RateLimiter
	Table    *routes.Table
	Limits   map[RateLimitCategory]ports.Limit

	SessionCookieName string
	DefaultLocale     string
	Production        bool
	DemoExclusion     bool
	Logger            *slog.Logger
}

// Gateway is the edge middleware: per request it runs a fixed decision
// ladder (static bypass, demo exclusion, rate limit, public allow-list,
// login redirect, permission table) and either passes the request through,
// redirects, or rejects with 429.
//
// Every failure mode except an explicit rate-limit rejection fails OPEN:
// an error or panic in the ladder logs and lets the request through. This
// is the deliberate opposite of the handler-level wrappers, which fail
// closed. The edge protects site availability; the wrappers protect the
// data. Keep the two policies different.
type Gateway struct {
	identity IdentityResolver
	limiter  ports.RateLimiter
	table    *routes.Table
	limits   map[RateLimitCategory]ports.Limit

	cookieName    string
	defaultLocale string
	production    bool
	demoExclusion bool
	logger        *slog.Logger
}

// NewGateway constructs the edge gateway.
func NewGateway(opts GatewayOptions) *Gateway {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cookieName := opts.SessionCookieName
	if cookieName == "" {
		cookieName = "clinova_session"
	}
	locale := opts.DefaultLocale
	if locale == "" {
		locale = "en"
	}
	return &Gateway{
		identity:      opts.Identity,
		limiter:       opts.Limiter,
		table:         opts.Table,
		limits:        opts.Limits,
		cookieName:    cookieName,
		defaultLocale: locale,
		production:    opts.Production,
		demoExclusion: opts.DemoExclusion,
		logger:        logger,
	}
}

// Middleware returns the gateway as a standard middleware.
func (g *Gateway) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.serve(w, r, next)
		})
	}
}

func (g *Gateway) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	p := r.URL.Path

	if isStaticPath(p) {
		next.ServeHTTP(w, r)
		return
	}

	if g.production && g.demoExclusion && matchesFragment(p, demoPathFragments) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	// Everything below fails open: a bug in the authorization ladder must
	// not take the whole site down. A 429 is the one verdict that sticks.
	verdict := g.decide(w, r)
	switch verdict.kind {
	case verdictAllow:
		next.ServeHTTP(w, r)
	case verdictRedirect:
		http.Redirect(w, r, verdict.target, http.StatusFound)
	case verdictRateLimited:
		// Response already written.
	}
}

type verdictKind int

const (
	verdictAllow verdictKind = iota
	verdictRedirect
	verdictRateLimited
)

type verdict struct {
	kind   verdictKind
	target string
}

func (g *Gateway) decide(w http.ResponseWriter, r *http.Request) (out verdict) {
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.ErrorContext(r.Context(), "gateway panic, failing open",
				"error", rec,
				"path", r.URL.Path,
				"stack", string(debug.Stack()))
			out = verdict{kind: verdictAllow}
		}
	}()

	p := r.URL.Path

	if isAPIPath(p) {
		if limited := g.checkRateLimit(w, r); limited {
			return verdict{kind: verdictRateLimited}
		}
	}

	if matchesFragment(p, publicPathFragments) {
		return verdict{kind: verdictAllow}
	}

	ac, authenticated := g.resolve(r)

	locale := routes.Locale(p)
	if locale == "" {
		locale = g.defaultLocale
	}

	if !authenticated {
		if matchesFragment(p, protectedPathFragments) {
			return verdict{kind: verdictRedirect, target: "/" + locale + "/auth/login"}
		}
		// Unauthenticated on an unprotected path: the permissive table
		// decides below with role public.
	}

	if target := g.table.RedirectFor(ac.Role, p); target != "" {
		return verdict{kind: verdictRedirect, target: "/" + locale + target}
	}
	return verdict{kind: verdictAllow}
}

// resolve performs the lenient identity resolution for the edge. Missing
// cookie, missing session, or a session-store error all read as "no caller".
func (g *Gateway) resolve(r *http.Request) (identity.AuthContext, bool) {
	cookie, err := r.Cookie(g.cookieName)
	if err != nil {
		return identity.AuthContext{Role: identity.RolePublic}, false
	}
	return g.identity.ResolveLenient(r.Context(), cookie.Value)
}

// checkRateLimit runs the limiter for API paths. Returns true when the
// request was rejected (response written). Limiter errors fail open.
func (g *Gateway) checkRateLimit(w http.ResponseWriter, r *http.Request) bool {
	category := categoryForRequest(r, g.cookieName)
	limit, ok := g.limits[category]
	if !ok || g.limiter == nil {
		return false
	}

	decision, err := g.limiter.Check(r.Context(), clientIdentifier(r), limit)
	if err != nil {
		g.logger.WarnContext(r.Context(), "rate limiter unavailable, failing open",
			"error", err, "path", r.URL.Path)
		return false
	}

	SetRateLimitHeaders(w, limit, decision)
	if decision.Allowed {
		return false
	}
	WriteRateLimited(w, decision)
	return true
}

// SetRateLimitHeaders attaches the standard rate-limit headers.
func SetRateLimitHeaders(w http.ResponseWriter, limit ports.Limit, d ports.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.MaxRequests))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", d.ResetAt.UTC().Format(time.RFC3339))
}

// WriteRateLimited writes the 429 response with Retry-After and the error body.
func WriteRateLimited(w http.ResponseWriter, d ports.Decision) {
	retryAfter := int(d.RetryAfter / time.Second)
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	WriteJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":      "rate_limit_exceeded",
		"retryAfter": retryAfter,
	})
}

// categoryForRequest picks the limit category for an API request. Requests
// with no identifiable caller (no trusted caller-ID header, no session
// cookie) fall into the stricter public budget; auth endpoints keep their own
// budget since logins are anonymous by nature.
func categoryForRequest(r *http.Request, sessionCookie string) RateLimitCategory {
	stripped := routes.StripLocale(r.URL.Path)
	switch {
	case strings.Contains(stripped, "/auth"):
		return CategoryAuth
	case !hasCallerIdentity(r, sessionCookie):
		return CategoryPublic
	case r.Method == http.MethodPost || r.Method == http.MethodPut ||
		r.Method == http.MethodPatch || r.Method == http.MethodDelete:
		return CategoryCreate
	default:
		return CategoryAPI
	}
}

// hasCallerIdentity reports whether the request can be bucketed by caller
// rather than by network address.
func hasCallerIdentity(r *http.Request, sessionCookie string) bool {
	if r.Header.Get(CallerIDHeader) != "" {
		return true
	}
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return true
	}
	return false
}

// clientIdentifier buckets rate-limit counters: the caller ID when a trusted
// earlier stage provided one, otherwise the client network address.
func clientIdentifier(r *http.Request) string {
	if id := r.Header.Get(CallerIDHeader); id != "" {
		return "caller:" + id
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return "addr:" + first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "addr:" + r.RemoteAddr
	}
	return "addr:" + host
}

// isStaticPath reports whether the path is an internal asset or carries a
// file extension.
func isStaticPath(p string) bool {
	if strings.HasPrefix(p, assetsPrefix) || strings.HasPrefix(p, "/static/") {
		return true
	}
	return path.Ext(p) != ""
}

// isAPIPath reports whether the path, locale stripped, is under /api.
func isAPIPath(p string) bool {
	stripped := routes.StripLocale(p)
	return stripped == "/api" || strings.HasPrefix(stripped, "/api/")
}

// matchesFragment reports whether any fragment matches the path as a whole
// segment prefix.
func matchesFragment(p string, fragments []string) bool {
	stripped := routes.StripLocale(p)
	for _, f := range fragments {
		trimmed := strings.TrimSuffix(f, "/")
		if stripped == trimmed || strings.HasPrefix(stripped, trimmed+"/") {
			return true
		}
	}
	return false
}
