package httpx

import (
	"log/slog"
	"net/http"

	"github.com/clinova/platform/internal/domain/identity"
	"github.com/clinova/platform/internal/domain/routes"
	"github.com/clinova/platform/internal/ports"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth     AuthServiceInterface
	Identity IdentityResolver
	Profiles ports.ProfileStore
	Limiter  ports.RateLimiter
	Table    *routes.Table
	Limits   map[RateLimitCategory]ports.Limit

	CookieDomain      string
	SessionCookieName string
	DefaultLocale     string
	Production        bool
	DemoExclusion     bool

	// TestIdentity, when non-nil, is injected for requests carrying the
	// X-Test-Identity header. The wrapper drops it in production.
	TestIdentity *identity.AuthContext

	Wrapper *Wrapper // optional; built from the fields above when nil
	Logger  *slog.Logger
}

// NewRouter creates and configures the HTTP router: auth flow, health, and
// the wrapped API surface, all behind the edge gateway middleware.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	var authHandlers *AuthHandlers
	if services.Auth != nil {
		authHandlers = &AuthHandlers{
			Svc:               services.Auth,
			CookieDomain:      services.CookieDomain,
			SessionCookieName: services.SessionCookieName,
			DefaultLocale:     services.DefaultLocale,
			Logger:            logger,
		}
		registerAuthRoutes(mux, authHandlers)
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	wrapper := services.Wrapper
	if wrapper == nil {
		wrapper = NewWrapper(WrapperOptions{
			Identity:          services.Identity,
			Limiter:           services.Limiter,
			Limits:            services.Limits,
			SessionCookieName: services.SessionCookieName,
			Production:        services.Production,
			TestIdentity:      services.TestIdentity,
			Logger:            logger,
		})
	}
	registerAPIRoutes(mux, wrapper, services.Profiles)

	gateway := NewGateway(GatewayOptions{
		Identity:          services.Identity,
		Limiter:           services.Limiter,
		Table:             services.Table,
		Limits:            services.Limits,
		SessionCookieName: services.SessionCookieName,
		DefaultLocale:     services.DefaultLocale,
		Production:        services.Production,
		DemoExclusion:     services.DemoExclusion,
		Logger:            logger,
	})

	var handler http.Handler = mux
	handler = gateway.Middleware()(handler)
	handler = Logging(logger)(handler)
	handler = RequestID()(handler)
	handler = Recover(logger)(handler)
	return handler
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
}

func registerAPIRoutes(mux *http.ServeMux, wr *Wrapper, profiles ports.ProfileStore) {
	profileHandlers := &ProfileHandlers{Profiles: profiles}
	clinicHandlers := &ClinicHandlers{Profiles: profiles}
	salesHandlers := &SalesHandlers{}
	adminHandlers := &AdminHandlers{Profiles: profiles}

	authenticated := AuthOptions{RequireAuth: true, RateLimitCategory: CategoryAPI}
	mux.Handle("GET /api/profile", wr.WithAuth(profileHandlers.Me, authenticated))
	mux.Handle("GET /api/profile/context", wr.WithAuth(profileHandlers.Context, authenticated))

	mux.Handle("GET /api/clinic/overview", wr.WithClinicAuth(clinicHandlers.Overview))
	mux.Handle("GET /api/clinic/staff/me", wr.WithClinicAuth(clinicHandlers.Staff))

	mux.Handle("GET /api/sales/overview", wr.WithSalesAuth(salesHandlers.Overview))

	mux.Handle("GET /api/admin/profiles/{id}", wr.WithAdminAuth(adminHandlers.LookupProfile))
}
