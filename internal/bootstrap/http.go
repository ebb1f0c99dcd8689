package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/netutil"

	"github.com/clinova/platform/config"
	"github.com/clinova/platform/internal/domain/identity"
	"github.com/clinova/platform/internal/domain/routes"
	httpx "github.com/clinova/platform/internal/http"
	"github.com/clinova/platform/internal/ports"
	"github.com/clinova/platform/internal/service"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Auth     *service.AuthService
	Identity *service.IdentityService
	Profiles ports.ProfileStore
	Limiter  ports.RateLimiter
	Logger   *slog.Logger
}

// BuildHTTPHandler assembles the router and gateway stack.
func BuildHTTPHandler(cfg *HTTPServerConfig) (http.Handler, error) {
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
		appCfg.Sanitize()
	}

	table, err := routes.DefaultTable()
	if err != nil {
		return nil, fmt.Errorf("build route table: %w", err)
	}

	var auth httpx.AuthServiceInterface
	if cfg.Auth != nil {
		auth = cfg.Auth
	}

	return httpx.NewRouter(httpx.RouterServices{
		Auth:              auth,
		Identity:          cfg.Identity,
		Profiles:          cfg.Profiles,
		Limiter:           cfg.Limiter,
		Table:             table,
		Limits:            LimitsByCategory(appCfg.RateLimit),
		CookieDomain:      appCfg.HTTP.CookieDomain,
		SessionCookieName: appCfg.Auth.SessionCookieName,
		DefaultLocale:     appCfg.HTTP.DefaultLocale,
		Production:        appCfg.IsProduction(),
		DemoExclusion:     appCfg.HTTP.DemoExclusionEnabled,
		TestIdentity:      testIdentityFromConfig(appCfg),
		Logger:            cfg.Logger,
	}), nil
}

// testIdentityFromConfig builds the synthetic caller injected for
// X-Test-Identity requests. Nil unless the flag is on outside production;
// the identity itself reuses the dev-auth principal.
func testIdentityFromConfig(cfg *config.AppConfig) *identity.AuthContext {
	if !cfg.Auth.TestIdentityEnabled || cfg.IsProduction() {
		return nil
	}
	dev := cfg.Auth.DevAuth
	ac := &identity.AuthContext{
		CallerID: dev.UserID,
		Email:    dev.Email,
		Role:     identity.Normalize(dev.Role),
		RawRole:  dev.Role,
	}
	if dev.ClinicID != "" {
		clinicID := dev.ClinicID
		ac.ClinicID = &clinicID
	}
	return ac
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil {
		return nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler, err := BuildHTTPHandler(cfg)
	if err != nil {
		return nil, err
	}

	addr := ":8080"
	maxConns := 0
	if cfg.Config != nil {
		if cfg.Config.HTTP.Addr != "" {
			addr = cfg.Config.HTTP.Addr
		}
		maxConns = cfg.Config.HTTP.MaxConns
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	if maxConns > 0 {
		listener = netutil.LimitListener(listener, maxConns)
		logger.Info("connection limit enabled", "max_conns", maxConns)
	}

	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", serveErr)
		}
	}()

	return server, nil
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	if server == nil {
		return nil
	}

	if logger != nil {
		logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("HTTP server stopped")
	}

	return nil
}
