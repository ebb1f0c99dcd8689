package bootstrap

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/clinova/platform/config"
	"github.com/clinova/platform/internal/adapters/devauth"
	"github.com/clinova/platform/internal/adapters/oidc"
	redisadapter "github.com/clinova/platform/internal/adapters/redis"
	"github.com/clinova/platform/internal/data"
	"github.com/clinova/platform/internal/service"
)

// AuthConfig contains configuration for auth and identity services.
type AuthConfig struct {
	Auth        config.AuthConfig
	Production  bool
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildAuthService creates an auth service based on the configured auth mode.
// Returns nil if auth is not configured or configuration is invalid.
func BuildAuthService(cfg AuthConfig) *service.AuthService {
	if cfg.RedisClient == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("auth service disabled: redis client not configured", "mode", cfg.Auth.Mode)
		}
		return nil
	}

	// Redis session store shared by both modes
	sessionStore := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:")

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		return buildDevAuthService(cfg, sessionStore)

	case config.AuthModeOAuth:
		return buildOAuthService(cfg, sessionStore)

	default:
		return nil
	}
}

// BuildIdentityService wires the identity resolver over the session store
// and the profile repository.
func BuildIdentityService(db *sql.DB, redisClient redis.UniversalClient, logger *slog.Logger) *service.IdentityService {
	return service.NewIdentityService(service.IdentityServiceOptions{
		Sessions: redisadapter.NewSessionStoreWithPrefix(redisClient, "session:"),
		Profiles: data.NewProfileRepo(db),
		Logger:   logger,
	})
}

func buildDevAuthService(cfg AuthConfig, sessionStore *redisadapter.SessionStore) *service.AuthService {
	// LoadConfig rejects mock mode in production before we get here; this
	// check stands on its own for callers that skip it.
	if cfg.Production {
		if cfg.Logger != nil {
			cfg.Logger.Error("mock auth mode refused in production, auth disabled")
		}
		return nil
	}

	prov, err := devauth.NewProvider(devauth.Config{
		UserID:          cfg.Auth.DevAuth.UserID,
		Email:           cfg.Auth.DevAuth.Email,
		Role:            cfg.Auth.DevAuth.Role,
		ClinicID:        cfg.Auth.DevAuth.ClinicID,
		SessionDuration: cfg.Auth.SessionDuration,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create dev auth provider, auth disabled", "error", err)
		}
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: prov,
		Sessions: sessionStore,
	})
}

func buildOAuthService(cfg AuthConfig, sessionStore *redisadapter.SessionStore) *service.AuthService {
	// Only enable when fully configured
	oauth := cfg.Auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		if cfg.Logger != nil {
			cfg.Logger.Warn("AuthModeOAuth selected but required config missing; auth disabled",
				"discovery_url_empty", oauth.DiscoveryURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
		}
		return nil
	}

	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:        oauth.ClientID,
		ClientSecret:    oauth.ClientSecret,
		RedirectURL:     oauth.RedirectURL,
		Scope:           oauth.Scope,
		DiscoveryURL:    oauth.DiscoveryURL,
		LogoutURL:       oauth.LogoutURL,
		RoleClaimPath:   oauth.RoleClaimPath,
		ClinicClaimPath: oauth.ClinicClaimPath,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create OIDC provider, auth disabled", "error", err)
		}
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: prov,
		Sessions: sessionStore,
	})
}
