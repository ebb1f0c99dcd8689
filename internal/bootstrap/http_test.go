package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinova/platform/config"
	"github.com/clinova/platform/internal/domain/identity"
	httpx "github.com/clinova/platform/internal/http"
	mockauth "github.com/clinova/platform/internal/mocks/auth"
	"github.com/clinova/platform/internal/service"
)

func testAppConfig(environment string) *config.AppConfig {
	cfg := &config.AppConfig{Environment: environment}
	cfg.Auth.TestIdentityEnabled = true
	cfg.Auth.DevAuth = config.DevAuthConfig{
		UserID:   "dev-user",
		Email:    "dev@example.com",
		Role:     "clinic_owner",
		ClinicID: "clinic-1",
	}
	cfg.Sanitize()
	return cfg
}

func TestTestIdentityFromConfig(t *testing.T) {
	ac := testIdentityFromConfig(testAppConfig("development"))
	require.NotNil(t, ac)
	assert.Equal(t, "dev-user", ac.CallerID)
	assert.Equal(t, "clinic_owner", ac.RawRole)
	assert.Equal(t, identity.RoleClinicOwner, ac.Role)
	require.NotNil(t, ac.ClinicID)
	assert.Equal(t, "clinic-1", *ac.ClinicID)
}

func TestTestIdentityFromConfig_SuppressedInProduction(t *testing.T) {
	assert.Nil(t, testIdentityFromConfig(testAppConfig("production")))
}

func TestTestIdentityFromConfig_RequiresFlag(t *testing.T) {
	cfg := testAppConfig("development")
	cfg.Auth.TestIdentityEnabled = false
	assert.Nil(t, testIdentityFromConfig(cfg))
}

func TestBuildHTTPHandler_TestIdentityReachesWrapper(t *testing.T) {
	cfg := testAppConfig("development")

	profiles := mockauth.NewMemoryProfileStore()
	clinicID := "clinic-1"
	profiles.Seed(identity.Profile{
		ID:       "dev-user",
		Email:    "dev@example.com",
		Role:     "clinic_owner",
		ClinicID: &clinicID,
	})
	identitySvc := service.NewIdentityService(service.IdentityServiceOptions{
		Sessions: mockauth.NewMemorySessionStore(),
		Profiles: profiles,
	})

	handler, err := BuildHTTPHandler(&HTTPServerConfig{
		Config:   cfg,
		Identity: identitySvc,
		Profiles: profiles,
	})
	require.NoError(t, err)

	// No session cookie: only the synthetic identity can authenticate this.
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set(httpx.TestIdentityHeader, "1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dev-user")
}
